package marketgate

import "context"

// ReceiptVerdict is the answer a receipt processor gives the platform for a
// developer-product purchase receipt.
type ReceiptVerdict string

const (
	// Granted tells the platform the purchase was applied and the receipt
	// may be retired.
	Granted ReceiptVerdict = "granted"

	// NotProcessedYet tells the platform to hold the receipt and redeliver
	// it later.
	NotProcessedYet ReceiptVerdict = "not_processed_yet"
)

// Receipt carries one developer-product purchase the platform asks the
// application to fulfil.
type Receipt struct {
	// PurchaseID uniquely identifies the receipt across redeliveries.
	PurchaseID string

	RequesterID   int64
	ProductID     int64
	CurrencySpent int64
}

// ReceiptProcessor fulfils a purchase receipt: grant the product to the
// requester, then return Granted. Return NotProcessedYet (or an error) to
// have the platform redeliver the receipt later.
//
// The platform invokes the processor, this module never does. Registering
// it, persisting grants and deduplicating redeliveries by PurchaseID are
// the application's responsibility.
type ReceiptProcessor func(ctx context.Context, r Receipt) (ReceiptVerdict, error)
