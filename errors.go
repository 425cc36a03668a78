package marketgate

import (
	"github.com/kailas-cloud/marketgate/internal/safecall"
	"github.com/kailas-cloud/marketgate/internal/usecase/bulk"
)

// CallError is the typed failure of a single platform call. Retriable
// reports whether the caller may reasonably try again.
type CallError = safecall.CallError

// AsCallError extracts a *CallError from an error chain.
func AsCallError(err error) (*CallError, bool) {
	return safecall.AsCallError(err)
}

// Bulk validation errors. These reject an invocation before any prompt
// is issued.
var (
	ErrInvalidRequester = bulk.ErrInvalidRequester
	ErrDuplicateItem    = bulk.ErrDuplicateItem
	ErrBatchTooLarge    = bulk.ErrBatchTooLarge
)
