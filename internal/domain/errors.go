package domain

import "errors"

var (
	// ErrUnknownKind signals an unrecognized purchase item kind.
	ErrUnknownKind = errors.New("unknown purchase kind")
	// ErrUnknownInfoType signals an unrecognized product info type.
	ErrUnknownInfoType = errors.New("unknown info type")
)
