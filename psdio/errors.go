package psdio

import "errors"

var (
	// ErrTruncated is returned when fewer bytes remain than a field requires.
	ErrTruncated = errors.New("psd: truncated input")
	// ErrUnsupportedVersion is returned when a record carries a version
	// tag other than the one its layout is defined for.
	ErrUnsupportedVersion = errors.New("psd: unsupported version")
	// ErrInvalidField is returned for values outside of their permitted
	// range, in either direction.
	ErrInvalidField = errors.New("psd: invalid field")
	// ErrMalformedLength is returned when a declared length cannot hold
	// the fixed header it must contain.
	ErrMalformedLength = errors.New("psd: malformed length")
)
