package ctrextract

import "errors"

// Sentinel errors returned by Container operations and wrapped with context.
// Use errors.Is to classify a failure.
var (
	// ErrInvalidFormat reports that the input does not start with an NCCH
	// header.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrUnsupportedVersion reports an NCCH version other than 0, 1 or 2.
	// It is only fatal when an encrypted extended header must be decrypted.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrEncryptedButNoKey reports that the container is encrypted and the
	// Secure1 normal key could not be resolved.
	ErrEncryptedButNoKey = errors.New("encrypted but no key available")

	// ErrNotFound reports a missing ExeFS section or metadata field.
	ErrNotFound = errors.New("not found")

	// ErrReadFailed reports a failed seek or short read against the input.
	ErrReadFailed = errors.New("read failed")
)
