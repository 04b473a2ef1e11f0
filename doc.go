// Package ctrextract decrypts and extracts the contents of NCCH containers,
// the format the Nintendo 3DS (also known as CTR) uses to package an
// application's metadata, executable sections and read-only filesystem.
//
// A Container parses the outer header, resolves the AES-CTR key and
// per-region counters, and exposes decrypted ExeFS sections and extended
// header metadata. Decryption is seekable: a section is decrypted without
// generating the keystream of the bytes before it. Shared system archives,
// which are stored in plaintext, get a direct RomFS extraction path.
//
// Integrity and authenticity are not checked here; embedded hashes and
// signatures are carried through untouched.
//
// This package comes with a CLI. You can install it like this:
//
//	go install github.com/connesc/ctrextract/cmd/ctrextract@latest
package ctrextract
