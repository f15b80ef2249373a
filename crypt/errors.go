package crypt

import "errors"

var (
	// ErrInvalidKey is returned when a key, IV or key encoding has the wrong shape.
	ErrInvalidKey = errors.New("crypt: invalid key")
	// ErrDecryption is returned when ciphertext cannot be authenticated or unpadded.
	ErrDecryption = errors.New("crypt: decryption failed")
)
