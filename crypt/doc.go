// Package crypt provides the cryptographic primitives used by the session
// core: digests, keyed MACs, block-cipher encryption, elliptic-curve
// encryption and signatures, and a secure random source.
//
// All randomness comes from crypto/rand. Failures are reported through
// ErrInvalidKey and ErrDecryption only; error values never carry key bytes
// or intermediate buffers.
package crypt
