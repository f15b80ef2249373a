package crypt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestSize is the length in bytes of every Digest.
const DigestSize = sha256.Size

// Digest is a fixed-size SHA-256 output.
type Digest [DigestSize]byte

// Hex returns the lowercase hex encoding of d.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// Equal compares two digests in constant time.
func (d Digest) Equal(other Digest) bool {
	return subtle.ConstantTimeCompare(d[:], other[:]) == 1
}

// Hash returns the SHA-256 digest of data.
func Hash(data []byte) Digest {
	return sha256.Sum256(data)
}

// HashString hashes s and returns the digest as lowercase hex.
func HashString(s string) string {
	return Hash([]byte(s)).Hex()
}

// HMAC returns the HMAC-SHA-256 of data under key.
func HMAC(data, key []byte) Digest {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)

	var out Digest
	copy(out[:], mac.Sum(nil))
	return out
}

// VerifyHMAC reports whether mac is the HMAC of data under key.
func VerifyHMAC(data, key []byte, mac Digest) bool {
	return HMAC(data, key).Equal(mac)
}

// EqualHex compares two hex strings in constant time. Strings of different
// length compare unequal.
func EqualHex(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
