package crypt

import (
	"encoding/json"
	"fmt"
)

// Fingerprint hashes a canonical JSON encoding of v. Map keys are emitted
// in sorted order by encoding/json, so logically equal records produce the
// same fingerprint regardless of construction order.
func Fingerprint(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("crypt: fingerprint: %w", err)
	}
	return Hash(raw).Hex(), nil
}

// VerifyFingerprint reports whether v still matches a previously computed
// fingerprint.
func VerifyFingerprint(v any, fingerprint string) bool {
	got, err := Fingerprint(v)
	if err != nil {
		return false
	}
	return EqualHex(got, fingerprint)
}
