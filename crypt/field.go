package crypt

import (
	"fmt"
	"sort"
)

// FieldCipher encrypts selected string fields of a record with one
// symmetric key in CBC mode.
type FieldCipher struct {
	key []byte
}

// FieldError reports a field that could not be decrypted.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("crypt: field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldCipher binds a cipher to key. The key must be a valid AES key.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	if _, err := newBlock(key); err != nil {
		return nil, err
	}
	return &FieldCipher{key: append([]byte(nil), key...)}, nil
}

// EncryptFields returns a copy of record with every named field that is
// present and non-empty replaced by hex ciphertext.
func (c *FieldCipher) EncryptFields(record map[string]string, fields ...string) (map[string]string, error) {
	out := cloneRecord(record)
	for _, f := range fields {
		v, ok := out[f]
		if !ok || v == "" {
			continue
		}
		enc, err := EncryptString(v, c.key, SymmetricOptions{Mode: ModeCBC})
		if err != nil {
			return nil, err
		}
		out[f] = enc
	}
	return out, nil
}

// DecryptFields returns a copy of record with the named fields decrypted.
// A field that fails to decrypt keeps its stored value and is reported in
// the returned slice, ordered by field name.
func (c *FieldCipher) DecryptFields(record map[string]string, fields ...string) (map[string]string, []*FieldError) {
	out := cloneRecord(record)
	var failed []*FieldError
	for _, f := range fields {
		v, ok := out[f]
		if !ok || v == "" {
			continue
		}
		dec, err := DecryptString(v, c.key, SymmetricOptions{Mode: ModeCBC})
		if err != nil {
			failed = append(failed, &FieldError{Field: f, Err: err})
			continue
		}
		out[f] = dec
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Field < failed[j].Field })
	return out, failed
}

func cloneRecord(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
