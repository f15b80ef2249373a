package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Mode selects how blocks are chained.
type Mode uint8

const (
	// ModeCBC chains blocks with a per-message IV. It is the zero value.
	ModeCBC Mode = iota
	// ModeECB encrypts each block independently. Identical plaintext blocks
	// produce identical ciphertext blocks.
	ModeECB
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCBC:
		return "cbc"
	case ModeECB:
		return "ecb"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// SymmetricOptions configures Encrypt and Decrypt.
type SymmetricOptions struct {
	Mode Mode
	// IV is used by CBC encryption when set; a fresh IV is generated
	// otherwise. The IV is always prepended to CBC ciphertext, so Decrypt
	// ignores this field.
	IV []byte
}

// Encrypt encrypts plaintext with AES under key (16, 24 or 32 bytes) using
// PKCS#7 padding.
func Encrypt(plaintext, key []byte, opts SymmetricOptions) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())

	switch opts.Mode {
	case ModeECB:
		out := make([]byte, len(padded))
		for i := 0; i < len(padded); i += block.BlockSize() {
			block.Encrypt(out[i:i+block.BlockSize()], padded[i:i+block.BlockSize()])
		}
		return out, nil
	case ModeCBC:
		iv := opts.IV
		if iv == nil {
			iv, err = RandomBytes(block.BlockSize())
			if err != nil {
				return nil, err
			}
		} else if len(iv) != block.BlockSize() {
			return nil, fmt.Errorf("%w: iv must be %d bytes", ErrInvalidKey, block.BlockSize())
		}

		out := make([]byte, len(iv)+len(padded))
		copy(out, iv)
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[len(iv):], padded)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported mode %s", ErrInvalidKey, opts.Mode)
	}
}

// Decrypt reverses Encrypt. Any malformed, truncated or wrongly keyed
// ciphertext yields ErrDecryption.
func Decrypt(ciphertext, key []byte, opts SymmetricOptions) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	size := block.BlockSize()

	switch opts.Mode {
	case ModeECB:
		if len(ciphertext) == 0 || len(ciphertext)%size != 0 {
			return nil, ErrDecryption
		}
		out := make([]byte, len(ciphertext))
		for i := 0; i < len(ciphertext); i += size {
			block.Decrypt(out[i:i+size], ciphertext[i:i+size])
		}
		return pkcs7Unpad(out, size)
	case ModeCBC:
		if len(ciphertext) < 2*size || len(ciphertext)%size != 0 {
			return nil, ErrDecryption
		}
		iv, body := ciphertext[:size], ciphertext[size:]
		out := make([]byte, len(body))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)
		return pkcs7Unpad(out, size)
	default:
		return nil, fmt.Errorf("%w: unsupported mode %s", ErrInvalidKey, opts.Mode)
	}
}

// EncryptString encrypts a UTF-8 string and returns hex ciphertext.
func EncryptString(plaintext string, key []byte, opts SymmetricOptions) (string, error) {
	out, err := Encrypt([]byte(plaintext), key, opts)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(out), nil
}

// DecryptString decrypts hex ciphertext produced by EncryptString.
func DecryptString(ciphertext string, key []byte, opts SymmetricOptions) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryption
	}
	out, err := Decrypt(raw, key, opts)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func newBlock(key []byte) (cipher.Block, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: key must be 16, 24 or 32 bytes", ErrInvalidKey)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return block, nil
}

func pkcs7Pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrDecryption
	}
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, ErrDecryption
	}
	want := bytes.Repeat([]byte{byte(n)}, n)
	if subtle.ConstantTimeCompare(data[len(data)-n:], want) != 1 {
		return nil, ErrDecryption
	}
	return data[:len(data)-n], nil
}
