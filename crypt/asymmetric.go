package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	p256PointSize  = 65
	eciesKeySize   = 32
	eciesNonceSize = 12
)

var eciesInfo = []byte("goAccess ecies v1")

// KeyPair is a P-256 key pair used for both encryption and signing.
type KeyPair struct {
	Private *ecdsa.PrivateKey
	Public  *ecdsa.PublicKey
}

// GenerateKeyPair creates a fresh P-256 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}

// PublicKeyHex encodes pub as an uncompressed point in hex.
func PublicKeyHex(pub *ecdsa.PublicKey) (string, error) {
	if pub == nil {
		return "", ErrInvalidKey
	}
	raw, err := pub.Bytes()
	if err != nil {
		return "", ErrInvalidKey
	}
	return hex.EncodeToString(raw), nil
}

// ParsePublicKeyHex decodes a key produced by PublicKeyHex.
func ParsePublicKeyHex(s string) (*ecdsa.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidKey
	}
	pub, err := ecdsa.ParseUncompressedPublicKey(elliptic.P256(), raw)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return pub, nil
}

// PrivateKeyHex encodes the private scalar of priv in hex.
func PrivateKeyHex(priv *ecdsa.PrivateKey) (string, error) {
	if priv == nil {
		return "", ErrInvalidKey
	}
	raw, err := priv.Bytes()
	if err != nil {
		return "", ErrInvalidKey
	}
	return hex.EncodeToString(raw), nil
}

// ParsePrivateKeyHex decodes a key produced by PrivateKeyHex.
func ParsePrivateKeyHex(s string) (*ecdsa.PrivateKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidKey
	}
	priv, err := ecdsa.ParseRawPrivateKey(elliptic.P256(), raw)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return priv, nil
}

// EncryptFor encrypts data so that only the holder of the private half of
// pub can read it. The output is ephemeralPoint || nonce || sealed.
func EncryptFor(data []byte, pub *ecdsa.PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, ErrInvalidKey
	}
	recipient, err := pub.ECDH()
	if err != nil {
		return nil, ErrInvalidKey
	}

	eph, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	shared, err := eph.ECDH(recipient)
	if err != nil {
		return nil, ErrInvalidKey
	}

	ephPoint := eph.PublicKey().Bytes()
	aead, err := eciesAEAD(shared, ephPoint)
	if err != nil {
		return nil, err
	}

	nonce, err := RandomBytes(eciesNonceSize)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(ephPoint)+len(nonce)+len(data)+aead.Overhead())
	out = append(out, ephPoint...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, ephPoint), nil
}

// DecryptWith reverses EncryptFor.
func DecryptWith(data []byte, priv *ecdsa.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, ErrInvalidKey
	}
	if len(data) < p256PointSize+eciesNonceSize+16 {
		return nil, ErrDecryption
	}
	local, err := priv.ECDH()
	if err != nil {
		return nil, ErrInvalidKey
	}

	ephPoint := data[:p256PointSize]
	nonce := data[p256PointSize : p256PointSize+eciesNonceSize]
	sealed := data[p256PointSize+eciesNonceSize:]

	eph, err := ecdh.P256().NewPublicKey(ephPoint)
	if err != nil {
		return nil, ErrDecryption
	}
	shared, err := local.ECDH(eph)
	if err != nil {
		return nil, ErrDecryption
	}

	aead, err := eciesAEAD(shared, ephPoint)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, sealed, ephPoint)
	if err != nil {
		return nil, ErrDecryption
	}
	return plain, nil
}

// Sign returns an ASN.1 ECDSA signature over the SHA-256 digest of data.
func Sign(data []byte, priv *ecdsa.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, ErrInvalidKey
	}
	digest := Hash(data)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: sign", ErrInvalidKey)
	}
	return sig, nil
}

// Verify reports whether sig is a valid signature of data under pub.
func Verify(data, sig []byte, pub *ecdsa.PublicKey) bool {
	if pub == nil {
		return false
	}
	digest := Hash(data)
	return ecdsa.VerifyASN1(pub, digest[:], sig)
}

func eciesAEAD(shared, salt []byte) (cipher.AEAD, error) {
	key := make([]byte, eciesKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, salt, eciesInfo), key); err != nil {
		return nil, ErrDecryption
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKey
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return aead, nil
}
