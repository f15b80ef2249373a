package crypt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// RandomBytes returns n bytes from the operating system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("crypt: negative length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// RandomHex returns n random bytes encoded as 2n hex characters.
func RandomHex(n int) (string, error) {
	buf, err := RandomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RandomInt returns a uniformly distributed integer in [min, max].
func RandomInt(min, max int64) (int64, error) {
	if max < min {
		return 0, fmt.Errorf("crypt: invalid range [%d, %d]", min, max)
	}

	span := new(big.Int).Sub(big.NewInt(max), big.NewInt(min))
	span.Add(span, big.NewInt(1))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return n.Int64() + min, nil
}

// RandomIndex returns a uniform index in [0, n).
func RandomIndex(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("crypt: empty range")
	}
	v, err := RandomInt(0, int64(n-1))
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// Shuffle permutes s in place with a Fisher-Yates shuffle driven by the
// secure random source.
func Shuffle[T any](s []T) error {
	for i := len(s) - 1; i > 0; i-- {
		j, err := RandomIndex(i + 1)
		if err != nil {
			return err
		}
		s[i], s[j] = s[j], s[i]
	}
	return nil
}
