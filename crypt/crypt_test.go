package crypt

import (
	"bytes"
	"errors"
	"testing"
)

func TestHashKnownVector(t *testing.T) {
	got := HashString("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("HashString(abc) = %s, want %s", got, want)
	}
	if Hash([]byte("abc")) != Hash([]byte("abc")) {
		t.Fatal("expected deterministic digest")
	}
}

func TestHMACKnownVector(t *testing.T) {
	mac := HMAC([]byte("what do ya want for nothing?"), []byte("Jefe"))
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if mac.Hex() != want {
		t.Fatalf("HMAC = %s, want %s", mac.Hex(), want)
	}
	if !VerifyHMAC([]byte("what do ya want for nothing?"), []byte("Jefe"), mac) {
		t.Fatal("expected mac to verify")
	}
	if VerifyHMAC([]byte("tampered"), []byte("Jefe"), mac) {
		t.Fatal("expected tampered data to fail verification")
	}
}

func TestSymmetricRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 16)
	for _, mode := range []Mode{ModeCBC, ModeECB} {
		for _, msg := range []string{"", "a", "exactly16bytes!!", "student record 2024-001 / 13812345678"} {
			ct, err := Encrypt([]byte(msg), key, SymmetricOptions{Mode: mode})
			if err != nil {
				t.Fatalf("%s encrypt %q: %v", mode, msg, err)
			}
			pt, err := Decrypt(ct, key, SymmetricOptions{Mode: mode})
			if err != nil {
				t.Fatalf("%s decrypt %q: %v", mode, msg, err)
			}
			if string(pt) != msg {
				t.Fatalf("%s round trip = %q, want %q", mode, pt, msg)
			}
		}
	}
}

func TestECBIsDeterministicAndCBCIsNot(t *testing.T) {
	key := bytes.Repeat([]byte{0x07}, 16)
	block := bytes.Repeat([]byte("A"), 16)
	msg := append(append([]byte{}, block...), block...)

	ecb, err := Encrypt(msg, key, SymmetricOptions{Mode: ModeECB})
	if err != nil {
		t.Fatalf("ecb encrypt: %v", err)
	}
	if !bytes.Equal(ecb[:16], ecb[16:32]) {
		t.Fatal("expected identical ECB blocks for identical plaintext blocks")
	}

	a, _ := Encrypt(msg, key, SymmetricOptions{Mode: ModeCBC})
	b, _ := Encrypt(msg, key, SymmetricOptions{Mode: ModeCBC})
	if bytes.Equal(a, b) {
		t.Fatal("expected fresh IV per CBC encryption")
	}
}

func TestCBCWithSuppliedIV(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 32)
	iv := bytes.Repeat([]byte{0x02}, 16)

	ct, err := Encrypt([]byte("payload"), key, SymmetricOptions{Mode: ModeCBC, IV: iv})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !bytes.Equal(ct[:16], iv) {
		t.Fatal("expected IV prefix")
	}

	if _, err := Encrypt([]byte("payload"), key, SymmetricOptions{Mode: ModeCBC, IV: []byte{1, 2, 3}}); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey for short IV, got %v", err)
	}
}

func TestSymmetricFailures(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 16)
	other := bytes.Repeat([]byte{0x22}, 16)

	if _, err := Encrypt([]byte("x"), []byte("short"), SymmetricOptions{}); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}

	ct, err := Encrypt([]byte("confidential"), key, SymmetricOptions{Mode: ModeECB})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if pt, err := Decrypt(ct, other, SymmetricOptions{Mode: ModeECB}); err == nil && string(pt) == "confidential" {
		t.Fatal("wrong key must not recover plaintext")
	}
	if _, err := Decrypt(ct[:5], key, SymmetricOptions{Mode: ModeECB}); !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption for truncated ciphertext, got %v", err)
	}
	if _, err := Decrypt(ct[:16], key, SymmetricOptions{Mode: ModeCBC}); !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption for IV-only ciphertext, got %v", err)
	}
	if _, err := DecryptString("zz", key, SymmetricOptions{}); !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption for bad hex, got %v", err)
	}
}

func TestErrorsDoNotLeakKeyMaterial(t *testing.T) {
	key := []byte("sixteen-byte-key")
	_, err := Decrypt([]byte("not a real ciphertext..."), key, SymmetricOptions{Mode: ModeECB})
	if err == nil {
		t.Fatal("expected failure")
	}
	if bytes.Contains([]byte(err.Error()), key) {
		t.Fatal("error message contains key bytes")
	}
}

func TestStringCipherRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x33}, 16)
	enc, err := EncryptString("13812345678", key, SymmetricOptions{})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	dec, err := DecryptString(enc, key, SymmetricOptions{})
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if dec != "13812345678" {
		t.Fatalf("unexpected plaintext %q", dec)
	}
}

func TestAsymmetricEncryptAndSign(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	ct, err := EncryptFor([]byte("hello"), kp.Public)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	pt, err := DecryptWith(ct, kp.Private)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(pt) != "hello" {
		t.Fatalf("unexpected plaintext %q", pt)
	}

	ct[len(ct)-1] ^= 0xff
	if _, err := DecryptWith(ct, kp.Private); !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption on tamper, got %v", err)
	}

	other, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	ct2, _ := EncryptFor([]byte("hello"), kp.Public)
	if _, err := DecryptWith(ct2, other.Private); !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption with wrong key, got %v", err)
	}

	sig, err := Sign([]byte("grade sheet"), kp.Private)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !Verify([]byte("grade sheet"), sig, kp.Public) {
		t.Fatal("expected signature to verify")
	}
	if Verify([]byte("grade sheet!"), sig, kp.Public) {
		t.Fatal("expected modified data to fail verification")
	}
	if Verify([]byte("grade sheet"), sig, other.Public) {
		t.Fatal("expected other key to fail verification")
	}
}

func TestKeyHexRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	pubHex, err := PublicKeyHex(kp.Public)
	if err != nil {
		t.Fatalf("public hex: %v", err)
	}
	privHex, err := PrivateKeyHex(kp.Private)
	if err != nil {
		t.Fatalf("private hex: %v", err)
	}

	pub, err := ParsePublicKeyHex(pubHex)
	if err != nil {
		t.Fatalf("parse public: %v", err)
	}
	priv, err := ParsePrivateKeyHex(privHex)
	if err != nil {
		t.Fatalf("parse private: %v", err)
	}

	sig, err := Sign([]byte("x"), priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !Verify([]byte("x"), sig, pub) {
		t.Fatal("expected parsed keys to interoperate")
	}

	if _, err := ParsePublicKeyHex("04abcd"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := ParsePrivateKeyHex("not-hex"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestRandom(t *testing.T) {
	h, err := RandomHex(16)
	if err != nil {
		t.Fatalf("random hex: %v", err)
	}
	if len(h) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(h))
	}

	seen := map[int64]bool{}
	for i := 0; i < 500; i++ {
		v, err := RandomInt(3, 6)
		if err != nil {
			t.Fatalf("random int: %v", err)
		}
		if v < 3 || v > 6 {
			t.Fatalf("value %d out of range", v)
		}
		seen[v] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected every value in [3,6] to appear, saw %v", seen)
	}

	if _, err := RandomInt(5, 4); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if _, err := RandomIndex(0); err == nil {
		t.Fatal("expected error for empty range")
	}

	s := []int{1, 2, 3, 4, 5, 6, 7, 8}
	if err := Shuffle(s); err != nil {
		t.Fatalf("shuffle: %v", err)
	}
	sum := 0
	for _, v := range s {
		sum += v
	}
	if sum != 36 {
		t.Fatalf("shuffle lost elements: %v", s)
	}
}

func TestFingerprint(t *testing.T) {
	a := map[string]any{"id": "2024001", "name": "Li Lei", "score": 90}
	b := map[string]any{"score": 90, "name": "Li Lei", "id": "2024001"}

	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	fb, _ := Fingerprint(b)
	if fa != fb {
		t.Fatal("expected order independent fingerprint")
	}
	if !VerifyFingerprint(b, fa) {
		t.Fatal("expected fingerprint to verify")
	}
	b["score"] = 91
	if VerifyFingerprint(b, fa) {
		t.Fatal("expected modified record to fail verification")
	}
}

func TestFieldCipher(t *testing.T) {
	c, err := NewFieldCipher(bytes.Repeat([]byte{0x55}, 16))
	if err != nil {
		t.Fatalf("new field cipher: %v", err)
	}

	record := map[string]string{"name": "Han Meimei", "phone": "13812345678", "idCard": ""}
	enc, err := c.EncryptFields(record, "phone", "idCard", "missing")
	if err != nil {
		t.Fatalf("encrypt fields: %v", err)
	}
	if enc["phone"] == record["phone"] {
		t.Fatal("expected phone to be encrypted")
	}
	if enc["name"] != record["name"] || enc["idCard"] != "" {
		t.Fatal("expected untouched fields to be preserved")
	}
	if record["phone"] != "13812345678" {
		t.Fatal("input record must not be mutated")
	}

	enc["name"] = "garbage"
	dec, failed := c.DecryptFields(enc, "phone", "name")
	if dec["phone"] != "13812345678" {
		t.Fatalf("unexpected phone %q", dec["phone"])
	}
	if len(failed) != 1 || failed[0].Field != "name" || !errors.Is(failed[0], ErrDecryption) {
		t.Fatalf("expected one name failure, got %v", failed)
	}

	if _, err := NewFieldCipher([]byte("bad")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
