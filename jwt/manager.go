package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goAccess/crypt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
	// MethodES256 signs with the P-256 keys produced by crypt.GenerateKeyPair.
	// PrivateKey and PublicKey hold the crypt hex encodings.
	MethodES256 SigningMethod = "es256"
)

var errUnknownKID = errors.New("unknown kid")

// Config configures a Manager.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	// VerifyKeys maps key IDs to verification keys during key rotation.
	VerifyKeys map[string][]byte
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Subject is the identity a token is issued for.
type Subject struct {
	UserID   string
	Username string
	Role     string
	UnitID   string
}

// Claims is the payload of an identity token.
type Claims struct {
	UID      string `json:"uid"`
	Username string `json:"usr"`
	Role     string `json:"role"`
	UnitID   string `json:"unit,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies identity tokens. Keys are decoded once in
// NewManager; the Manager is immutable and safe for concurrent use.
type Manager struct {
	config  Config
	method  jwt.SigningMethod
	signKey any
	// verifyKey checks tokens when no VerifyKeys are configured.
	verifyKey any
	byKID     map[string]any
}

// NewManager validates cfg, decodes its keys and returns a Manager. A
// Manager without a private key can verify but not issue. When PublicKey
// is empty the verification key is derived from PrivateKey.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg, byKID: make(map[string]any, len(cfg.VerifyKeys))}
	var parsePub func([]byte) (any, error)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a key of at least 32 bytes")
		}
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.PrivateKey
		m.verifyKey = cfg.PrivateKey
		parsePub = func(k []byte) (any, error) {
			if len(k) < 32 {
				return nil, errors.New("hs256 verify key shorter than 32 bytes")
			}
			return k, nil
		}
	case MethodEd25519:
		m.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.signKey = priv
			m.verifyKey = priv.Public()
		}
		parsePub = func(k []byte) (any, error) { return parseEdPublicKey(k) }
	case MethodES256:
		m.method = jwt.SigningMethodES256
		if len(cfg.PrivateKey) > 0 {
			priv, err := crypt.ParsePrivateKeyHex(string(cfg.PrivateKey))
			if err != nil {
				return nil, fmt.Errorf("invalid es256 private key: %w", err)
			}
			m.signKey = priv
			m.verifyKey = &priv.PublicKey
		}
		parsePub = func(k []byte) (any, error) {
			pub, err := crypt.ParsePublicKeyHex(string(k))
			if err != nil {
				return nil, fmt.Errorf("invalid es256 public key: %w", err)
			}
			return pub, nil
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	if len(cfg.PublicKey) > 0 {
		pub, err := parsePub(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		m.verifyKey = pub
	}
	for kid, key := range cfg.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		pub, err := parsePub(key)
		if err != nil {
			return nil, fmt.Errorf("verify key for kid %q: %w", kid, err)
		}
		m.byKID[kid] = pub
	}
	if m.verifyKey == nil && len(m.byKID) == 0 {
		return nil, fmt.Errorf("%s requires a public key or verify key set", cfg.SigningMethod)
	}
	if cfg.KeyID != "" && len(m.byKID) > 0 {
		if _, ok := m.byKID[cfg.KeyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}
	return m, nil
}

// Issue signs a token for sub and returns it with its claims.
func (j *Manager) Issue(sub Subject) (string, *Claims, error) {
	if sub.UserID == "" {
		return "", nil, errors.New("subject user id is empty")
	}
	if j.signKey == nil {
		return "", nil, errors.New("token manager has no signing key")
	}

	now := j.config.Now()
	claims := &Claims{
		UID:      sub.UserID,
		Username: sub.Username,
		Role:     sub.Role,
		UnitID:   sub.UnitID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub.UserID,
			Issuer:    j.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.TTL)),
		},
	}
	if j.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.config.Audience}
	}

	token := jwt.NewWithClaims(j.method, claims)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}
	signed, err := token.SignedString(j.signKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse verifies tokenStr and returns its claims. Expiry is mandatory and
// issuer and audience are checked when configured.
func (j *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithTimeFunc(j.config.Now),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.config.Leeway),
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}
	if j.config.Audience != "" {
		options = append(options, jwt.WithAudience(j.config.Audience))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, j.keyFunc)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UID == "" || claims.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (j *Manager) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if len(j.byKID) > 0 {
		if key, ok := j.byKID[kid]; ok {
			return key, nil
		}
		return nil, errUnknownKID
	}
	if j.config.KeyID != "" && kid != j.config.KeyID {
		return nil, errUnknownKID
	}
	return j.verifyKey, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
