package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"rollcall/cmd/identity"
)

// jwtClaims is the wire form of Claims: HS256-signed JWT with the subject
// user id, username and a ULID jti.
type jwtClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager implements TokenManager with HMAC-SHA256 signed JWTs under a
// single shared secret.
type JWTManager struct {
	issuer string
	secret []byte
	ttl    time.Duration
}

// NewJWTManager constructs a JWTManager from session config.
func NewJWTManager(cfg Config) (*JWTManager, error) {
	if len(cfg.SecretKey) < 32 || cfg.TokenTTL <= 0 {
		return nil, ErrConfig
	}
	return &JWTManager{
		issuer: cfg.Issuer,
		secret: cfg.SecretKey,
		ttl:    cfg.TokenTTL,
	}, nil
}

// Issue mints a signed token embedding the user identity, an absolute
// expiry, and a fresh ULID token id.
func (m *JWTManager) Issue(user identity.User, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.ttl)

	claims := jwtClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.Username,
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// Verify parses and validates a token as of now.
func (m *JWTManager) Verify(token string, now time.Time) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
		TokenID:  claims.ID,
	}, nil
}
