package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Claims is the minimal identity envelope extracted from a verified token.
type Claims struct {
	UserID  string
	TokenID string
	Issuer  string

	IssuedAt time.Time
	// ExpiresAt is the zero time for refresh tokens issued without an
	// expiration claim.
	ExpiresAt time.Time
}

// TokenManager issues and verifies the access/refresh token pair.
//
// Access and refresh tokens are signed with separate secrets so that a leak
// of one cannot be used to forge the other.
type TokenManager interface {
	IssueAccess(userID string, now time.Time) (token string, exp time.Time, err error)
	IssueRefresh(userID string, now time.Time) (token string, err error)
	VerifyAccess(token string, now time.Time) (Claims, error)
	VerifyRefresh(token string, now time.Time) (Claims, error)
}

type jwtHS256Manager struct {
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	clockSkew     time.Duration
	accessSecret  []byte
	refreshSecret []byte
}

// NewJWTManager builds a TokenManager signing HS256 JWTs per the config.
func NewJWTManager(cfg Config) (TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &jwtHS256Manager{
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		clockSkew:     cfg.ClockSkew,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
	}, nil
}

func (m *jwtHS256Manager) IssueAccess(userID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.accessTTL)
	signed, err := m.sign(userID, now, &exp, m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *jwtHS256Manager) IssueRefresh(userID string, now time.Time) (string, error) {
	var exp *time.Time
	if m.refreshTTL > 0 {
		e := now.Add(m.refreshTTL)
		exp = &e
	}
	return m.sign(userID, now, exp, m.refreshSecret)
}

// sign builds the token payload. The random "jti" is load-bearing: JWT
// timestamps have second granularity, so without it two refresh tokens minted
// for the same user within one second would be byte-identical strings and the
// allow-list could not tell them apart during rotation.
func (m *jwtHS256Manager) sign(userID string, now time.Time, exp *time.Time, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		Issuer:   m.issuer,
		IssuedAt: jwt.NewNumericDate(now),
		ID:       ulid.Make().String(),
	}
	if exp != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*exp)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *jwtHS256Manager) VerifyAccess(token string, now time.Time) (Claims, error) {
	return m.verify(token, now, m.accessSecret)
}

func (m *jwtHS256Manager) VerifyRefresh(token string, now time.Time) (Claims, error) {
	return m.verify(token, now, m.refreshSecret)
}

func (m *jwtHS256Manager) verify(token string, now time.Time, secret []byte) (Claims, error) {
	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(_ *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		UserID:  claims.Subject,
		TokenID: claims.ID,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
