package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"mosaic/cmd/identity"
	"mosaic/cmd/security/password"
	"mosaic/cmd/security/token"
)

// Service implements the high-level session operations for Mosaic.
//
// It registers identities, verifies credentials, issues access/refresh token
// pairs, and performs refresh rotation with reuse detection against the
// allow-list store.
type Service struct {
	cfg    Config
	tokens TokenManager
	users  identity.Store
	allow  Store
	hasher password.Config

	// dummyHash absorbs a bcrypt compare when the email is unknown, so login
	// latency does not reveal whether an account exists.
	dummyHash string
}

// TokenPair is the result of any operation that establishes a session.
type TokenPair struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	ProfileImage *string
}

// ExternalLoginInput carries the already-verified fields of an external
// identity assertion. Verification itself happens upstream; this type must
// only ever be built from a verifier's output.
type ExternalLoginInput struct {
	Email         string
	EmailVerified bool
	ProfileImage  *string
}

// NewService constructs a Service over the given stores and token manager.
func NewService(cfg Config, users identity.Store, allow Store, tokens TokenManager) (*Service, error) {
	if users == nil || allow == nil || tokens == nil {
		return nil, ErrConfig
	}

	s := &Service{
		cfg:    cfg,
		tokens: tokens,
		users:  users,
		allow:  allow,
		hasher: password.FromEnv(),
	}

	if hash, err := s.hasher.Hash("dummy-password-for-timing-only"); err == nil {
		s.dummyHash = hash
	}

	return s, nil
}

// Register creates a new identity and establishes its first session.
//
// Email and password are required; a colliding email or name surfaces as
// identity.ConflictError. Exactly one refresh token is appended to the new
// identity's allow-list.
func (s *Service) Register(ctx context.Context, now time.Time, in RegisterInput) (identity.User, TokenPair, error) {
	email := strings.TrimSpace(in.Email)
	pw := in.Password
	if missing := missingFields(email, pw); len(missing) > 0 {
		return identity.User{}, TokenPair{}, ValidationError{Fields: missing}
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}

	u, err := s.users.CreateUser(ctx, identity.CreateUserInput{
		Email:        email,
		Name:         in.Name,
		PasswordHash: hash,
		ProfileImage: in.ProfileImage,
		Now:          now,
	})
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, now, u.ID)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Login verifies credentials and establishes a new session.
//
// Unknown email and wrong password both return ErrInvalidCredentials after
// comparable work, to resist enumeration and timing probes.
func (s *Service) Login(ctx context.Context, now time.Time, email, pw string) (TokenPair, error) {
	email = strings.TrimSpace(email)
	if missing := missingFields(email, pw); len(missing) > 0 {
		return TokenPair{}, ValidationError{Fields: missing}
	}

	ua, err := s.users.GetUserAuthByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			if s.dummyHash != "" {
				_, _ = password.Verify(pw, s.dummyHash)
			}
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	ok, err := password.Verify(pw, ua.PasswordHash)
	if err != nil || !ok {
		return TokenPair{}, ErrInvalidCredentials
	}

	return s.issuePair(ctx, now, ua.User.ID)
}

// Logout consumes a refresh token, removing it from its owner's allow-list.
//
// A verified token that is no longer in the allow-list is treated as a reuse
// signal: the entire allow-list is cleared and ErrTokenReused is returned, so
// every device of that user must log in again.
func (s *Service) Logout(ctx context.Context, now time.Time, refreshToken string) error {
	claims, err := s.tokens.VerifyRefresh(refreshToken, now)
	if err != nil {
		return ErrInvalidToken
	}

	if _, err := s.users.GetUserByID(ctx, claims.UserID); err != nil {
		if identity.IsNotFound(err) {
			return ErrInvalidToken
		}
		return err
	}

	removed, err := s.allow.Remove(ctx, claims.UserID, hashRefreshToken(refreshToken))
	if err != nil {
		return err
	}
	if !removed {
		if err := s.allow.Clear(ctx, claims.UserID); err != nil {
			return err
		}
		return ErrTokenReused
	}
	return nil
}

// Refresh rotates a refresh token: the consumed digest is atomically replaced
// by the successor's, and a fresh access/refresh pair is returned. Each
// refresh token is therefore single-use; replaying one trips reuse handling
// exactly like Logout.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken, now)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	if _, err := s.users.GetUserByID(ctx, claims.UserID); err != nil {
		if identity.IsNotFound(err) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}

	accessToken, accessExp, err := s.tokens.IssueAccess(claims.UserID, now)
	if err != nil {
		return TokenPair{}, err
	}
	newRefresh, err := s.tokens.IssueRefresh(claims.UserID, now)
	if err != nil {
		return TokenPair{}, err
	}

	err = s.allow.Replace(ctx, claims.UserID, hashRefreshToken(refreshToken), hashRefreshToken(newRefresh), now)
	if errors.Is(err, ErrNotInAllowList) {
		if cerr := s.allow.Clear(ctx, claims.UserID); cerr != nil {
			return TokenPair{}, cerr
		}
		return TokenPair{}, ErrTokenReused
	}
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExp,
		RefreshToken:    newRefresh,
	}, nil
}

// ExternalLogin exchanges a verified external assertion for a local session,
// creating the identity on first sight. Federated identities carry an empty
// password hash and can never log in with a local password.
func (s *Service) ExternalLogin(ctx context.Context, now time.Time, in ExternalLoginInput) (identity.User, TokenPair, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !in.EmailVerified {
		return identity.User{}, TokenPair{}, ErrNoVerifiedEmail
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if identity.IsNotFound(err) {
		u, err = s.users.CreateUser(ctx, identity.CreateUserInput{
			Email:        email,
			Name:         email, // federated identities have no chosen name yet
			PasswordHash: "",
			ProfileImage: in.ProfileImage,
			Now:          now,
		})
	}
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, now, u.ID)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// ValidateAccessToken verifies an access token without a store round-trip.
// Access tokens are self-contained for their short lifetime; only refresh
// tokens are allow-listed.
func (s *Service) ValidateAccessToken(tok string, now time.Time) (Claims, error) {
	return s.tokens.VerifyAccess(tok, now)
}

// issuePair mints an access/refresh pair and appends exactly one refresh
// digest to the user's allow-list.
func (s *Service) issuePair(ctx context.Context, now time.Time, userID string) (TokenPair, error) {
	accessToken, accessExp, err := s.tokens.IssueAccess(userID, now)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := s.tokens.IssueRefresh(userID, now)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.allow.Add(ctx, userID, hashRefreshToken(refreshToken), now); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExp,
		RefreshToken:    refreshToken,
	}, nil
}

// hashRefreshToken is the digest stored in the allow-list. The signed token
// itself is never persisted.
func hashRefreshToken(s string) string {
	return token.HashRefreshTokenHex(s)
}

func missingFields(email, pw string) []string {
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if pw == "" {
		missing = append(missing, "password")
	}
	return missing
}
