package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is the single generic login failure. It never
	// discloses whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken rejects an unknown, expired or revoked refresh token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// CredentialStore is the persistence the service needs.
type CredentialStore interface {
	FindAdmins(ctx context.Context, username string) ([]Credential, error)
	SaveRefreshToken(ctx context.Context, subject, token string, expiresAt time.Time) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// SessionStore holds live admin sessions.
type SessionStore interface {
	Create(ctx context.Context, username string) (Session, error)
	Get(ctx context.Context, id string) (Session, bool, error)
	Delete(ctx context.Context, id string) error
}

// Service is the admin login gate.
type Service struct {
	creds      CredentialStore
	sessions   SessionStore
	issuer     string
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService wires the auth gateway.
func NewService(creds CredentialStore, sessions SessionStore, issuer, signingKey string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		creds:      creds,
		sessions:   sessions,
		issuer:     issuer,
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Login checks the submitted pair against the admins collection and, on the
// first password match, opens a session and issues a token pair. Store
// failures come back wrapped so handlers can surface a retry prompt instead
// of the generic credential error.
func (s *Service) Login(ctx context.Context, username, password string) (Session, TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, TokenPair{}, ErrInvalidCredentials
	}

	admins, err := s.creds.FindAdmins(ctx, username)
	if err != nil {
		return Session{}, TokenPair{}, fmt.Errorf("admin lookup: %w", err)
	}

	matched := false
	for _, a := range admins {
		if passwordMatches(a.Password, password) {
			matched = true
			break
		}
	}
	if !matched {
		return Session{}, TokenPair{}, ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, username)
	if err != nil {
		return Session{}, TokenPair{}, fmt.Errorf("create session: %w", err)
	}

	tokens, err := Issue(username, sess.ID, s.issuer, s.signingKey, s.accessTTL, s.refreshTTL)
	if err != nil {
		return Session{}, TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.creds.SaveRefreshToken(ctx, username, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		// Rotation bookkeeping only; the login itself stands.
		log.Printf("save refresh token failed: %v", err)
	}
	return sess, tokens, nil
}

// Logout clears the session unconditionally.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// IsAuthenticated reports whether the session is live and flagged.
func (s *Service) IsAuthenticated(ctx context.Context, sessionID string) bool {
	_, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		log.Printf("session read failed: %v", err)
		return false
	}
	return ok
}

// Refresh rotates a token pair. The presented refresh token must be known,
// unexpired, unrevoked, and its session must still be live.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, TokenPair, error) {
	claims, err := Parse(refreshToken, s.signingKey, s.issuer)
	if err != nil {
		return Session{}, TokenPair{}, ErrInvalidToken
	}

	stored, err := s.creds.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return Session{}, TokenPair{}, fmt.Errorf("token lookup: %w", err)
	}
	if stored == nil || stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return Session{}, TokenPair{}, ErrInvalidToken
	}

	sess, ok, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return Session{}, TokenPair{}, fmt.Errorf("session read: %w", err)
	}
	if !ok {
		return Session{}, TokenPair{}, ErrInvalidToken
	}

	if err := s.creds.RevokeRefreshToken(ctx, refreshToken); err != nil {
		log.Printf("revoke refresh token failed: %v", err)
	}

	tokens, err := Issue(sess.Username, sess.ID, s.issuer, s.signingKey, s.accessTTL, s.refreshTTL)
	if err != nil {
		return Session{}, TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.creds.SaveRefreshToken(ctx, sess.Username, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		log.Printf("save refresh token failed: %v", err)
	}
	return sess, tokens, nil
}

// passwordMatches compares a stored credential against the supplied password.
// Stored values are bcrypt hashes where possible; legacy documents hold the
// password verbatim and compare by equality.
func passwordMatches(stored, supplied string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return stored == supplied
}
