package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type mockCreds struct {
	admins  []Credential
	tokens  map[string]RefreshToken
	findErr error
}

func (m *mockCreds) FindAdmins(_ context.Context, username string) ([]Credential, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []Credential
	for _, a := range m.admins {
		if a.Username == username {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockCreds) SaveRefreshToken(_ context.Context, subject, token string, expiresAt time.Time) error {
	if m.tokens == nil {
		m.tokens = make(map[string]RefreshToken)
	}
	m.tokens[token] = RefreshToken{Subject: subject, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (m *mockCreds) FindRefreshToken(_ context.Context, token string) (*RefreshToken, error) {
	rt, ok := m.tokens[token]
	if !ok {
		return nil, nil
	}
	return &rt, nil
}

func (m *mockCreds) RevokeRefreshToken(_ context.Context, token string) error {
	rt, ok := m.tokens[token]
	if ok {
		rt.Revoked = true
		m.tokens[token] = rt
	}
	return nil
}

type mockSessions struct {
	live map[string]Session
}

func (m *mockSessions) Create(_ context.Context, username string) (Session, error) {
	if m.live == nil {
		m.live = make(map[string]Session)
	}
	sess := Session{ID: "sess" + strconv.Itoa(len(m.live)+1), Username: username}
	m.live[sess.ID] = sess
	return sess, nil
}

func (m *mockSessions) Get(_ context.Context, id string) (Session, bool, error) {
	sess, ok := m.live[id]
	return sess, ok, nil
}

func (m *mockSessions) Delete(_ context.Context, id string) error {
	delete(m.live, id)
	return nil
}

func newTestService(creds *mockCreds, sessions *mockSessions) *Service {
	return NewService(creds, sessions, "rollcall-test", "test-signing-key", 15*time.Minute, time.Hour)
}

func TestLoginSuccess(t *testing.T) {
	creds := &mockCreds{admins: []Credential{{Username: "admin", Password: "secret"}}}
	sessions := &mockSessions{}
	svc := newTestService(creds, sessions)

	sess, tokens, err := svc.Login(context.Background(), " admin ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Username != "admin" {
		t.Errorf("session username = %q, want admin", sess.Username)
	}
	if !svc.IsAuthenticated(context.Background(), sess.ID) {
		t.Error("session not authenticated after login")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("missing tokens after login")
	}

	claims, err := Parse(tokens.AccessToken, "test-signing-key", "rollcall-test")
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.SessionID != sess.ID {
		t.Errorf("token session = %q, want %q", claims.SessionID, sess.ID)
	}
}

func TestLoginWrongPasswordLeavesSessionsUntouched(t *testing.T) {
	creds := &mockCreds{admins: []Credential{{Username: "admin", Password: "secret"}}}
	sessions := &mockSessions{}
	svc := newTestService(creds, sessions)

	_, _, err := svc.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if len(sessions.live) != 0 {
		t.Errorf("sessions created on failed login: %d", len(sessions.live))
	}
}

func TestLoginUnknownUserSameGenericError(t *testing.T) {
	svc := newTestService(&mockCreds{}, &mockSessions{})

	_, _, err := svc.Login(context.Background(), "nobody", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want the generic ErrInvalidCredentials", err)
	}
}

func TestLoginTransientStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newTestService(&mockCreds{findErr: boom}, &mockSessions{})

	_, _, err := svc.Login(context.Background(), "admin", "secret")
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("store failure must not read as bad credentials")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}

func TestLoginBcryptCredential(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}
	creds := &mockCreds{admins: []Credential{{Username: "admin", Password: string(hash)}}}
	svc := newTestService(creds, &mockSessions{})

	if _, _, err := svc.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("bcrypt login: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	creds := &mockCreds{admins: []Credential{{Username: "admin", Password: "secret"}}}
	sessions := &mockSessions{}
	svc := newTestService(creds, sessions)

	sess, _, err := svc.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(context.Background(), sess.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if svc.IsAuthenticated(context.Background(), sess.ID) {
		t.Error("session still authenticated after logout")
	}
	// Logging out again is still fine.
	if err := svc.Logout(context.Background(), sess.ID); err != nil {
		t.Errorf("repeat Logout: %v", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	creds := &mockCreds{admins: []Credential{{Username: "admin", Password: "secret"}}}
	sessions := &mockSessions{}
	svc := newTestService(creds, sessions)

	sess, tokens, err := svc.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	gotSess, rotated, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if gotSess.ID != sess.ID {
		t.Errorf("refresh session = %q, want %q", gotSess.ID, sess.ID)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh token not rotated")
	}

	// The old token is revoked and cannot be replayed.
	if _, _, err := svc.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("replay err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshRejectsLoggedOutSession(t *testing.T) {
	creds := &mockCreds{admins: []Credential{{Username: "admin", Password: "secret"}}}
	sessions := &mockSessions{}
	svc := newTestService(creds, sessions)

	sess, tokens, err := svc.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(context.Background(), sess.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, _, err := svc.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken after logout", err)
	}
}
