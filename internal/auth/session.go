package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store keeps sessions server-side. Expired sessions behave as missing.
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (Session, error)
	Get(ctx context.Context, id uuid.UUID) (Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Manager ties the cookie token to a stored session.
type Manager struct {
	signer *Signer
	store  Store
	ttl    time.Duration
}

func NewManager(signer *Signer, store Store, ttl time.Duration) *Manager {
	return &Manager{signer: signer, store: store, ttl: ttl}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Login starts a session for userID and returns it with its signed token.
func (m *Manager) Login(ctx context.Context, userID uuid.UUID) (Session, string, error) {
	sess, err := m.store.Create(ctx, userID, m.ttl)
	if err != nil {
		return Session{}, "", err
	}
	token, err := m.signer.GenerateToken(sess.ID.String())
	if err != nil {
		_ = m.store.Delete(ctx, sess.ID)
		return Session{}, "", err
	}
	return sess, token, nil
}

// Resolve returns the live session named by token.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	sid, err := m.signer.ParseToken(token)
	if err != nil {
		return Session{}, ErrSessionNotFound
	}
	id, err := uuid.Parse(sid)
	if err != nil {
		return Session{}, ErrSessionNotFound
	}
	return m.store.Get(ctx, id)
}

// Logout ends the session named by token. Unknown tokens are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	sess, err := m.Resolve(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.store.Delete(ctx, sess.ID)
}
