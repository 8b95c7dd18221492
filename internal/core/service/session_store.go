package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
)

var errIncompleteUser = errors.New("user entry has no username or role")

// SessionStore is the single source of truth for who is logged in under one
// session key. It keeps the session in memory and mirrors it to a
// SessionRepository so it survives restarts and page reloads.
type SessionStore struct {
	repo   ports.SessionRepository
	sealer ports.CredentialSealer
	key    string
	log    zerolog.Logger

	mu      sync.RWMutex
	current *domain.Session
}

// NewSessionStore binds a store to key. sealer may be nil, in which case the
// credentials entry is persisted as plain JSON.
func NewSessionStore(repo ports.SessionRepository, sealer ports.CredentialSealer, key string, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		repo:   repo,
		sealer: sealer,
		key:    key,
		log:    log.With().Str("component", "session_store").Logger(),
	}
}

// Key returns the session key the store is bound to.
func (s *SessionStore) Key() string { return s.key }

// Current returns a copy of the session, or nil when nobody is logged in.
func (s *SessionStore) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Restore loads the persisted session. It never fails: unreadable storage or
// malformed entries leave the store empty.
func (s *SessionStore) Restore(ctx context.Context) *domain.Session {
	sess, err := s.load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("session_key", s.key).Msg("discarding persisted session")
		sess = nil
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	return sess.Clone()
}

func (s *SessionStore) load(ctx context.Context) (*domain.Session, error) {
	entries, err := s.repo.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	rawUser, rawCreds := entries[ports.EntryUser], entries[ports.EntryCredentials]
	if rawUser == "" || rawCreds == "" {
		return nil, nil
	}

	var identity domain.Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		return nil, fmt.Errorf("decode %s entry: %w", ports.EntryUser, err)
	}
	identity.Role = domain.NormalizeRole(string(identity.Role))
	if strings.TrimSpace(identity.Username) == "" || identity.Role == "" {
		return nil, errIncompleteUser
	}

	credJSON := []byte(rawCreds)
	if s.sealer != nil {
		credJSON, err = s.sealer.Open(rawCreds, []byte(s.key))
		if err != nil {
			return nil, fmt.Errorf("open %s entry: %w", ports.EntryCredentials, err)
		}
	}

	var creds domain.Credentials
	if err := json.Unmarshal(credJSON, &creds); err != nil {
		return nil, fmt.Errorf("decode %s entry: %w", ports.EntryCredentials, err)
	}

	return &domain.Session{Identity: identity, Credentials: &creds}, nil
}

// Login replaces the session and persists both entries. The in-memory session
// is set even when persisting fails; the returned error reports that the
// session will not survive a restart.
func (s *SessionStore) Login(ctx context.Context, identity domain.Identity, creds domain.Credentials) error {
	identity.Role = domain.NormalizeRole(string(identity.Role))

	s.mu.Lock()
	s.current = &domain.Session{Identity: identity, Credentials: &creds}
	s.mu.Unlock()

	userJSON, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", ports.EntryUser, err)
	}
	credJSON, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", ports.EntryCredentials, err)
	}

	credEntry := string(credJSON)
	if s.sealer != nil {
		credEntry, err = s.sealer.Seal(credJSON, []byte(s.key))
		if err != nil {
			return fmt.Errorf("seal %s entry: %w", ports.EntryCredentials, err)
		}
	}

	if err := s.repo.Save(ctx, s.key, map[string]string{
		ports.EntryUser:        string(userJSON),
		ports.EntryCredentials: credEntry,
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.log.Debug().
		Str("session_key", s.key).
		Str("username", identity.Username).
		Str("role", identity.Role.String()).
		Msg("logged in")
	return nil
}

// Logout clears the session and its persisted entries. It is idempotent;
// storage failures are logged and otherwise ignored.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.repo.Remove(ctx, s.key, ports.EntryUser, ports.EntryCredentials); err != nil {
		s.log.Warn().Err(err).Str("session_key", s.key).Msg("failed to remove persisted session")
		return
	}
	s.log.Debug().Str("session_key", s.key).Msg("logged out")
}

// SessionManager opens SessionStores over a shared repository and sealer.
type SessionManager struct {
	repo   ports.SessionRepository
	sealer ports.CredentialSealer
	log    zerolog.Logger
}

func NewSessionManager(repo ports.SessionRepository, sealer ports.CredentialSealer, log zerolog.Logger) *SessionManager {
	return &SessionManager{repo: repo, sealer: sealer, log: log}
}

// Open returns an empty store bound to key; call Restore to load it.
func (m *SessionManager) Open(key string) *SessionStore {
	return NewSessionStore(m.repo, m.sealer, key, m.log)
}
