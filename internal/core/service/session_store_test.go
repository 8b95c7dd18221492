package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
)

type stubSessionRepo struct {
	data    map[string]map[string]string
	loadErr error
	saveErr error
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{data: make(map[string]map[string]string)}
}

func (r *stubSessionRepo) Load(_ context.Context, key string) (map[string]string, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make(map[string]string)
	for k, v := range r.data[key] {
		out[k] = v
	}
	return out, nil
}

func (r *stubSessionRepo) Save(_ context.Context, key string, entries map[string]string) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.data[key] == nil {
		r.data[key] = make(map[string]string)
	}
	for k, v := range entries {
		r.data[key][k] = v
	}
	return nil
}

func (r *stubSessionRepo) Remove(_ context.Context, key string, names ...string) error {
	for _, n := range names {
		delete(r.data[key], n)
	}
	return nil
}

// reverseSealer is a reversible stand-in for the AEAD sealer. Like the real
// one it only opens values sealed with the same associated data.
type reverseSealer struct{}

func (reverseSealer) Seal(p, associated []byte) (string, error) {
	return "sealed:" + string(associated) + ":" + base64.StdEncoding.EncodeToString(p), nil
}

func (reverseSealer) Open(s string, associated []byte) ([]byte, error) {
	prefix := "sealed:" + string(associated) + ":"
	if !strings.HasPrefix(s, prefix) {
		return nil, errors.New("not sealed for this key")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(s, prefix))
}

func TestSessionStore_LoginRestoreRoundTrip(t *testing.T) {
	repo := newStubSessionRepo()
	id := domain.Identity{ID: "t1", Username: "alice", Role: domain.RoleTrainer}
	creds := domain.Credentials{Username: "alice", Password: "secret"}

	store := NewSessionStore(repo, nil, "sid-1", zerolog.Nop())
	if err := store.Login(context.Background(), id, creds); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Simulate a reload: a fresh store over the same repository.
	reloaded := NewSessionStore(repo, nil, "sid-1", zerolog.Nop())
	got := reloaded.Restore(context.Background())
	if got == nil {
		t.Fatalf("expected restored session")
	}
	if got.Identity != id {
		t.Fatalf("identity mismatch: %+v", got.Identity)
	}
	if got.Credentials == nil || *got.Credentials != creds {
		t.Fatalf("credentials mismatch: %+v", got.Credentials)
	}
}

func TestSessionStore_RestoreThenLogoutIsEmpty(t *testing.T) {
	repo := newStubSessionRepo()
	repo.data["sid"] = map[string]string{
		ports.EntryUser:        `{"username":"bob","role":"ADMIN"}`,
		ports.EntryCredentials: `{"username":"bob","password":"pw"}`,
	}

	store := NewSessionStore(repo, nil, "sid", zerolog.Nop())
	if store.Restore(context.Background()) == nil {
		t.Fatalf("expected a restored session")
	}
	store.Logout(context.Background())
	store.Logout(context.Background())

	if store.Current() != nil {
		t.Fatalf("expected empty session after logout")
	}
	if len(repo.data["sid"]) != 0 {
		t.Fatalf("expected persisted entries removed, got %v", repo.data["sid"])
	}
	if NewSessionStore(repo, nil, "sid", zerolog.Nop()).Restore(context.Background()) != nil {
		t.Fatalf("restore after logout must be empty")
	}
}

func TestSessionStore_RestoreMalformedIsEmpty(t *testing.T) {
	cases := map[string]map[string]string{
		"missing credentials": {ports.EntryUser: `{"username":"bob","role":"ADMIN"}`},
		"bad user json":       {ports.EntryUser: `{`, ports.EntryCredentials: `{"username":"bob"}`},
		"bad creds json":      {ports.EntryUser: `{"username":"bob"}`, ports.EntryCredentials: `nope`},
		"null user":           {ports.EntryUser: `null`, ports.EntryCredentials: `{"username":"bob","password":"pw"}`},
		"empty user":          {ports.EntryUser: `{}`, ports.EntryCredentials: `{"username":"bob","password":"pw"}`},
		"no role":             {ports.EntryUser: `{"username":"bob"}`, ports.EntryCredentials: `{"username":"bob","password":"pw"}`},
		"no username":         {ports.EntryUser: `{"role":"ADMIN"}`, ports.EntryCredentials: `{"username":"bob","password":"pw"}`},
	}
	for name, entries := range cases {
		repo := newStubSessionRepo()
		repo.data["k"] = entries
		store := NewSessionStore(repo, nil, "k", zerolog.Nop())
		if got := store.Restore(context.Background()); got != nil {
			t.Fatalf("%s: expected empty session, got %+v", name, got)
		}
	}

	repo := newStubSessionRepo()
	repo.loadErr = errors.New("connection refused")
	if NewSessionStore(repo, nil, "k", zerolog.Nop()).Restore(context.Background()) != nil {
		t.Fatalf("storage failure must yield an empty session")
	}
}

func TestSessionStore_LoginNormalizesRole(t *testing.T) {
	repo := newStubSessionRepo()
	store := NewSessionStore(repo, nil, "k", zerolog.Nop())
	_ = store.Login(context.Background(),
		domain.Identity{Username: "tom", Role: "trainer"},
		domain.Credentials{Username: "tom", Password: "pw"})

	if store.Current().Role() != domain.RoleTrainer {
		t.Fatalf("expected TRAINER, got %q", store.Current().Role())
	}
	if !strings.Contains(repo.data["k"][ports.EntryUser], `"role":"TRAINER"`) {
		t.Fatalf("persisted role not normalized: %s", repo.data["k"][ports.EntryUser])
	}
}

func TestSessionStore_SealsCredentials(t *testing.T) {
	repo := newStubSessionRepo()
	store := NewSessionStore(repo, reverseSealer{}, "k", zerolog.Nop())
	creds := domain.Credentials{Username: "amy", Password: "hunter2"}
	if err := store.Login(context.Background(), domain.Identity{Username: "amy", Role: domain.RoleTrainee}, creds); err != nil {
		t.Fatalf("login: %v", err)
	}

	stored := repo.data["k"][ports.EntryCredentials]
	if strings.Contains(stored, "hunter2") {
		t.Fatalf("password persisted in clear: %s", stored)
	}

	got := NewSessionStore(repo, reverseSealer{}, "k", zerolog.Nop()).Restore(context.Background())
	if got == nil || *got.Credentials != creds {
		t.Fatalf("sealed round trip failed: %+v", got)
	}

	if NewSessionStore(repo, nil, "k", zerolog.Nop()).Restore(context.Background()) != nil {
		t.Fatalf("sealed entry must not decode without the sealer")
	}
}

func TestSessionStore_SealedEntryBoundToKey(t *testing.T) {
	repo := newStubSessionRepo()
	store := NewSessionStore(repo, reverseSealer{}, "victim", zerolog.Nop())
	if err := store.Login(context.Background(), domain.Identity{Username: "amy", Role: domain.RoleAdmin}, domain.Credentials{Username: "amy", Password: "hunter2"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	repo.data["attacker"] = map[string]string{
		ports.EntryUser:        repo.data["victim"][ports.EntryUser],
		ports.EntryCredentials: repo.data["victim"][ports.EntryCredentials],
	}
	if got := NewSessionStore(repo, reverseSealer{}, "attacker", zerolog.Nop()).Restore(context.Background()); got != nil {
		t.Fatalf("credentials copied to another key must not restore: %+v", got)
	}
}

func TestSessionStore_LoginPersistFailure(t *testing.T) {
	repo := newStubSessionRepo()
	repo.saveErr = errors.New("redis down")
	store := NewSessionStore(repo, nil, "k", zerolog.Nop())

	err := store.Login(context.Background(), domain.Identity{Username: "x", Role: domain.RoleAdmin}, domain.Credentials{Username: "x", Password: "y"})
	if err == nil {
		t.Fatalf("expected persistence error")
	}
	if store.Current() == nil {
		t.Fatalf("in-memory session must still be set")
	}
}

func TestSessionManager_OpenBindsKey(t *testing.T) {
	m := NewSessionManager(newStubSessionRepo(), nil, zerolog.Nop())
	s := m.Open("abc")
	if s.Key() != "abc" || s.Current() != nil {
		t.Fatalf("unexpected store: key=%q current=%v", s.Key(), s.Current())
	}
}
