package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
	"github.com/kscst/training-portal/internal/infrastructure/gateway"
	"github.com/kscst/training-portal/internal/infrastructure/memory"
)

// stubAPI serves a fixed set of accounts. Methods not overridden panic on
// the nil embedded interface.
type stubAPI struct {
	ports.TrainingAPI

	roles    map[string]domain.Role
	trainees []domain.Trainee
	cert     *domain.Certificate

	approved  [][2]string
	playlist  *domain.Playlist
	lastCreds *domain.Credentials

	profile     domain.Trainee
	sentProfile *domain.Trainee
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		roles: map[string]domain.Role{
			"root":  domain.RoleAdmin,
			"tess":  domain.RoleTrainer,
			"alice": domain.RoleTrainee,
		},
		trainees: []domain.Trainee{
			{ID: "t1", Username: "alice", Name: "Alice", Skill: "welding", Status: domain.StatusPending},
		},
	}
}

func (s *stubAPI) Login(_ context.Context, creds domain.Credentials) (*domain.Identity, error) {
	role, ok := s.roles[creds.Username]
	if !ok || creds.Password != "secret" {
		return nil, &gateway.Error{Op: "login", Status: 401, Message: "Invalid username or password"}
	}
	return &domain.Identity{ID: "id-" + creds.Username, Username: creds.Username, Role: role}, nil
}

func (s *stubAPI) RegisterTrainee(context.Context, domain.TraineeRegistration) (string, error) {
	return "", nil
}

func (s *stubAPI) ListTrainees(_ context.Context, creds *domain.Credentials) ([]domain.Trainee, error) {
	s.lastCreds = creds
	return s.trainees, nil
}

func (s *stubAPI) ApproveTrainee(_ context.Context, id, trainerID string, _ *domain.Credentials) error {
	s.approved = append(s.approved, [2]string{id, trainerID})
	return nil
}

func (s *stubAPI) CreatePlaylist(_ context.Context, in domain.Playlist, _ *domain.Credentials) (*domain.Playlist, error) {
	s.playlist = &in
	out := in
	out.ID = "p1"
	return &out, nil
}

func (s *stubAPI) GetTraineeCertificate(context.Context, *domain.Credentials) (*domain.Certificate, error) {
	return s.cert, nil
}

func (s *stubAPI) DownloadCertificate(_ context.Context, filePath string, _ *domain.Credentials) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("%PDF-1.4 " + filePath)), "application/pdf", nil
}

func (s *stubAPI) GetTraineeProfile(context.Context, *domain.Credentials) (*domain.Trainee, error) {
	p := s.profile
	return &p, nil
}

func (s *stubAPI) UpdateTraineeProfile(_ context.Context, in domain.Trainee, _ *domain.Credentials) (*domain.Trainee, error) {
	s.sentProfile = &in
	return &in, nil
}

type harness struct {
	api  *stubAPI
	repo ports.SessionRepository
	in   io.Reader
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return &harness{api: newStubAPI(), repo: memory.NewSessionRepository()}
}

func (h *harness) run(args ...string) (string, error) {
	var out bytes.Buffer
	log := zerolog.Nop()
	cmd := NewRootCommand(Options{API: h.api, Repo: h.repo, Log: &log, In: h.in, Out: &out, Err: io.Discard})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLogin_PersistsAcrossInvocations(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("login", "-u", "tess", "-p", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as tess (TRAINER)")
	assert.Contains(t, out, "kscstctl trainer --help")

	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "tess")
	assert.Contains(t, out, "TRAINER")
}

func TestLogin_Failure(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "-u", "tess", "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", err.Error())

	_, err = h.run("whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLogin_MissingPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "-u", "tess")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "password is required")
}

func TestLogin_PasswordStdin(t *testing.T) {
	h := newHarness(t)
	h.in = strings.NewReader("secret\n")

	_, err := h.run("login", "-u", "root", "--password-stdin")
	require.NoError(t, err)

	_, err = h.run("admin", "trainees")
	require.NoError(t, err)
	require.NotNil(t, h.api.lastCreds)
	assert.Equal(t, domain.Credentials{Username: "root", Password: "secret"}, *h.api.lastCreds)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "-u", "root", "-p", "secret")
	require.NoError(t, err)

	out, err := h.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	_, err = h.run("admin", "trainees")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = h.run("logout")
	assert.NoError(t, err, "logout is idempotent")
}

func TestRoleGroups_Guarded(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("admin", "trainees")
	require.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = h.run("login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)

	_, err = h.run("admin", "trainees")
	require.ErrorIs(t, err, ErrWrongRole)
	assert.Contains(t, err.Error(), "kscstctl trainee")
	assert.Nil(t, h.api.lastCreds, "guard must stop the call before the backend")
}

func TestAdminTrainees_Formats(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "-u", "root", "-p", "secret")
	require.NoError(t, err)

	out, err := h.run("admin", "trainees")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "alice")
	assert.Contains(t, lines[1], "PENDING")

	out, err = h.run("admin", "trainees", "-o", "json")
	require.NoError(t, err)
	var got []domain.Trainee
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, h.api.trainees, got)

	out, err = h.run("admin", "trainees", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "username: alice")
	assert.Contains(t, out, "status: PENDING")

	_, err = h.run("admin", "trainees", "-o", "xml")
	assert.Error(t, err)
}

func TestAdminApproveTrainee(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "-u", "root", "-p", "secret")
	require.NoError(t, err)

	_, err = h.run("admin", "approve-trainee", "t1")
	require.ErrorIs(t, err, domain.ErrMissingField)
	assert.Empty(t, h.api.approved)

	out, err := h.run("admin", "approve-trainee", "t1", "--trainer", "tr9")
	require.NoError(t, err)
	assert.Contains(t, out, "Trainee approved successfully")
	assert.Equal(t, [][2]string{{"t1", "tr9"}}, h.api.approved)
}

func TestRegisterTrainee_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("register", "trainee",
		"--username", "bob", "--password", "secret1", "--name", "Bob",
		"--email", "not-an-email", "--phone", "1", "--skill", "s", "--location", "l")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "email must be a valid email")

	out, err := h.run("register", "trainee",
		"--username", "bob", "--password", "secret1", "--name", "Bob",
		"--email", "bob@example.com", "--phone", "1", "--skill", "s", "--location", "l")
	require.NoError(t, err)
	assert.Contains(t, out, "Wait for admin approval")
}

func TestTrainerCreatePlaylist_KeepsVideoOrder(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "-u", "tess", "-p", "secret")
	require.NoError(t, err)

	_, err = h.run("trainer", "create-playlist", "--title", "Basics", "--skill", "welding",
		"--video", "Intro=https://videos.example.com/watch?v=1",
		"--video", "Arc=https://videos.example.com/watch?v=2")
	require.NoError(t, err)
	require.NotNil(t, h.api.playlist)
	assert.Equal(t, []domain.Video{
		{Name: "Intro", URL: "https://videos.example.com/watch?v=1"},
		{Name: "Arc", URL: "https://videos.example.com/watch?v=2"},
	}, h.api.playlist.Videos)

	_, err = h.run("trainer", "create-playlist", "--title", "x", "--skill", "y", "--video", "no-url")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTrainerUploadMaterial_RejectsType(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "-u", "tess", "-p", "secret")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err = h.run("trainer", "upload-material", "--title", "Notes", "-f", path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestTraineeDownloadCertificate(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)

	_, err = h.run("trainee", "download-certificate")
	require.ErrorIs(t, err, ErrNoCertificate)

	now := time.Now()
	h.api.cert = &domain.Certificate{ID: "c1", FilePath: "/certs/alice.pdf", IssuedAt: &now}
	dir := t.TempDir()

	out, err := h.run("trainee", "download-certificate", "-f", dir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "alice.pdf"))

	data, err := os.ReadFile(filepath.Join(dir, "alice.pdf"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestSessionFile_SealedCredentials(t *testing.T) {
	h := newHarness(t)
	h.repo = nil
	file := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("KSCST_SESSION_FILE", file)
	t.Setenv("KSCST_CREDENTIAL_KEY", "a credential key for tests")

	_, err := h.run("login", "-u", "root", "-p", "secret")
	require.NoError(t, err)

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "root")
	assert.NotContains(t, string(raw), `\"password\"`)

	_, err = h.run("admin", "trainees")
	require.NoError(t, err)
	require.NotNil(t, h.api.lastCreds)
	assert.Equal(t, "secret", h.api.lastCreds.Password)

	t.Setenv("KSCST_CREDENTIAL_KEY", "a different key entirely")
	_, err = h.run("admin", "trainees")
	assert.ErrorIs(t, err, ErrNotLoggedIn, "a session sealed with another key is discarded")
}

func TestProfiles_AreIndependent(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "-u", "root", "-p", "secret", "--profile", "ops")
	require.NoError(t, err)

	_, err = h.run("whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	out, err := h.run("whoami", "--profile", "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "root")
}

func TestTraineeUpdateProfile_SendsMergedRecord(t *testing.T) {
	h := newHarness(t)
	h.api.profile = domain.Trainee{
		ID: "t1", Username: "alice", Name: "Alice", Email: "alice@example.com",
		Phone: "555-0100", Skill: "welding", Location: "Mysuru",
	}
	_, err := h.run("login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)

	_, err = h.run("trainee", "update-profile", "--skill", "plumbing")
	require.NoError(t, err)
	require.NotNil(t, h.api.sentProfile)
	assert.Equal(t, domain.Trainee{
		ID: "t1", Username: "alice", Name: "Alice", Email: "alice@example.com",
		Phone: "555-0100", Skill: "plumbing", Location: "Mysuru",
	}, *h.api.sentProfile)

	_, err = h.run("trainee", "update-profile", "--password", "hunter22")
	require.Error(t, err, "profile updates cannot change the password")
}

func TestWhoami_UnknownRoleIsNotASession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.repo.Save(context.Background(), "default", map[string]string{
		ports.EntryUser:        `{"username":"eve","role":"WIZARD"}`,
		ports.EntryCredentials: `{"username":"eve","password":"pw"}`,
	}))

	_, err := h.run("whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
