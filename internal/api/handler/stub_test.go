package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api/middleware"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
	"github.com/kscst/training-portal/internal/core/service"
	"github.com/kscst/training-portal/internal/infrastructure/memory"
)

// stubAPI implements ports.TrainingAPI. Unset funcs return zero values.
type stubAPI struct {
	loginFn           func(ctx context.Context, creds domain.Credentials) (*domain.Identity, error)
	registerTraineeFn func(ctx context.Context, in domain.TraineeRegistration) (string, error)

	listTraineesFn   func(ctx context.Context) ([]domain.Trainee, error)
	listTrainersFn   func(ctx context.Context) ([]domain.Trainer, error)
	approveTraineeFn func(ctx context.Context, id, trainerID string) error
	deployCertFn     func(ctx context.Context, traineeID string) (string, error)
	uploadMaterialFn func(ctx context.Context, in ports.MaterialUpload) (*domain.TrainingMaterial, error)
	updateMaterialFn func(ctx context.Context, id string, in ports.MaterialUpload) (*domain.TrainingMaterial, error)
	getCertificateFn func(ctx context.Context) (*domain.Certificate, error)
	downloadCertFn   func(ctx context.Context, filePath string) (io.ReadCloser, string, error)
	markVideoFn      func(ctx context.Context, in domain.VideoProgress) (*domain.Progress, error)
	lastCreds        *domain.Credentials

	// Stored profiles; a zero value falls back to a minimal account.
	trainee     domain.Trainee
	trainer     domain.Trainer
	sentTrainee *domain.Trainee
	sentTrainer *domain.Trainer
}

var _ ports.TrainingAPI = (*stubAPI)(nil)

func (s *stubAPI) RegisterTrainee(ctx context.Context, in domain.TraineeRegistration) (string, error) {
	if s.registerTraineeFn != nil {
		return s.registerTraineeFn(ctx, in)
	}
	return "", nil
}

func (s *stubAPI) RegisterTrainer(context.Context, domain.TrainerRegistration) (string, error) {
	return "Trainer registered successfully", nil
}

func (s *stubAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	return s.loginFn(ctx, creds)
}

func (s *stubAPI) ListTrainees(ctx context.Context, creds *domain.Credentials) ([]domain.Trainee, error) {
	s.lastCreds = creds
	if s.listTraineesFn != nil {
		return s.listTraineesFn(ctx)
	}
	return []domain.Trainee{}, nil
}

func (s *stubAPI) ListTrainers(ctx context.Context, _ *domain.Credentials) ([]domain.Trainer, error) {
	if s.listTrainersFn != nil {
		return s.listTrainersFn(ctx)
	}
	return []domain.Trainer{}, nil
}

func (s *stubAPI) ListApprovedTrainers(context.Context, *domain.Credentials) ([]domain.Trainer, error) {
	return []domain.Trainer{}, nil
}

func (s *stubAPI) ListTraineeProgress(context.Context, *domain.Credentials) ([]domain.TraineeProgress, error) {
	return []domain.TraineeProgress{}, nil
}

func (s *stubAPI) DeleteTrainee(context.Context, string, *domain.Credentials) error { return nil }
func (s *stubAPI) DeleteTrainer(context.Context, string, *domain.Credentials) error { return nil }

func (s *stubAPI) ApproveTrainee(ctx context.Context, id, trainerID string, _ *domain.Credentials) error {
	if s.approveTraineeFn != nil {
		return s.approveTraineeFn(ctx, id, trainerID)
	}
	return nil
}

func (s *stubAPI) RejectTrainee(context.Context, string, *domain.Credentials) error  { return nil }
func (s *stubAPI) ApproveTrainer(context.Context, string, *domain.Credentials) error { return nil }
func (s *stubAPI) RejectTrainer(context.Context, string, *domain.Credentials) error  { return nil }

func (s *stubAPI) DeployCertificate(ctx context.Context, traineeID string, _ *domain.Credentials) (string, error) {
	if s.deployCertFn != nil {
		return s.deployCertFn(ctx, traineeID)
	}
	return "", nil
}

func (s *stubAPI) GetTrainerProfile(context.Context, *domain.Credentials) (*domain.Trainer, error) {
	if s.trainer.ID == "" {
		return &domain.Trainer{ID: "tr1", Username: "tom"}, nil
	}
	p := s.trainer
	return &p, nil
}

func (s *stubAPI) UpdateTrainerProfile(_ context.Context, in domain.Trainer, _ *domain.Credentials) (*domain.Trainer, error) {
	s.sentTrainer = &in
	s.trainer = in
	return &in, nil
}

func (s *stubAPI) ListAssignedTrainees(context.Context, *domain.Credentials) ([]domain.Trainee, error) {
	return []domain.Trainee{}, nil
}

func (s *stubAPI) ListTrainerMaterials(context.Context, *domain.Credentials) ([]domain.TrainingMaterial, error) {
	return []domain.TrainingMaterial{}, nil
}

func (s *stubAPI) UploadMaterial(ctx context.Context, in ports.MaterialUpload, _ *domain.Credentials) (*domain.TrainingMaterial, error) {
	return s.uploadMaterialFn(ctx, in)
}

func (s *stubAPI) UpdateMaterial(ctx context.Context, id string, in ports.MaterialUpload, _ *domain.Credentials) (*domain.TrainingMaterial, error) {
	return s.updateMaterialFn(ctx, id, in)
}

func (s *stubAPI) DeleteMaterial(context.Context, string, *domain.Credentials) error { return nil }

func (s *stubAPI) ListTrainerPlaylists(context.Context, *domain.Credentials) ([]domain.Playlist, error) {
	return []domain.Playlist{}, nil
}

func (s *stubAPI) CreatePlaylist(_ context.Context, in domain.Playlist, _ *domain.Credentials) (*domain.Playlist, error) {
	in.ID = "p1"
	return &in, nil
}

func (s *stubAPI) UpdatePlaylist(_ context.Context, id string, in domain.Playlist, _ *domain.Credentials) (*domain.Playlist, error) {
	in.ID = id
	return &in, nil
}

func (s *stubAPI) DeletePlaylist(context.Context, string, *domain.Credentials) error { return nil }

func (s *stubAPI) GetTraineeProfile(context.Context, *domain.Credentials) (*domain.Trainee, error) {
	if s.trainee.ID == "" {
		return &domain.Trainee{ID: "t1", Username: "tina"}, nil
	}
	p := s.trainee
	return &p, nil
}

func (s *stubAPI) UpdateTraineeProfile(_ context.Context, in domain.Trainee, _ *domain.Credentials) (*domain.Trainee, error) {
	s.sentTrainee = &in
	s.trainee = in
	return &in, nil
}

func (s *stubAPI) ListTraineeMaterials(context.Context, *domain.Credentials) ([]domain.TrainingMaterial, error) {
	return []domain.TrainingMaterial{}, nil
}

func (s *stubAPI) ListTraineePlaylists(context.Context, *domain.Credentials) ([]domain.Playlist, error) {
	return []domain.Playlist{}, nil
}

func (s *stubAPI) GetTraineeProgress(context.Context, *domain.Credentials) ([]domain.Progress, error) {
	return []domain.Progress{}, nil
}

func (s *stubAPI) MarkMaterialProgress(_ context.Context, materialID string, _ *domain.Credentials) (*domain.Progress, error) {
	return &domain.Progress{MaterialID: materialID}, nil
}

func (s *stubAPI) MarkVideoProgress(ctx context.Context, in domain.VideoProgress, _ *domain.Credentials) (*domain.Progress, error) {
	if s.markVideoFn != nil {
		return s.markVideoFn(ctx, in)
	}
	return &domain.Progress{}, nil
}

func (s *stubAPI) GetTraineeCertificate(ctx context.Context, _ *domain.Credentials) (*domain.Certificate, error) {
	if s.getCertificateFn != nil {
		return s.getCertificateFn(ctx)
	}
	return nil, nil
}

func (s *stubAPI) DownloadCertificate(ctx context.Context, filePath string, _ *domain.Credentials) (io.ReadCloser, string, error) {
	return s.downloadCertFn(ctx, filePath)
}

// testEnv bundles an echo instance with in-memory session plumbing.
type testEnv struct {
	e        *echo.Echo
	repo     *memory.SessionRepository
	sessions *middleware.Sessions
	flash    *memory.FlashStore
}

func newTestEnv() *testEnv {
	e := echo.New()
	e.Validator = NewValidator()
	repo := memory.NewSessionRepository()
	mgr := service.NewSessionManager(repo, nil, zerolog.Nop())
	return &testEnv{
		e:        e,
		repo:     repo,
		sessions: middleware.NewSessions(mgr, middleware.SessionOptions{Secret: []byte("test"), TTL: time.Hour}, zerolog.Nop()),
		flash:    memory.NewFlashStore(time.Minute),
	}
}

func (env *testEnv) request(method, target, contentType, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	return env.e.NewContext(req, rec), rec
}

// login binds a logged-in session of role to c.
func (env *testEnv) login(t *testing.T, c echo.Context, role domain.Role) *service.SessionStore {
	t.Helper()
	store, err := env.sessions.Issue(c)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	err = store.Login(context.Background(),
		domain.Identity{ID: "1", Username: "user", Role: role},
		domain.Credentials{Username: "user", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return store
}

// reuse binds an existing store to a fresh request context through its
// cookie, the way a browser's next request would.
func (env *testEnv) reuse(t *testing.T, from *httptest.ResponseRecorder, c echo.Context) {
	t.Helper()
	for _, ck := range from.Result().Cookies() {
		c.Request().AddCookie(ck)
	}
	if err := env.sessions.Middleware()(func(echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("restore session: %v", err)
	}
}
