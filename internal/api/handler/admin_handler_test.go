package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/infrastructure/gateway"
)

func TestAdminHandler_Dashboard_SectionFailureIsIsolated(t *testing.T) {
	env := newTestEnv()
	api := &stubAPI{
		listTraineesFn: func(ctx context.Context) ([]domain.Trainee, error) {
			return []domain.Trainee{{ID: "t1", Username: "tina", Status: domain.StatusPending}}, nil
		},
		listTrainersFn: func(ctx context.Context) ([]domain.Trainer, error) {
			return nil, &gateway.Error{Op: "list_trainers", Status: http.StatusInternalServerError, Message: "Failed to fetch trainers"}
		},
	}
	h := NewAdminHandler(api, env.flash, zerolog.Nop())

	c, rec := env.request(http.MethodGet, "/admin/dashboard", "", "")
	env.login(t, c, domain.RoleAdmin)

	if err := h.Dashboard(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var view adminDashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(view.Trainees.Data) != 1 || view.Trainees.Error != "" {
		t.Fatalf("trainees section: %+v", view.Trainees)
	}
	if view.Trainers.Error != "Failed to fetch trainers" {
		t.Fatalf("trainers section error = %q", view.Trainers.Error)
	}
	if view.ApprovedTrainers.Error != "" || view.Progress.Error != "" {
		t.Fatalf("unrelated sections must load: %+v %+v", view.ApprovedTrainers, view.Progress)
	}
	if api.lastCreds == nil || api.lastCreds.Username != "user" {
		t.Fatalf("backend must receive session credentials, got %+v", api.lastCreds)
	}
}

func TestAdminHandler_Dashboard_SectionsLoadConcurrently(t *testing.T) {
	env := newTestEnv()
	var inFlight, peak int32
	slow := func() {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}
	api := &stubAPI{
		listTraineesFn: func(ctx context.Context) ([]domain.Trainee, error) { slow(); return nil, nil },
		listTrainersFn: func(ctx context.Context) ([]domain.Trainer, error) { slow(); return nil, nil },
	}
	h := NewAdminHandler(api, env.flash, zerolog.Nop())

	c, _ := env.request(http.MethodGet, "/admin/dashboard", "", "")
	env.login(t, c, domain.RoleAdmin)
	if err := h.Dashboard(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if atomic.LoadInt32(&peak) < 2 {
		t.Fatalf("expected sections to overlap, peak concurrency %d", peak)
	}
}

func TestAdminHandler_ApproveTrainee(t *testing.T) {
	env := newTestEnv()
	var gotID, gotTrainer string
	h := NewAdminHandler(&stubAPI{
		approveTraineeFn: func(ctx context.Context, id, trainerID string) error {
			gotID, gotTrainer = id, trainerID
			return nil
		},
	}, env.flash, zerolog.Nop())

	c, rec := env.request(http.MethodPost, "/admin/trainees/t1/approve", echo.MIMEApplicationJSON, `{"trainerId":"tr9"}`)
	c.SetParamNames("id")
	c.SetParamValues("t1")
	store := env.login(t, c, domain.RoleAdmin)

	if err := h.ApproveTrainee(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || gotID != "t1" || gotTrainer != "tr9" {
		t.Fatalf("unexpected result: code=%d id=%q trainer=%q", rec.Code, gotID, gotTrainer)
	}

	f, _ := env.flash.Pop(context.Background(), store.Key())
	if f == nil || f.Kind != domain.FlashSuccess {
		t.Fatalf("expected success flash, got %+v", f)
	}
}

func TestAdminHandler_ApproveTrainee_RequiresTrainer(t *testing.T) {
	env := newTestEnv()
	h := NewAdminHandler(&stubAPI{
		approveTraineeFn: func(ctx context.Context, id, trainerID string) error {
			t.Fatalf("should not be called")
			return nil
		},
	}, env.flash, zerolog.Nop())

	c, _ := env.request(http.MethodPost, "/admin/trainees/t1/approve", echo.MIMEApplicationJSON, `{}`)
	env.login(t, c, domain.RoleAdmin)

	var ve *ValidationError
	if err := h.ApproveTrainee(c); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAdminHandler_FailureRecordsErrorFlash(t *testing.T) {
	env := newTestEnv()
	backendErr := &gateway.Error{Op: "deploy_certificate", Status: http.StatusBadRequest, Message: "Trainee has not completed all materials"}
	h := NewAdminHandler(&stubAPI{
		deployCertFn: func(ctx context.Context, traineeID string) (string, error) { return "", backendErr },
	}, env.flash, zerolog.Nop())

	c, first := env.request(http.MethodPost, "/admin/certificates/t1", "", "")
	env.login(t, c, domain.RoleAdmin)

	if err := h.DeployCertificate(c); !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}

	// The next dashboard view shows the banner once.
	c, rec := env.request(http.MethodGet, "/admin/dashboard", "", "")
	env.reuse(t, first, c)
	if err := h.Dashboard(c); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	var view adminDashboard
	_ = json.Unmarshal(rec.Body.Bytes(), &view)
	if view.Flash == nil || view.Flash.Kind != domain.FlashError || view.Flash.Message != backendErr.Message {
		t.Fatalf("expected error flash, got %+v", view.Flash)
	}
}

func TestAdminHandler_DeployCertificate_BackendMessage(t *testing.T) {
	env := newTestEnv()
	h := NewAdminHandler(&stubAPI{
		deployCertFn: func(ctx context.Context, traineeID string) (string, error) {
			return "Certificate deployed successfully", nil
		},
	}, env.flash, zerolog.Nop())

	c, rec := env.request(http.MethodPost, "/admin/certificates/t1", "", "")
	env.login(t, c, domain.RoleAdmin)
	if err := h.DeployCertificate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp messageResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "Certificate deployed successfully" {
		t.Fatalf("message = %q", resp.Message)
	}
}
