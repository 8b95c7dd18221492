package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api/middleware"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
)

// AdminHandler serves the administrator area. Every route sits behind the
// ADMIN guard.
type AdminHandler struct {
	api   ports.AdminAPI
	flash flasher
}

func NewAdminHandler(api ports.AdminAPI, flash ports.FlashStore, log zerolog.Logger) *AdminHandler {
	log = log.With().Str("component", "admin_handler").Logger()
	return &AdminHandler{api: api, flash: flasher{store: flash, log: log}}
}

type adminDashboard struct {
	User             domain.Identity                   `json:"user"`
	Flash            *domain.Flash                     `json:"flash,omitempty"`
	Trainees         Section[[]domain.Trainee]         `json:"trainees"`
	Trainers         Section[[]domain.Trainer]         `json:"trainers"`
	ApprovedTrainers Section[[]domain.Trainer]         `json:"approvedTrainers"`
	Progress         Section[[]domain.TraineeProgress] `json:"progress"`
}

type approveTraineeRequest struct {
	TrainerID string `json:"trainerId" form:"trainerId" validate:"required"`
}

// Dashboard loads every admin section concurrently.
//
// @Summary      Admin dashboard
// @Tags         admin
// @Produce      json
// @Success      200  {object}  adminDashboard
// @Success      303  "Redirect to login or the caller's own dashboard"
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}

	view := adminDashboard{User: middleware.CurrentSession(c).Identity, Flash: h.flash.pop(c)}
	l := newSectionLoader(c.Request().Context(), "admin")
	loadSection(l, "trainees", &view.Trainees, func(ctx context.Context) ([]domain.Trainee, error) {
		return h.api.ListTrainees(ctx, creds)
	})
	loadSection(l, "trainers", &view.Trainers, func(ctx context.Context) ([]domain.Trainer, error) {
		return h.api.ListTrainers(ctx, creds)
	})
	loadSection(l, "approved_trainers", &view.ApprovedTrainers, func(ctx context.Context) ([]domain.Trainer, error) {
		return h.api.ListApprovedTrainers(ctx, creds)
	})
	loadSection(l, "progress", &view.Progress, func(ctx context.Context) ([]domain.TraineeProgress, error) {
		return h.api.ListTraineeProgress(ctx, creds)
	})
	l.wait()

	return c.JSON(http.StatusOK, view)
}

// ApproveTrainee approves a pending trainee and assigns a trainer.
//
// @Summary      Approve a trainee
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Trainee id"
// @Param        body  body      approveTraineeRequest  true  "Assigned trainer"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /admin/trainees/{id}/approve [post]
func (h *AdminHandler) ApproveTrainee(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	var req approveTraineeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	err = h.api.ApproveTrainee(c.Request().Context(), c.Param("id"), req.TrainerID, creds)
	return h.flash.respond(c, "Trainee approved successfully", err)
}

// RejectTrainee rejects a pending trainee.
//
// @Summary      Reject a trainee
// @Tags         admin
// @Produce      json
// @Param        id  path      string  true  "Trainee id"
// @Success      200 {object}  messageResponse
// @Router       /admin/trainees/{id}/reject [post]
func (h *AdminHandler) RejectTrainee(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	err = h.api.RejectTrainee(c.Request().Context(), c.Param("id"), creds)
	return h.flash.respond(c, "Trainee rejected", err)
}

// DeleteTrainee removes a trainee account.
//
// @Summary      Delete a trainee
// @Tags         admin
// @Produce      json
// @Param        id  path      string  true  "Trainee id"
// @Success      200 {object}  messageResponse
// @Router       /admin/trainees/{id} [delete]
func (h *AdminHandler) DeleteTrainee(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	err = h.api.DeleteTrainee(c.Request().Context(), c.Param("id"), creds)
	return h.flash.respond(c, "Trainee deleted successfully", err)
}

// ApproveTrainer approves a pending trainer.
//
// @Summary      Approve a trainer
// @Tags         admin
// @Produce      json
// @Param        id  path      string  true  "Trainer id"
// @Success      200 {object}  messageResponse
// @Router       /admin/trainers/{id}/approve [post]
func (h *AdminHandler) ApproveTrainer(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	err = h.api.ApproveTrainer(c.Request().Context(), c.Param("id"), creds)
	return h.flash.respond(c, "Trainer approved successfully", err)
}

// RejectTrainer rejects a pending trainer.
//
// @Summary      Reject a trainer
// @Tags         admin
// @Produce      json
// @Param        id  path      string  true  "Trainer id"
// @Success      200 {object}  messageResponse
// @Router       /admin/trainers/{id}/reject [post]
func (h *AdminHandler) RejectTrainer(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	err = h.api.RejectTrainer(c.Request().Context(), c.Param("id"), creds)
	return h.flash.respond(c, "Trainer rejected", err)
}

// DeleteTrainer removes a trainer account.
//
// @Summary      Delete a trainer
// @Tags         admin
// @Produce      json
// @Param        id  path      string  true  "Trainer id"
// @Success      200 {object}  messageResponse
// @Router       /admin/trainers/{id} [delete]
func (h *AdminHandler) DeleteTrainer(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	err = h.api.DeleteTrainer(c.Request().Context(), c.Param("id"), creds)
	return h.flash.respond(c, "Trainer deleted successfully", err)
}

// DeployCertificate issues the completion certificate of a trainee.
//
// @Summary      Deploy a certificate
// @Tags         admin
// @Produce      json
// @Param        traineeId  path      string  true  "Trainee id"
// @Success      200        {object}  messageResponse
// @Router       /admin/certificates/{traineeId} [post]
func (h *AdminHandler) DeployCertificate(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	msg, err := h.api.DeployCertificate(c.Request().Context(), c.Param("traineeId"), creds)
	if msg == "" {
		msg = "Certificate deployed successfully"
	}
	return h.flash.respond(c, msg, err)
}
