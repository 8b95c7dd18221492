package handler

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api/middleware"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
	"github.com/kscst/training-portal/internal/core/service"
)

// TraineeHandler serves the trainee area behind the TRAINEE guard.
type TraineeHandler struct {
	api   ports.TraineeAPI
	flash flasher
}

func NewTraineeHandler(api ports.TraineeAPI, flash ports.FlashStore, log zerolog.Logger) *TraineeHandler {
	log = log.With().Str("component", "trainee_handler").Logger()
	return &TraineeHandler{api: api, flash: flasher{store: flash, log: log}}
}

type traineeDashboard struct {
	User        domain.Identity                    `json:"user"`
	Flash       *domain.Flash                      `json:"flash,omitempty"`
	Profile     Section[*domain.Trainee]           `json:"profile"`
	Materials   Section[[]domain.TrainingMaterial] `json:"materials"`
	Playlists   Section[[]domain.Playlist]         `json:"playlists"`
	Progress    Section[[]domain.Progress]         `json:"progress"`
	Certificate Section[*domain.Certificate]       `json:"certificate"`
}

type certificateResponse struct {
	Issued      bool                `json:"issued"`
	Certificate *domain.Certificate `json:"certificate,omitempty"`
}

// Dashboard loads the trainee's profile, materials, playlists, progress and
// certificate concurrently. A missing certificate is not an error.
//
// @Summary      Trainee dashboard
// @Tags         trainee
// @Produce      json
// @Success      200  {object}  traineeDashboard
// @Router       /trainee/dashboard [get]
func (h *TraineeHandler) Dashboard(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}

	view := traineeDashboard{User: middleware.CurrentSession(c).Identity, Flash: h.flash.pop(c)}
	l := newSectionLoader(c.Request().Context(), "trainee")
	loadSection(l, "profile", &view.Profile, func(ctx context.Context) (*domain.Trainee, error) {
		return h.api.GetTraineeProfile(ctx, creds)
	})
	loadSection(l, "materials", &view.Materials, func(ctx context.Context) ([]domain.TrainingMaterial, error) {
		return h.api.ListTraineeMaterials(ctx, creds)
	})
	loadSection(l, "playlists", &view.Playlists, func(ctx context.Context) ([]domain.Playlist, error) {
		return h.api.ListTraineePlaylists(ctx, creds)
	})
	loadSection(l, "progress", &view.Progress, func(ctx context.Context) ([]domain.Progress, error) {
		return h.api.GetTraineeProgress(ctx, creds)
	})
	loadSection(l, "certificate", &view.Certificate, func(ctx context.Context) (*domain.Certificate, error) {
		return h.api.GetTraineeCertificate(ctx, creds)
	})
	l.wait()

	return c.JSON(http.StatusOK, view)
}

// UpdateProfile edits the trainee's own profile.
//
// @Summary      Update trainee profile
// @Tags         trainee
// @Accept       json
// @Produce      json
// @Param        body  body      domain.ProfileUpdate  true  "Changed fields"
// @Success      200   {object}  domain.Trainee
// @Router       /trainee/profile [put]
func (h *TraineeHandler) UpdateProfile(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	var req domain.ProfileUpdate
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := service.UpdateTraineeProfile(c.Request().Context(), h.api, req, creds)
	if err != nil {
		return h.flash.fail(c, err)
	}
	h.flash.push(c, domain.FlashSuccess, "Profile updated successfully")
	return c.JSON(http.StatusOK, p)
}

// CompleteMaterial marks a material as completed.
//
// @Summary      Complete a material
// @Tags         trainee
// @Produce      json
// @Param        id  path      string  true  "Material id"
// @Success      200 {object}  domain.Progress
// @Router       /trainee/materials/{id}/complete [post]
func (h *TraineeHandler) CompleteMaterial(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	p, err := h.api.MarkMaterialProgress(c.Request().Context(), c.Param("id"), creds)
	if err != nil {
		return h.flash.fail(c, err)
	}
	h.flash.push(c, domain.FlashSuccess, "Material marked as completed")
	return c.JSON(http.StatusOK, p)
}

// CompleteVideo marks a playlist video as watched.
//
// @Summary      Complete a video
// @Tags         trainee
// @Accept       json
// @Produce      json
// @Param        body  body      domain.VideoProgress  true  "Playlist and video"
// @Success      200   {object}  domain.Progress
// @Failure      400   {object}  map[string]string
// @Router       /trainee/videos/complete [post]
func (h *TraineeHandler) CompleteVideo(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	var req domain.VideoProgress
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := h.api.MarkVideoProgress(c.Request().Context(), req, creds)
	if err != nil {
		return h.flash.fail(c, err)
	}
	h.flash.push(c, domain.FlashSuccess, "Video marked as watched")
	return c.JSON(http.StatusOK, p)
}

// Certificate reports whether a certificate has been issued.
//
// @Summary      Trainee certificate
// @Tags         trainee
// @Produce      json
// @Success      200  {object}  certificateResponse
// @Router       /trainee/certificate [get]
func (h *TraineeHandler) Certificate(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	cert, err := h.api.GetTraineeCertificate(c.Request().Context(), creds)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, certificateResponse{Issued: cert != nil, Certificate: cert})
}

// DownloadCertificate streams the issued certificate file.
//
// @Summary      Download certificate
// @Tags         trainee
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      404  {object}  map[string]string
// @Router       /trainee/certificate/download [get]
func (h *TraineeHandler) DownloadCertificate(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	cert, err := h.api.GetTraineeCertificate(ctx, creds)
	if err != nil {
		return err
	}
	if cert == nil {
		return echo.NewHTTPError(http.StatusNotFound, "No certificate has been issued yet")
	}

	body, contentType, err := h.api.DownloadCertificate(ctx, cert.FilePath, creds)
	if err != nil {
		return err
	}
	defer body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", path.Base(cert.FilePath)))
	return c.Stream(http.StatusOK, contentType, body)
}
