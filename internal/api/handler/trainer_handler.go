package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kscst/training-portal/internal/api/middleware"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
	"github.com/kscst/training-portal/internal/core/service"
)

// TrainerHandler serves the trainer area behind the TRAINER guard.
type TrainerHandler struct {
	api   ports.TrainerAPI
	flash flasher
}

func NewTrainerHandler(api ports.TrainerAPI, flash ports.FlashStore, log zerolog.Logger) *TrainerHandler {
	log = log.With().Str("component", "trainer_handler").Logger()
	return &TrainerHandler{api: api, flash: flasher{store: flash, log: log}}
}

type trainerDashboard struct {
	User      domain.Identity                    `json:"user"`
	Flash     *domain.Flash                      `json:"flash,omitempty"`
	Profile   Section[*domain.Trainer]           `json:"profile"`
	Trainees  Section[[]domain.Trainee]          `json:"trainees"`
	Materials Section[[]domain.TrainingMaterial] `json:"materials"`
	Playlists Section[[]domain.Playlist]         `json:"playlists"`
}

// Dashboard loads the trainer's profile, trainees, materials and playlists
// concurrently.
//
// @Summary      Trainer dashboard
// @Tags         trainer
// @Produce      json
// @Success      200  {object}  trainerDashboard
// @Router       /trainer/dashboard [get]
func (h *TrainerHandler) Dashboard(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}

	view := trainerDashboard{User: middleware.CurrentSession(c).Identity, Flash: h.flash.pop(c)}
	l := newSectionLoader(c.Request().Context(), "trainer")
	loadSection(l, "profile", &view.Profile, func(ctx context.Context) (*domain.Trainer, error) {
		return h.api.GetTrainerProfile(ctx, creds)
	})
	loadSection(l, "trainees", &view.Trainees, func(ctx context.Context) ([]domain.Trainee, error) {
		return h.api.ListAssignedTrainees(ctx, creds)
	})
	loadSection(l, "materials", &view.Materials, func(ctx context.Context) ([]domain.TrainingMaterial, error) {
		return h.api.ListTrainerMaterials(ctx, creds)
	})
	loadSection(l, "playlists", &view.Playlists, func(ctx context.Context) ([]domain.Playlist, error) {
		return h.api.ListTrainerPlaylists(ctx, creds)
	})
	l.wait()

	return c.JSON(http.StatusOK, view)
}

// UpdateProfile edits the trainer's own profile.
//
// @Summary      Update trainer profile
// @Tags         trainer
// @Accept       json
// @Produce      json
// @Param        body  body      domain.ProfileUpdate  true  "Changed fields"
// @Success      200   {object}  domain.Trainer
// @Router       /trainer/profile [put]
func (h *TrainerHandler) UpdateProfile(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	var req domain.ProfileUpdate
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := service.UpdateTrainerProfile(c.Request().Context(), h.api, req, creds)
	if err != nil {
		return h.flash.fail(c, err)
	}
	h.flash.push(c, domain.FlashSuccess, "Profile updated successfully")
	return c.JSON(http.StatusOK, p)
}

// UploadMaterial forwards a PDF or MP4 upload to the backend.
//
// @Summary      Upload a training material
// @Tags         trainer
// @Accept       multipart/form-data
// @Produce      json
// @Param        title  formData  string  true  "Material title"
// @Param        file   formData  file    true  "PDF or MP4 file"
// @Success      201    {object}  domain.TrainingMaterial
// @Failure      400    {object}  map[string]string
// @Router       /trainer/materials [post]
func (h *TrainerHandler) UploadMaterial(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	in, closeFile, err := materialForm(c, true)
	if err != nil {
		return err
	}
	defer closeFile()

	m, err := h.api.UploadMaterial(c.Request().Context(), in, creds)
	if err != nil {
		return h.flash.fail(c, err)
	}
	h.flash.push(c, domain.FlashSuccess, "Training material uploaded successfully")
	return c.JSON(http.StatusCreated, m)
}

// UpdateMaterial renames a material and optionally replaces its file.
//
// @Summary      Update a training material
// @Tags         trainer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true   "Material id"
// @Param        title  formData  string  true   "Material title"
// @Param        file   formData  file    false  "Replacement PDF or MP4 file"
// @Success      200    {object}  domain.TrainingMaterial
// @Router       /trainer/materials/{id} [put]
func (h *TrainerHandler) UpdateMaterial(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	in, closeFile, err := materialForm(c, false)
	if err != nil {
		return err
	}
	defer closeFile()

	m, err := h.api.UpdateMaterial(c.Request().Context(), c.Param("id"), in, creds)
	if err != nil {
		return h.flash.fail(c, err)
	}
	h.flash.push(c, domain.FlashSuccess, "Material updated successfully")
	return c.JSON(http.StatusOK, m)
}

// DeleteMaterial removes a material.
//
// @Summary      Delete a training material
// @Tags         trainer
// @Produce      json
// @Param        id  path      string  true  "Material id"
// @Success      200 {object}  messageResponse
// @Router       /trainer/materials/{id} [delete]
func (h *TrainerHandler) DeleteMaterial(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	err = h.api.DeleteMaterial(c.Request().Context(), c.Param("id"), creds)
	return h.flash.respond(c, "Material deleted successfully", err)
}

// CreatePlaylist creates a video playlist.
//
// @Summary      Create a playlist
// @Tags         trainer
// @Accept       json
// @Produce      json
// @Param        body  body      domain.Playlist  true  "Playlist"
// @Success      201   {object}  domain.Playlist
// @Failure      400   {object}  map[string]string
// @Router       /trainer/playlists [post]
func (h *TrainerHandler) CreatePlaylist(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	var req domain.Playlist
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := h.api.CreatePlaylist(c.Request().Context(), req, creds)
	if err != nil {
		return h.flash.fail(c, err)
	}
	h.flash.push(c, domain.FlashSuccess, "Playlist created successfully")
	return c.JSON(http.StatusCreated, p)
}

// UpdatePlaylist replaces a playlist.
//
// @Summary      Update a playlist
// @Tags         trainer
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Playlist id"
// @Param        body  body      domain.Playlist  true  "Playlist"
// @Success      200   {object}  domain.Playlist
// @Router       /trainer/playlists/{id} [put]
func (h *TrainerHandler) UpdatePlaylist(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	var req domain.Playlist
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := h.api.UpdatePlaylist(c.Request().Context(), c.Param("id"), req, creds)
	if err != nil {
		return h.flash.fail(c, err)
	}
	h.flash.push(c, domain.FlashSuccess, "Playlist updated successfully")
	return c.JSON(http.StatusOK, p)
}

// DeletePlaylist removes a playlist.
//
// @Summary      Delete a playlist
// @Tags         trainer
// @Produce      json
// @Param        id  path      string  true  "Playlist id"
// @Success      200 {object}  messageResponse
// @Router       /trainer/playlists/{id} [delete]
func (h *TrainerHandler) DeletePlaylist(c echo.Context) error {
	creds, err := ctxCredentials(c)
	if err != nil {
		return err
	}
	err = h.api.DeletePlaylist(c.Request().Context(), c.Param("id"), creds)
	return h.flash.respond(c, "Playlist deleted successfully", err)
}

// materialForm reads the title and file fields of a material form. The
// returned func closes the uploaded file.
func materialForm(c echo.Context, fileRequired bool) (ports.MaterialUpload, func(), error) {
	noop := func() {}
	in := ports.MaterialUpload{Title: c.FormValue("title")}
	if err := domain.RequireField("title", in.Title); err != nil {
		return in, noop, &ValidationError{Message: "title is required"}
	}

	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) && !fileRequired {
		return in, noop, nil
	}
	if err != nil {
		return in, noop, &ValidationError{Message: "file is required"}
	}

	f, err := fh.Open()
	if err != nil {
		return in, noop, err
	}
	in.FileName = fh.Filename
	in.ContentType = partType(fh)
	in.Content = f
	return in, func() { _ = f.Close() }, nil
}

func partType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get(echo.HeaderContentType); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
