package gateway

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
)

func (c *Client) GetTrainerProfile(ctx context.Context, creds *domain.Credentials) (*domain.Trainer, error) {
	body, err := c.do(ctx, call{op: "get_trainer_profile", method: http.MethodGet, path: "/trainer/profile", creds: creds, fallback: "Failed to fetch trainer profile"})
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Trainer](c, "get_trainer_profile", body)
}

// UpdateTrainerProfile replaces the editable fields of the trainer's profile
// with those of in.
func (c *Client) UpdateTrainerProfile(ctx context.Context, in domain.Trainer, creds *domain.Credentials) (*domain.Trainer, error) {
	body, err := c.do(ctx, call{op: "update_trainer_profile", method: http.MethodPut, path: "/trainer/profile", body: in, creds: creds, fallback: "Failed to update trainer profile"})
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Trainer](c, "update_trainer_profile", body)
}

func (c *Client) ListAssignedTrainees(ctx context.Context, creds *domain.Credentials) ([]domain.Trainee, error) {
	body, err := c.do(ctx, call{op: "list_assigned_trainees", method: http.MethodGet, path: "/trainer/trainees", creds: creds, fallback: "Failed to fetch assigned trainees"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Trainee](c, "list_assigned_trainees", body)
}

func (c *Client) ListTrainerMaterials(ctx context.Context, creds *domain.Credentials) ([]domain.TrainingMaterial, error) {
	body, err := c.do(ctx, call{op: "list_trainer_materials", method: http.MethodGet, path: "/trainer/materials", creds: creds, fallback: "Failed to fetch materials"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.TrainingMaterial](c, "list_trainer_materials", body)
}

// UploadMaterial streams a new PDF or MP4 material as multipart/form-data.
// Title and file are required and the file type is checked before dispatch.
func (c *Client) UploadMaterial(ctx context.Context, in ports.MaterialUpload, creds *domain.Credentials) (*domain.TrainingMaterial, error) {
	if in.Content == nil {
		return nil, fmt.Errorf("%w: file", domain.ErrMissingField)
	}
	in, err := c.checkMaterial(in)
	if err != nil {
		return nil, err
	}

	mc, release := multipartCall("upload_material", http.MethodPost, "/trainer/materials", in, creds, "Failed to upload training material")
	defer release()

	body, err := c.do(ctx, mc)
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.TrainingMaterial](c, "upload_material", body)
}

// UpdateMaterial renames a material and, when in.Content is set, replaces
// its file.
func (c *Client) UpdateMaterial(ctx context.Context, id string, in ports.MaterialUpload, creds *domain.Credentials) (*domain.TrainingMaterial, error) {
	in, err := c.checkMaterial(in)
	if err != nil {
		return nil, err
	}

	mc, release := multipartCall("update_material", http.MethodPut, "/trainer/materials/"+url.PathEscape(id), in, creds, "Failed to update material")
	defer release()

	body, err := c.do(ctx, mc)
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.TrainingMaterial](c, "update_material", body)
}

func (c *Client) DeleteMaterial(ctx context.Context, id string, creds *domain.Credentials) error {
	_, err := c.do(ctx, call{op: "delete_material", method: http.MethodDelete, path: "/trainer/materials/" + url.PathEscape(id), creds: creds, fallback: "Failed to delete material"})
	return err
}

func (c *Client) ListTrainerPlaylists(ctx context.Context, creds *domain.Credentials) ([]domain.Playlist, error) {
	body, err := c.do(ctx, call{op: "list_trainer_playlists", method: http.MethodGet, path: "/trainer/playlists", creds: creds, fallback: "Failed to fetch trainer playlists"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Playlist](c, "list_trainer_playlists", body)
}

func (c *Client) CreatePlaylist(ctx context.Context, in domain.Playlist, creds *domain.Credentials) (*domain.Playlist, error) {
	if err := c.checkRequest(in); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, call{op: "create_playlist", method: http.MethodPost, path: "/trainer/playlists", body: in, creds: creds, fallback: "Failed to create playlist"})
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Playlist](c, "create_playlist", body)
}

func (c *Client) UpdatePlaylist(ctx context.Context, id string, in domain.Playlist, creds *domain.Credentials) (*domain.Playlist, error) {
	if err := c.checkRequest(in); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, call{op: "update_playlist", method: http.MethodPut, path: "/trainer/playlists/" + url.PathEscape(id), body: in, creds: creds, fallback: "Failed to update playlist"})
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Playlist](c, "update_playlist", body)
}

func (c *Client) DeletePlaylist(ctx context.Context, id string, creds *domain.Credentials) error {
	_, err := c.do(ctx, call{op: "delete_playlist", method: http.MethodDelete, path: "/trainer/playlists/" + url.PathEscape(id), creds: creds, fallback: "Failed to delete playlist"})
	return err
}

// checkMaterial validates an upload and returns it with its content type
// reduced to the bare media type the backend expects.
func (c *Client) checkMaterial(in ports.MaterialUpload) (ports.MaterialUpload, error) {
	if err := domain.RequireField("title", in.Title); err != nil {
		return in, err
	}
	if in.Content == nil {
		return in, nil
	}
	ct, err := domain.NormalizeMaterialType(in.ContentType)
	if err != nil {
		return in, err
	}
	in.ContentType = ct
	return in, nil
}

// multipartCall builds a call whose body is produced by a goroutine writing
// the form into a pipe, so large videos are never buffered in memory. The
// returned release func unblocks the writer if the body was not fully read.
func multipartCall(op, method, path string, in ports.MaterialUpload, creds *domain.Credentials, fallback string) (call, func()) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMaterialForm(mw, in)
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	return call{
		op: op, method: method, path: path, creds: creds, fallback: fallback,
		rawBody: pr, contentType: mw.FormDataContentType(),
	}, func() { _ = pr.CloseWithError(io.ErrClosedPipe) }
}

func writeMaterialForm(mw *multipart.Writer, in ports.MaterialUpload) error {
	if err := mw.WriteField("title", in.Title); err != nil {
		return err
	}
	if in.Content == nil {
		return nil
	}

	name := in.FileName
	if name == "" {
		name = "material"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	h.Set("Content-Type", in.ContentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, in.Content)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
