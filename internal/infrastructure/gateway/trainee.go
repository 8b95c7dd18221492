package gateway

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/kscst/training-portal/internal/core/domain"
)

func (c *Client) GetTraineeProfile(ctx context.Context, creds *domain.Credentials) (*domain.Trainee, error) {
	body, err := c.do(ctx, call{op: "get_trainee_profile", method: http.MethodGet, path: "/trainee/profile", creds: creds, fallback: "Failed to fetch profile"})
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Trainee](c, "get_trainee_profile", body)
}

// UpdateTraineeProfile replaces the editable fields of the trainee's profile
// with those of in.
func (c *Client) UpdateTraineeProfile(ctx context.Context, in domain.Trainee, creds *domain.Credentials) (*domain.Trainee, error) {
	body, err := c.do(ctx, call{op: "update_trainee_profile", method: http.MethodPut, path: "/trainee/profile", body: in, creds: creds, fallback: "Failed to update profile"})
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Trainee](c, "update_trainee_profile", body)
}

func (c *Client) ListTraineeMaterials(ctx context.Context, creds *domain.Credentials) ([]domain.TrainingMaterial, error) {
	body, err := c.do(ctx, call{op: "list_trainee_materials", method: http.MethodGet, path: "/trainee/materials", creds: creds, fallback: "Failed to fetch materials"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.TrainingMaterial](c, "list_trainee_materials", body)
}

func (c *Client) ListTraineePlaylists(ctx context.Context, creds *domain.Credentials) ([]domain.Playlist, error) {
	body, err := c.do(ctx, call{op: "list_trainee_playlists", method: http.MethodGet, path: "/trainee/playlists", creds: creds, fallback: "Failed to fetch playlists"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Playlist](c, "list_trainee_playlists", body)
}

func (c *Client) GetTraineeProgress(ctx context.Context, creds *domain.Credentials) ([]domain.Progress, error) {
	body, err := c.do(ctx, call{op: "get_trainee_progress", method: http.MethodGet, path: "/trainee/progress", creds: creds, fallback: "Failed to fetch progress"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Progress](c, "get_trainee_progress", body)
}

// MarkMaterialProgress records a material as completed. Marking an already
// completed material returns the existing record.
func (c *Client) MarkMaterialProgress(ctx context.Context, materialID string, creds *domain.Credentials) (*domain.Progress, error) {
	if err := domain.RequireField("materialId", materialID); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, call{
		op: "mark_material_progress", method: http.MethodPost, path: "/trainee/progress",
		body: map[string]string{"materialId": materialID}, creds: creds, fallback: "Failed to mark progress",
	})
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Progress](c, "mark_material_progress", body)
}

func (c *Client) MarkVideoProgress(ctx context.Context, in domain.VideoProgress, creds *domain.Credentials) (*domain.Progress, error) {
	if err := c.checkRequest(in); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, call{op: "mark_video_progress", method: http.MethodPost, path: "/trainee/video-progress", body: in, creds: creds, fallback: "Failed to mark video progress"})
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Progress](c, "mark_video_progress", body)
}

// GetTraineeCertificate returns the trainee's certificate. A 404 means no
// certificate has been issued yet: it yields (nil, nil) and is not logged.
func (c *Client) GetTraineeCertificate(ctx context.Context, creds *domain.Credentials) (*domain.Certificate, error) {
	body, err := c.do(ctx, call{
		op: "get_trainee_certificate", method: http.MethodGet, path: "/trainee/certificate",
		creds: creds, fallback: "Failed to fetch certificate", quietStatus: http.StatusNotFound,
	})
	if err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return decodeOne[domain.Certificate](c, "get_trainee_certificate", body)
}

// DownloadCertificate streams the certificate file named by filePath. The
// caller must close the returned reader; the second value is its content
// type.
func (c *Client) DownloadCertificate(ctx context.Context, filePath string, creds *domain.Credentials) (io.ReadCloser, string, error) {
	name := path.Base(strings.TrimSpace(filePath))
	if name == "." || name == "/" || name == "" {
		return nil, "", domain.RequireField("filePath", "")
	}

	resp, err := c.send(ctx, call{
		op: "download_certificate", method: http.MethodGet, path: "/certificates/" + url.PathEscape(name),
		creds: creds, fallback: "Failed to download certificate", accept: "*/*",
	})
	if err != nil {
		return nil, "", err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/pdf"
	}
	return resp.Body, ct, nil
}
