package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kscst/training-portal/internal/core/domain"
)

func (c *Client) ListTrainees(ctx context.Context, creds *domain.Credentials) ([]domain.Trainee, error) {
	body, err := c.do(ctx, call{op: "list_trainees", method: http.MethodGet, path: "/admin/trainees", creds: creds, fallback: "Failed to fetch trainees"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Trainee](c, "list_trainees", body)
}

func (c *Client) ListTrainers(ctx context.Context, creds *domain.Credentials) ([]domain.Trainer, error) {
	body, err := c.do(ctx, call{op: "list_trainers", method: http.MethodGet, path: "/admin/trainers", creds: creds, fallback: "Failed to fetch trainers"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Trainer](c, "list_trainers", body)
}

func (c *Client) ListApprovedTrainers(ctx context.Context, creds *domain.Credentials) ([]domain.Trainer, error) {
	body, err := c.do(ctx, call{op: "list_approved_trainers", method: http.MethodGet, path: "/admin/trainers/approved", creds: creds, fallback: "Failed to fetch approved trainers"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Trainer](c, "list_approved_trainers", body)
}

func (c *Client) ListTraineeProgress(ctx context.Context, creds *domain.Credentials) ([]domain.TraineeProgress, error) {
	body, err := c.do(ctx, call{op: "list_trainee_progress", method: http.MethodGet, path: "/admin/progress", creds: creds, fallback: "Failed to fetch trainee progress"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.TraineeProgress](c, "list_trainee_progress", body)
}

func (c *Client) DeleteTrainee(ctx context.Context, id string, creds *domain.Credentials) error {
	_, err := c.do(ctx, call{op: "delete_trainee", method: http.MethodDelete, path: "/admin/trainee/" + url.PathEscape(id), creds: creds, fallback: "Failed to delete trainee"})
	return err
}

func (c *Client) DeleteTrainer(ctx context.Context, id string, creds *domain.Credentials) error {
	_, err := c.do(ctx, call{op: "delete_trainer", method: http.MethodDelete, path: "/admin/trainer/" + url.PathEscape(id), creds: creds, fallback: "Failed to delete trainer"})
	return err
}

// ApproveTrainee approves a pending trainee and assigns them to trainerID.
func (c *Client) ApproveTrainee(ctx context.Context, id, trainerID string, creds *domain.Credentials) error {
	if err := domain.RequireField("trainerId", trainerID); err != nil {
		return err
	}
	_, err := c.do(ctx, call{
		op: "approve_trainee", method: http.MethodPut, path: "/admin/trainee/approve/" + url.PathEscape(id),
		body: map[string]string{"trainerId": trainerID}, creds: creds, fallback: "Failed to approve trainee",
	})
	return err
}

func (c *Client) RejectTrainee(ctx context.Context, id string, creds *domain.Credentials) error {
	_, err := c.do(ctx, call{op: "reject_trainee", method: http.MethodPut, path: "/admin/trainee/reject/" + url.PathEscape(id), body: struct{}{}, creds: creds, fallback: "Failed to reject trainee"})
	return err
}

func (c *Client) ApproveTrainer(ctx context.Context, id string, creds *domain.Credentials) error {
	_, err := c.do(ctx, call{op: "approve_trainer", method: http.MethodPut, path: "/admin/trainer/approve/" + url.PathEscape(id), body: struct{}{}, creds: creds, fallback: "Failed to approve trainer"})
	return err
}

func (c *Client) RejectTrainer(ctx context.Context, id string, creds *domain.Credentials) error {
	_, err := c.do(ctx, call{op: "reject_trainer", method: http.MethodPut, path: "/admin/trainer/reject/" + url.PathEscape(id), body: struct{}{}, creds: creds, fallback: "Failed to reject trainer"})
	return err
}

// DeployCertificate issues the completion certificate of a trainee and
// returns the backend's confirmation text. The backend refuses trainees that
// are not approved, already certified, or have items left.
func (c *Client) DeployCertificate(ctx context.Context, traineeID string, creds *domain.Credentials) (string, error) {
	body, err := c.do(ctx, call{op: "deploy_certificate", method: http.MethodPost, path: "/admin/certificate/" + url.PathEscape(traineeID), body: struct{}{}, creds: creds, fallback: "Failed to deploy certificate"})
	if err != nil {
		return "", err
	}
	return decodeText(body), nil
}
