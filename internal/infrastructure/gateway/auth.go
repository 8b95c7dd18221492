package gateway

import (
	"context"
	"net/http"

	"github.com/kscst/training-portal/internal/core/domain"
)

type loginResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	// Some deployments wrap the identity in a "user" object.
	User *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user,omitempty"`
}

// RegisterTrainee creates a pending trainee account and returns the
// backend's confirmation text.
func (c *Client) RegisterTrainee(ctx context.Context, in domain.TraineeRegistration) (string, error) {
	body, err := c.do(ctx, call{
		op: "register_trainee", method: http.MethodPost, path: "/auth/trainee/register",
		body: in, fallback: "Failed to register trainee",
	})
	if err != nil {
		return "", err
	}
	return decodeText(body), nil
}

// RegisterTrainer creates a pending trainer account and returns the
// backend's confirmation text.
func (c *Client) RegisterTrainer(ctx context.Context, in domain.TrainerRegistration) (string, error) {
	body, err := c.do(ctx, call{
		op: "register_trainer", method: http.MethodPost, path: "/auth/trainer/register",
		body: in, fallback: "Failed to register trainer",
	})
	if err != nil {
		return "", err
	}
	return decodeText(body), nil
}

// Login checks creds against the backend and returns the identity with a
// normalized role. A response without a role is rejected.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	body, err := c.do(ctx, call{
		op: "login", method: http.MethodPost, path: "/auth/login",
		body: creds, fallback: "Failed to login",
	})
	if err != nil {
		return nil, err
	}

	resp, err := decodeOne[loginResponse](c, "login", body)
	if err != nil {
		return nil, err
	}

	id := domain.Identity{ID: resp.ID, Username: resp.Username, Role: domain.NormalizeRole(resp.Role)}
	if resp.User != nil {
		id = domain.Identity{ID: resp.User.ID, Username: resp.User.Username, Role: domain.NormalizeRole(resp.User.Role)}
		if id.Role == "" {
			id.Role = domain.NormalizeRole(resp.Role)
		}
	}
	if id.Role == "" {
		return nil, &Error{Op: "login", Status: http.StatusBadGateway, Message: domain.ErrRoleMissing.Error(), Err: domain.ErrRoleMissing}
	}
	if id.Username == "" {
		id.Username = creds.Username
	}
	return &id, nil
}
