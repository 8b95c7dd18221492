package ports

import (
	"context"
	"io"

	"github.com/kscst/training-portal/internal/core/domain"
)

// MaterialUpload is the multipart payload for creating or replacing a
// training material. Content may be nil on update to keep the existing file.
type MaterialUpload struct {
	Title       string
	FileName    string
	ContentType string
	Content     io.Reader
}

// AuthAPI covers the unauthenticated backend endpoints.
type AuthAPI interface {
	RegisterTrainee(ctx context.Context, in domain.TraineeRegistration) (string, error)
	RegisterTrainer(ctx context.Context, in domain.TrainerRegistration) (string, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.Identity, error)
}

// AdminAPI covers the /admin endpoints.
type AdminAPI interface {
	ListTrainees(ctx context.Context, creds *domain.Credentials) ([]domain.Trainee, error)
	ListTrainers(ctx context.Context, creds *domain.Credentials) ([]domain.Trainer, error)
	ListApprovedTrainers(ctx context.Context, creds *domain.Credentials) ([]domain.Trainer, error)
	ListTraineeProgress(ctx context.Context, creds *domain.Credentials) ([]domain.TraineeProgress, error)
	DeleteTrainee(ctx context.Context, id string, creds *domain.Credentials) error
	DeleteTrainer(ctx context.Context, id string, creds *domain.Credentials) error
	ApproveTrainee(ctx context.Context, id, trainerID string, creds *domain.Credentials) error
	RejectTrainee(ctx context.Context, id string, creds *domain.Credentials) error
	ApproveTrainer(ctx context.Context, id string, creds *domain.Credentials) error
	RejectTrainer(ctx context.Context, id string, creds *domain.Credentials) error
	DeployCertificate(ctx context.Context, traineeID string, creds *domain.Credentials) (string, error)
}

// TrainerAPI covers the /trainer endpoints.
type TrainerAPI interface {
	GetTrainerProfile(ctx context.Context, creds *domain.Credentials) (*domain.Trainer, error)
	UpdateTrainerProfile(ctx context.Context, in domain.Trainer, creds *domain.Credentials) (*domain.Trainer, error)
	ListAssignedTrainees(ctx context.Context, creds *domain.Credentials) ([]domain.Trainee, error)
	ListTrainerMaterials(ctx context.Context, creds *domain.Credentials) ([]domain.TrainingMaterial, error)
	UploadMaterial(ctx context.Context, in MaterialUpload, creds *domain.Credentials) (*domain.TrainingMaterial, error)
	UpdateMaterial(ctx context.Context, id string, in MaterialUpload, creds *domain.Credentials) (*domain.TrainingMaterial, error)
	DeleteMaterial(ctx context.Context, id string, creds *domain.Credentials) error
	ListTrainerPlaylists(ctx context.Context, creds *domain.Credentials) ([]domain.Playlist, error)
	CreatePlaylist(ctx context.Context, in domain.Playlist, creds *domain.Credentials) (*domain.Playlist, error)
	UpdatePlaylist(ctx context.Context, id string, in domain.Playlist, creds *domain.Credentials) (*domain.Playlist, error)
	DeletePlaylist(ctx context.Context, id string, creds *domain.Credentials) error
}

// TraineeAPI covers the /trainee endpoints and certificate download.
type TraineeAPI interface {
	GetTraineeProfile(ctx context.Context, creds *domain.Credentials) (*domain.Trainee, error)
	UpdateTraineeProfile(ctx context.Context, in domain.Trainee, creds *domain.Credentials) (*domain.Trainee, error)
	ListTraineeMaterials(ctx context.Context, creds *domain.Credentials) ([]domain.TrainingMaterial, error)
	ListTraineePlaylists(ctx context.Context, creds *domain.Credentials) ([]domain.Playlist, error)
	GetTraineeProgress(ctx context.Context, creds *domain.Credentials) ([]domain.Progress, error)
	MarkMaterialProgress(ctx context.Context, materialID string, creds *domain.Credentials) (*domain.Progress, error)
	MarkVideoProgress(ctx context.Context, in domain.VideoProgress, creds *domain.Credentials) (*domain.Progress, error)
	// GetTraineeCertificate returns (nil, nil) when no certificate has been
	// issued yet.
	GetTraineeCertificate(ctx context.Context, creds *domain.Credentials) (*domain.Certificate, error)
	DownloadCertificate(ctx context.Context, filePath string, creds *domain.Credentials) (io.ReadCloser, string, error)
}

// TrainingAPI is the full backend surface.
type TrainingAPI interface {
	AuthAPI
	AdminAPI
	TrainerAPI
	TraineeAPI
}
