package service

import (
	"context"

	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
)

// UpdateTraineeProfile fetches the caller's current profile, lays the
// non-empty fields of in over it and sends the full record.
func UpdateTraineeProfile(ctx context.Context, api ports.TraineeAPI, in domain.ProfileUpdate, creds *domain.Credentials) (*domain.Trainee, error) {
	current, err := api.GetTraineeProfile(ctx, creds)
	if err != nil {
		return nil, err
	}
	return api.UpdateTraineeProfile(ctx, in.ApplyToTrainee(*current), creds)
}

// UpdateTrainerProfile is UpdateTraineeProfile for trainers.
func UpdateTrainerProfile(ctx context.Context, api ports.TrainerAPI, in domain.ProfileUpdate, creds *domain.Credentials) (*domain.Trainer, error) {
	current, err := api.GetTrainerProfile(ctx, creds)
	if err != nil {
		return nil, err
	}
	return api.UpdateTrainerProfile(ctx, in.ApplyToTrainer(*current), creds)
}
