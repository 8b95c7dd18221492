package domain

import (
	"strings"
	"time"
)

// Account approval states reported by the backend.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Trainee is a learner account.
type Trainee struct {
	ID                string `json:"id" validate:"required"`
	Username          string `json:"username" validate:"required"`
	Name              string `json:"name,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Skill             string `json:"skill,omitempty"`
	Location          string `json:"location,omitempty"`
	Role              string `json:"role,omitempty"`
	Status            string `json:"status,omitempty"`
	AssignedTrainerID string `json:"assignedTrainerId,omitempty"`
}

// Trainer is an instructor account.
type Trainer struct {
	ID        string `json:"id" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Expertise string `json:"expertise,omitempty"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
}

// TrainingMaterial is an uploaded PDF or MP4 owned by a trainer.
type TrainingMaterial struct {
	ID          string `json:"id" validate:"required"`
	TrainerID   string `json:"trainerId,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	FilePath    string `json:"filePath,omitempty"`
	FileType    string `json:"fileType,omitempty"`
}

// Video is a single entry of a playlist.
type Video struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,http_url"`
}

// Playlist is an ordered list of external videos for a skill.
type Playlist struct {
	ID        string  `json:"id,omitempty"`
	TrainerID string  `json:"trainerId,omitempty"`
	Title     string  `json:"title" validate:"required"`
	Skill     string  `json:"skill" validate:"required"`
	Videos    []Video `json:"videos" validate:"dive"`
}

// Progress marks a material or a playlist video as completed by a trainee.
type Progress struct {
	ID          string     `json:"id,omitempty"`
	TraineeID   string     `json:"traineeId,omitempty"`
	MaterialID  string     `json:"materialId,omitempty"`
	PlaylistID  string     `json:"playlistId,omitempty"`
	VideoURL    string     `json:"videoUrl,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ProgressItem is one completed item in the admin progress report.
type ProgressItem struct {
	Type          string     `json:"type,omitempty"`
	Title         string     `json:"title,omitempty"`
	FileType      string     `json:"fileType,omitempty"`
	PlaylistTitle string     `json:"playlistTitle,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// TraineeProgress summarises one approved trainee's completion.
type TraineeProgress struct {
	TraineeID            string         `json:"traineeId" validate:"required"`
	Username             string         `json:"username,omitempty"`
	Name                 string         `json:"name,omitempty"`
	Skill                string         `json:"skill,omitempty"`
	ProgressItems        []ProgressItem `json:"progressItems"`
	CompletedItems       int            `json:"completedItems"`
	TotalItems           int            `json:"totalItems"`
	CompletionPercentage float64        `json:"completionPercentage"`
	HasCertificate       bool           `json:"hasCertificate"`
}

// Complete reports whether every assigned item has been completed.
func (p TraineeProgress) Complete() bool {
	return p.TotalItems > 0 && p.CompletedItems >= p.TotalItems
}

// Certificate is a completion certificate issued by an admin.
type Certificate struct {
	ID        string     `json:"id,omitempty"`
	TraineeID string     `json:"traineeId,omitempty"`
	FilePath  string     `json:"filePath" validate:"required"`
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
}

// TraineeRegistration is the self-registration payload of a trainee.
type TraineeRegistration struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Skill    string `json:"skill" validate:"required"`
	Location string `json:"location" validate:"required"`
}

// TrainerRegistration is the self-registration payload of a trainer.
type TrainerRegistration struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required,min=6"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Expertise string `json:"expertise" validate:"required"`
}

// ProfileUpdate carries the editable profile fields shared by trainers and
// trainees. The backend overwrites every field it is sent, so an update is
// laid over the current profile before dispatch; empty fields keep their
// current value.
type ProfileUpdate struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
	Skill     string `json:"skill,omitempty"`
	Location  string `json:"location,omitempty"`
	Expertise string `json:"expertise,omitempty"`
}

// ApplyToTrainee returns t with the non-empty fields of p laid over it.
func (p ProfileUpdate) ApplyToTrainee(t Trainee) Trainee {
	overlay(&t.Name, p.Name)
	overlay(&t.Email, p.Email)
	overlay(&t.Phone, p.Phone)
	overlay(&t.Skill, p.Skill)
	overlay(&t.Location, p.Location)
	return t
}

// ApplyToTrainer returns t with the non-empty fields of p laid over it.
func (p ProfileUpdate) ApplyToTrainer(t Trainer) Trainer {
	overlay(&t.Name, p.Name)
	overlay(&t.Email, p.Email)
	overlay(&t.Phone, p.Phone)
	overlay(&t.Expertise, p.Expertise)
	return t
}

func overlay(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// VideoProgress identifies a playlist video to mark as watched.
type VideoProgress struct {
	PlaylistID string `json:"playlistId" validate:"required"`
	VideoURL   string `json:"videoUrl" validate:"required,http_url"`
}
