package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kscst/training-portal/internal/core/domain"
)

// ErrNoCertificate is returned when the trainee has no certificate yet.
var ErrNoCertificate = errors.New("no certificate has been issued yet")

func (a *app) traineeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "trainee",
		Short:             "Follow your training and fetch your certificate (TRAINEE)",
		PersistentPreRunE: a.requireRole(domain.RoleTrainee),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "profile",
			Short: "Show your trainee profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				p, err := a.api.GetTraineeProfile(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(p, traineeFields(p))
			},
		},
		a.updateProfileCmd(true),
		&cobra.Command{
			Use:   "materials",
			Short: "List the materials of your trainer",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.ListTraineeMaterials(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, materialsTable(items))
			},
		},
		&cobra.Command{
			Use:   "playlists",
			Short: "List the playlists for your skill",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.ListTraineePlaylists(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, playlistsTable(items))
			},
		},
		&cobra.Command{
			Use:   "progress",
			Short: "List what you have completed",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.GetTraineeProgress(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, progressTable(items))
			},
		},
		a.idAction("complete-material MATERIAL_ID", "Mark a material as completed", "Material marked as completed", func(ctx context.Context, id string) error {
			_, err := a.api.MarkMaterialProgress(ctx, id, a.creds())
			return err
		}),
		a.completeVideoCmd(),
		&cobra.Command{
			Use:   "certificate",
			Short: "Show your certificate, if issued",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cert, err := a.api.GetTraineeCertificate(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				if cert == nil {
					return ErrNoCertificate
				}
				return a.out.render(cert, fieldsTable(
					"id", cert.ID,
					"file", cert.FilePath,
					"issued at", formatTime(cert.IssuedAt),
				))
			},
		},
		a.downloadCertificateCmd(),
	)
	return cmd
}

func (a *app) completeVideoCmd() *cobra.Command {
	var in domain.VideoProgress
	cmd := &cobra.Command{
		Use:   "complete-video",
		Short: "Mark a playlist video as watched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.check(in); err != nil {
				return err
			}
			if _, err := a.api.MarkVideoProgress(cmd.Context(), in, a.creds()); err != nil {
				return err
			}
			return a.out.message("Video marked as watched")
		},
	}
	cmd.Flags().StringVar(&in.PlaylistID, "playlist", "", "playlist id")
	cmd.Flags().StringVar(&in.VideoURL, "url", "", "video URL")
	return cmd
}

func (a *app) downloadCertificateCmd() *cobra.Command {
	var dest string
	cmd := &cobra.Command{
		Use:   "download-certificate",
		Short: "Save your certificate file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cert, err := a.api.GetTraineeCertificate(ctx, a.creds())
			if err != nil {
				return err
			}
			if cert == nil {
				return ErrNoCertificate
			}

			body, _, err := a.api.DownloadCertificate(ctx, cert.FilePath, a.creds())
			if err != nil {
				return err
			}
			defer body.Close()

			if dest == "" {
				dest = path.Base(cert.FilePath)
			}
			if info, err := os.Stat(dest); err == nil && info.IsDir() {
				dest = filepath.Join(dest, path.Base(cert.FilePath))
			}
			n, err := writeFile(dest, body)
			if err != nil {
				return err
			}
			return a.out.message(fmt.Sprintf("Saved certificate to %s (%d bytes)", dest, n))
		},
	}
	cmd.Flags().StringVarP(&dest, "output-file", "f", "", "destination file or directory (default: the certificate's file name)")
	return cmd
}

func writeFile(dest string, r io.Reader) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, fmt.Errorf("write %s: %w", dest, err)
	}
	return n, nil
}

func traineeFields(p *domain.Trainee) table {
	return fieldsTable(
		"id", p.ID,
		"username", p.Username,
		"name", p.Name,
		"email", p.Email,
		"phone", p.Phone,
		"skill", p.Skill,
		"location", p.Location,
		"status", p.Status,
		"trainer", p.AssignedTrainerID,
	)
}
