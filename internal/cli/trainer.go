package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/ports"
	"github.com/kscst/training-portal/internal/core/service"
)

func (a *app) trainerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "trainer",
		Short:             "Manage your profile, materials and playlists (TRAINER)",
		PersistentPreRunE: a.requireRole(domain.RoleTrainer),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "profile",
			Short: "Show your trainer profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				p, err := a.api.GetTrainerProfile(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(p, trainerFields(p))
			},
		},
		a.updateProfileCmd(false),
		&cobra.Command{
			Use:   "trainees",
			Short: "List the trainees assigned to you",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.ListAssignedTrainees(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, traineesTable(items))
			},
		},
		&cobra.Command{
			Use:   "materials",
			Short: "List your training materials",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.ListTrainerMaterials(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, materialsTable(items))
			},
		},
		a.uploadMaterialCmd(),
		a.updateMaterialCmd(),
		a.idAction("delete-material MATERIAL_ID", "Delete a training material", "Material deleted successfully", func(ctx context.Context, id string) error {
			return a.api.DeleteMaterial(ctx, id, a.creds())
		}),
		&cobra.Command{
			Use:   "playlists",
			Short: "List your playlists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.ListTrainerPlaylists(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, playlistsTable(items))
			},
		},
		a.createPlaylistCmd(),
		a.updatePlaylistCmd(),
		a.idAction("delete-playlist PLAYLIST_ID", "Delete a playlist", "Playlist deleted successfully", func(ctx context.Context, id string) error {
			return a.api.DeletePlaylist(ctx, id, a.creds())
		}),
	)
	return cmd
}

func (a *app) uploadMaterialCmd() *cobra.Command {
	var title, path string
	cmd := &cobra.Command{
		Use:   "upload-material",
		Short: "Upload a PDF or MP4 training material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := domain.RequireField("title", title); err != nil {
				return err
			}
			if err := domain.RequireField("file", path); err != nil {
				return err
			}
			upload, closeFn, err := openUpload(title, path)
			if err != nil {
				return err
			}
			defer closeFn()

			m, err := a.api.UploadMaterial(cmd.Context(), upload, a.creds())
			if err != nil {
				return err
			}
			return a.out.render(m, materialsTable([]domain.TrainingMaterial{*m}))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "material title")
	cmd.Flags().StringVarP(&path, "file", "f", "", "PDF or MP4 file to upload")
	return cmd
}

func (a *app) updateMaterialCmd() *cobra.Command {
	var title, path string
	cmd := &cobra.Command{
		Use:   "update-material MATERIAL_ID",
		Short: "Rename a material, optionally replacing its file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.RequireField("title", title); err != nil {
				return err
			}
			upload := ports.MaterialUpload{Title: title}
			if path != "" {
				u, closeFn, err := openUpload(title, path)
				if err != nil {
					return err
				}
				defer closeFn()
				upload = u
			}

			m, err := a.api.UpdateMaterial(cmd.Context(), args[0], upload, a.creds())
			if err != nil {
				return err
			}
			return a.out.render(m, materialsTable([]domain.TrainingMaterial{*m}))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "material title")
	cmd.Flags().StringVarP(&path, "file", "f", "", "replacement PDF or MP4 file")
	return cmd
}

// openUpload opens path and detects its content type from the extension,
// falling back to sniffing the first bytes.
func openUpload(title, path string) (ports.MaterialUpload, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.MaterialUpload{}, nil, fmt.Errorf("open material: %w", err)
	}

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		head := make([]byte, 512)
		n, _ := f.Read(head)
		ct = http.DetectContentType(head[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return ports.MaterialUpload{}, nil, fmt.Errorf("rewind material: %w", err)
		}
	}
	if err := domain.ValidateMaterialType(ct); err != nil {
		_ = f.Close()
		return ports.MaterialUpload{}, nil, err
	}

	return ports.MaterialUpload{
		Title:       title,
		FileName:    filepath.Base(path),
		ContentType: ct,
		Content:     f,
	}, func() { _ = f.Close() }, nil
}

type playlistFlags struct {
	title  string
	skill  string
	videos []string
}

func (p *playlistFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&p.title, "title", "", "playlist title")
	fs.StringVar(&p.skill, "skill", "", "skill the playlist teaches")
	fs.StringArrayVar(&p.videos, "video", nil, "video as NAME=URL, repeatable and kept in order")
}

func (p *playlistFlags) playlist() (domain.Playlist, error) {
	out := domain.Playlist{Title: p.title, Skill: p.skill, Videos: make([]domain.Video, 0, len(p.videos))}
	for _, raw := range p.videos {
		name, url, ok := strings.Cut(raw, "=")
		if !ok {
			return domain.Playlist{}, fmt.Errorf("%w: video %q must be NAME=URL", ErrInvalidInput, raw)
		}
		out.Videos = append(out.Videos, domain.Video{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
	}
	return out, nil
}

func (a *app) createPlaylistCmd() *cobra.Command {
	var pf playlistFlags
	cmd := &cobra.Command{
		Use:   "create-playlist",
		Short: "Create a playlist of external videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := pf.playlist()
			if err != nil {
				return err
			}
			p, err := a.api.CreatePlaylist(cmd.Context(), in, a.creds())
			if err != nil {
				return err
			}
			return a.out.render(p, playlistsTable([]domain.Playlist{*p}))
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func (a *app) updatePlaylistCmd() *cobra.Command {
	var pf playlistFlags
	cmd := &cobra.Command{
		Use:   "update-playlist PLAYLIST_ID",
		Short: "Replace a playlist's title, skill and videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := pf.playlist()
			if err != nil {
				return err
			}
			p, err := a.api.UpdatePlaylist(cmd.Context(), args[0], in, a.creds())
			if err != nil {
				return err
			}
			return a.out.render(p, playlistsTable([]domain.Playlist{*p}))
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

// updateProfileCmd serves both roles; trainee selects the trainee endpoint
// and fields.
func (a *app) updateProfileCmd(trainee bool) *cobra.Command {
	var in domain.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "update-profile",
		Short: "Change profile fields; omitted flags are left unchanged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.check(in); err != nil {
				return err
			}
			if trainee {
				p, err := service.UpdateTraineeProfile(cmd.Context(), a.api, in, a.creds())
				if err != nil {
					return err
				}
				return a.out.render(p, traineeFields(p))
			}
			p, err := service.UpdateTrainerProfile(cmd.Context(), a.api, in, a.creds())
			if err != nil {
				return err
			}
			return a.out.render(p, trainerFields(p))
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	if trainee {
		f.StringVar(&in.Skill, "skill", "", "skill")
		f.StringVar(&in.Location, "location", "", "location")
	} else {
		f.StringVar(&in.Expertise, "expertise", "", "area of expertise")
	}
	return cmd
}

func trainerFields(p *domain.Trainer) table {
	return fieldsTable(
		"id", p.ID,
		"username", p.Username,
		"name", p.Name,
		"email", p.Email,
		"phone", p.Phone,
		"expertise", p.Expertise,
		"status", p.Status,
	)
}
