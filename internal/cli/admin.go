package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kscst/training-portal/internal/core/domain"
)

func (a *app) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "admin",
		Short:             "Manage trainees, trainers and certificates (ADMIN)",
		PersistentPreRunE: a.requireRole(domain.RoleAdmin),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "trainees",
			Short: "List all trainees",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.ListTrainees(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, traineesTable(items))
			},
		},
		&cobra.Command{
			Use:   "trainers",
			Short: "List all trainers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.ListTrainers(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, trainersTable(items))
			},
		},
		&cobra.Command{
			Use:   "approved-trainers",
			Short: "List trainers that can take trainees",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.ListApprovedTrainers(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, trainersTable(items))
			},
		},
		&cobra.Command{
			Use:   "progress",
			Short: "Show completion of every approved trainee",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := a.api.ListTraineeProgress(cmd.Context(), a.creds())
				if err != nil {
					return err
				}
				return a.out.render(items, traineeProgressTable(items))
			},
		},
		a.approveTraineeCmd(),
		a.idAction("reject-trainee TRAINEE_ID", "Reject a pending trainee", "Trainee rejected", func(ctx context.Context, id string) error {
			return a.api.RejectTrainee(ctx, id, a.creds())
		}),
		a.idAction("delete-trainee TRAINEE_ID", "Delete a trainee", "Trainee deleted successfully", func(ctx context.Context, id string) error {
			return a.api.DeleteTrainee(ctx, id, a.creds())
		}),
		a.idAction("approve-trainer TRAINER_ID", "Approve a pending trainer", "Trainer approved successfully", func(ctx context.Context, id string) error {
			return a.api.ApproveTrainer(ctx, id, a.creds())
		}),
		a.idAction("reject-trainer TRAINER_ID", "Reject a pending trainer", "Trainer rejected", func(ctx context.Context, id string) error {
			return a.api.RejectTrainer(ctx, id, a.creds())
		}),
		a.idAction("delete-trainer TRAINER_ID", "Delete a trainer", "Trainer deleted successfully", func(ctx context.Context, id string) error {
			return a.api.DeleteTrainer(ctx, id, a.creds())
		}),
		&cobra.Command{
			Use:   "deploy-certificate TRAINEE_ID",
			Short: "Issue the completion certificate of a trainee",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				msg, err := a.api.DeployCertificate(cmd.Context(), args[0], a.creds())
				if err != nil {
					return err
				}
				return a.out.message(orDefault(msg, "Certificate deployed successfully"))
			},
		},
	)
	return cmd
}

func (a *app) approveTraineeCmd() *cobra.Command {
	var trainerID string
	cmd := &cobra.Command{
		Use:   "approve-trainee TRAINEE_ID",
		Short: "Approve a pending trainee and assign a trainer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.RequireField("trainer", trainerID); err != nil {
				return err
			}
			if err := a.api.ApproveTrainee(cmd.Context(), args[0], trainerID, a.creds()); err != nil {
				return err
			}
			return a.out.message("Trainee approved successfully")
		},
	}
	cmd.Flags().StringVar(&trainerID, "trainer", "", "id of the approved trainer to assign")
	return cmd
}

// idAction builds a command that runs one action on the id argument.
func (a *app) idAction(use, short, done string, run func(ctx context.Context, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.out.message(done)
		},
	}
}
