package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bennettsh/authkit/internal/database"
)

// NewSessionsCmd creates the sessions command group.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage active sessions",
	}
	cmd.AddCommand(newSessionsPurgeCmd())
	cmd.AddCommand(newSessionsSweepCmd())
	return cmd
}

func newSessionsPurgeCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Revoke every session a user holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", userID, err)
			}

			db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			count, err := database.NewSessionRepository(db).DeleteByUserID(context.Background(), nil, id)
			if err != nil {
				return fmt.Errorf("failed to purge sessions: %w", err)
			}
			fmt.Printf("Revoked %d session(s) for user %s\n", count, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id whose sessions to revoke")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newSessionsSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			count, err := database.NewSessionRepository(db).DeleteExpired(context.Background(), nil)
			if err != nil {
				return fmt.Errorf("failed to sweep sessions: %w", err)
			}
			fmt.Printf("Deleted %d expired session(s)\n", count)
			return nil
		},
	}
}
