package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bennettsh/authkit/internal/database"
)

// NewUsersCmd creates the users command group.
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage user accounts",
	}
	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersDeleteCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			users, err := database.NewUserRepository(db).List(context.Background(), nil)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(users) == 0 {
				fmt.Println("No users registered")
				return nil
			}

			for _, u := range users {
				verified := "no"
				if u.EmailVerifiedAt != nil {
					verified = "yes"
				}
				fmt.Printf("  - ID: %s\n", u.ID)
				fmt.Printf("    Name: %s\n", u.Name)
				fmt.Printf("    Email: %s (verified: %s)\n", u.Email, verified)
				fmt.Printf("    Created: %s\n", u.CreatedAt.UTC().Format(time.RFC3339))
				fmt.Println()
			}
			return nil
		},
	}
}

func newUsersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user and everything tied to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := database.NewUserRepository(db).Delete(context.Background(), nil, id); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
			fmt.Printf("Deleted user %s\n", id)
			return nil
		},
	}
}
