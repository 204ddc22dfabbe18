package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scribehq/scribe-client/pkg/envelope"
	"github.com/scribehq/scribe-client/pkg/session"
)

var loginPassword string

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	rootCmd.AddCommand(loginCmd, meCmd, logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Authenticate against the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		manager := session.New(c)

		user, err := manager.Login(context.Background(), args[0], loginPassword)
		if err != nil {
			var failure *envelope.Failure
			if errors.As(err, &failure) && len(failure.FieldErrors) > 0 {
				for field, msgs := range failure.FieldErrors {
					for _, msg := range msgs {
						fmt.Printf("%s: %s\n", field, msg)
					}
				}
			}
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Printf("Logged in as %s (#%d)\n", user.Username, user.ID)
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Validate the ambient session and show the current user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		manager := session.New(c)
		manager.Validate(context.Background())

		snap := manager.Session()
		if !snap.IsAuthenticated {
			fmt.Println("Not authenticated.")
			return nil
		}

		u := snap.User
		fmt.Printf("%s (#%d)\n", u.Username, u.ID)
		if u.Email != "" {
			fmt.Printf("  email: %s\n", u.Email)
		}
		if u.Bio != "" {
			fmt.Printf("  bio:   %s\n", u.Bio)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		manager := session.New(c)
		manager.Logout(context.Background())
		fmt.Println("Logged out.")
		return nil
	},
}
