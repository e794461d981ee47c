package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/workconnect/session/internal/auth"
	"github.com/workconnect/session/internal/notify"
	"github.com/workconnect/session/internal/token"
)

func loginCmd(c *cli) *cobra.Command {
	var creds auth.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Auth.Login(cmd.Context(), creds)
			if err != nil {
				return describe(err)
			}
			fmt.Printf("Logged in as %s. Continue at %s\n", res.Role, res.Redirect)
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func registerCmd(c *cli) *cobra.Command {
	var (
		reg  auth.Registration
		role string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a worker or employer account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := token.ParseRole(role)
			if !ok || r == token.RoleAdmin {
				return fmt.Errorf("role must be WORKER or EMPLOYER, got %q", role)
			}
			reg.Role = r
			if err := c.app.Auth.Register(cmd.Context(), reg); err != nil {
				return describe(err)
			}
			fmt.Println("Account created. Log in to continue.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.FirstName, "first-name", "", "First name")
	f.StringVar(&reg.LastName, "last-name", "", "Last name")
	f.StringVarP(&reg.Email, "email", "e", "", "Account email")
	f.StringVarP(&reg.Password, "password", "p", "", "Account password")
	f.StringVar(&reg.Phone, "phone", "", "Phone number")
	f.StringVar(&role, "role", string(token.RoleWorker), "WORKER or EMPLOYER")
	for _, name := range []string{"first-name", "last-name", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func logoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func statusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := c.app.Session
			if !s.IsLoggedIn(ctx) {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Printf("Role:    %s\n", s.Role(ctx))
			if exp, ok := s.TokenExpiration(ctx); ok {
				fmt.Printf("Expires: %s\n", exp.Local().Format(time.RFC1123))
			}
			if left, ok := s.TimeUntilExpiry(ctx); ok {
				fmt.Printf("Left:    %s\n", left.Round(time.Second))
			}
			return nil
		},
	}
}

func refreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Refresh.Refresh(cmd.Context()); err != nil {
				if auth.IsSessionOver(err) {
					c.app.Auth.HandleSessionExpired(cmd.Context(), err)
				}
				return describe(err)
			}
			left, _ := c.app.Session.TimeUntilExpiry(cmd.Context())
			fmt.Printf("Token refreshed, valid for %s.\n", left.Round(time.Second))
			return nil
		},
	}
}

// describe turns err into the message a user would see as a notice.
func describe(err error) error {
	n := notify.FromError(err)
	if n.Message == "" {
		return fmt.Errorf("%s", n.Title)
	}
	return fmt.Errorf("%s: %s", n.Title, n.Message)
}
