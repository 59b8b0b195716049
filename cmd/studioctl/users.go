package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pirouette/studio/internal/app"
	iauth "github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/internal/models"
)

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage studio accounts",
	}
	cmd.AddCommand(c.usersCreateCmd(), c.usersGrantCmd())
	return cmd
}

func (c *cli) usersCreateCmd() *cobra.Command {
	var input iauth.NewUserInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Example: `  studioctl users create --email teacher@studio.test --password '...' \
    --name "Ada Teacher" --role INSTRUCTOR --role STUDENT`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(input.Roles) == 0 {
				input.Roles = []string{models.RoleStudent}
			}
			return c.withStack(func(_ *app.Config, stack *app.AuthStack) error {
				user, err := stack.Users.CreateUser(cmd.Context(), input)
				if errors.Is(err, iauth.ErrEmailTaken) {
					return fmt.Errorf("an account with email %s already exists", input.Email)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) roles=%s\n",
					user.ID, user.Email, strings.Join(user.RoleNames(), ","))
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input.Email, "email", "", "account email")
	flags.StringVar(&input.Password, "password", "", "initial password")
	flags.StringVar(&input.FullName, "name", "", "full name")
	flags.BoolVar(&input.IsVerified, "verified", false, "mark the email as verified")
	flags.StringSliceVar(&input.Roles, "role", nil, "role to grant (STUDENT, INSTRUCTOR, ADMIN); repeatable")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) usersGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <email> <role>",
		Short: "Grant a role to an existing account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := models.NormalizeRole(args[1])
			if role == "" {
				return fmt.Errorf("unknown role %q", args[1])
			}
			return c.withStack(func(_ *app.Config, stack *app.AuthStack) error {
				ctx := cmd.Context()
				user, err := stack.Users.FindByEmail(ctx, args[0])
				if errors.Is(err, iauth.ErrUserNotFound) {
					return fmt.Errorf("no account with email %s", args[0])
				}
				if err != nil {
					return err
				}
				if err := stack.Users.GrantRole(ctx, user.ID, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", role, user.Email)
				return nil
			})
		},
	}
}
