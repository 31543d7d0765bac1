package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/auth"
	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/Goodnews119/Marketplacesite/internal/service"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const (
	emailFlag    = "email"
	passwordFlag = "password"
	nameFlag     = "name"
	roleFlag     = "role"
)

var createUserFlags = map[string]cobraflags.Flag{
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "",
		Usage: "Email address of the new user (required)",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Value: "",
		Usage: "Password of the new user (required)",
	},
	nameFlag: &cobraflags.StringFlag{
		Name:  nameFlag,
		Value: "",
		Usage: "Display name, defaults to the part of the email before @",
	},
	roleFlag: &cobraflags.StringFlag{
		Name:  roleFlag,
		Value: domain.RoleAdmin,
		Usage: "Role of the new user (admin or user)",
	},
}

func newCreateUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user with an explicit role",
		Long: `Create a user directly in the database. This is the only way to create an
admin: signing up over the API always assigns the user role.

Example:
  marketplace create-user --email owner@example.com --password s3cret`,
		RunE: runCreateUser,
	}
	cobraflags.RegisterMap(cmd, createUserFlags)
	return cmd
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	email := createUserFlags[emailFlag].GetString()
	password := createUserFlags[passwordFlag].GetString()
	if email == "" || password == "" {
		return errors.New("--email and --password are required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	authService := service.NewAuthService(repo, auth.NewTokenIssuer(cfg.JWTSecret))
	res, err := authService.CreateUser(ctx,
		createUserFlags[nameFlag].GetString(),
		email,
		password,
		createUserFlags[roleFlag].GetString(),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s user %d (%s)\n", res.User.Role, res.User.ID, res.User.Email)
	return nil
}
