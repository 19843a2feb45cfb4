package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ksk-project/employee-service/internal/db"
	"github.com/ksk-project/employee-service/internal/db/repository"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var newUser struct {
	username  string
	password  string
	name      string
	role      string
	superuser bool
}

var createUserCmd = &cobra.Command{
	Use:   "createuser",
	Short: "Create a staff account, e.g. the first administrator",
	Long: `Create a staff account directly in the database. The password is read
from --password or, when that is empty, from EMPLOYEES_NEW_USER_PASSWORD.`,
	RunE: runCreateUser,
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&newUser.username, "username", "", "login name (required)")
	f.StringVar(&newUser.password, "password", "", "initial password")
	f.StringVar(&newUser.name, "name", "", "display name")
	f.StringVar(&newUser.role, "role", string(models.RoleAdministrator), "role: admin, manager or viewer")
	f.BoolVar(&newUser.superuser, "superuser", false, "grant superuser rights")
	_ = createUserCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(createUserCmd)
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	password := newUser.password
	if password == "" {
		password = os.Getenv("EMPLOYEES_NEW_USER_PASSWORD")
	}

	database, err := db.NewPostgres(cmd.Context(), log, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	repos := repository.NewRepositories(database)
	auth := service.NewAuthService(log, repos.User, nil, service.JWTConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TokenTTL(),
	})

	user, err := auth.RegisterUser(cmd.Context(), models.UserRequest{
		Username:    newUser.username,
		Password:    password,
		Name:        newUser.name,
		Role:        models.Role(newUser.role),
		IsSuperuser: newUser.superuser,
		IsActive:    true,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				log.WithField("field", field).Error(msg)
			}
		}
		return fmt.Errorf("creating user: %w", err)
	}

	log.WithFields(logrus.Fields{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("User created")

	return nil
}
