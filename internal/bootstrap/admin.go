package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/features/user"
	"github.com/skillforge/marketplace-server-go/pkg/types"
)

// EnsureDefaultAdmin creates the bootstrap admin account from
// MKT_ADMIN_EMAIL and MKT_ADMIN_PASSWORD. When the variables are unset
// the step is skipped; admins can also be provisioned with the
// create-admin script.
func EnsureDefaultAdmin(db *gorm.DB, logger *slog.Logger) error {
	email := strings.TrimSpace(os.Getenv("MKT_ADMIN_EMAIL"))
	password := os.Getenv("MKT_ADMIN_PASSWORD")

	if email == "" || password == "" {
		logger.Info("default admin bootstrap skipped, MKT_ADMIN_EMAIL or MKT_ADMIN_PASSWORD not set")
		return nil
	}

	_, err := user.GetByEmail(db, email)
	if err == nil {
		logger.Info("default admin already exists", slog.String("email", email))
		return nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("get default admin: %w", err)
	}

	name := strings.TrimSpace(os.Getenv("MKT_ADMIN_NAME"))
	if name == "" {
		name = "Platform Admin"
	}

	if _, err := user.Create(db, user.CreateInput{
		FullName: name,
		Email:    email,
		Password: password,
		Role:     types.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	logger.Info("default admin created", slog.String("email", email))
	return nil
}
