package bootstrap

import (
	"fmt"

	"log/slog"

	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/features/course"
	"github.com/skillforge/marketplace-server-go/internal/features/enrollment"
	"github.com/skillforge/marketplace-server-go/internal/features/payment"
	"github.com/skillforge/marketplace-server-go/internal/features/user"
	"github.com/skillforge/marketplace-server-go/pkg/config"
)

// Models lists every persisted model in migration order. Referenced
// tables come first so foreign keys resolve.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&course.Course{},
		&course.Section{},
		&enrollment.Enrollment{},
		&payment.Record{},
	}
}

// ApplyMigrations runs the schema auto-migration when enabled by
// MKT_DB_RUN_MIGRATIONS. Production deployments run the migrate script
// instead.
func ApplyMigrations(db *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.Database.RunMigrations {
		logger.Info("skipping auto-migration (MKT_DB_RUN_MIGRATIONS=false)")
		return nil
	}

	logger.Info("running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("database schema migrated successfully")
	return nil
}
