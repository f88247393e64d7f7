package migration

import (
	catalogdomain "github.com/smallbiznis/duebook/internal/catalog/domain"
	"github.com/smallbiznis/duebook/internal/config"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	subscriptiondomain "github.com/smallbiznis/duebook/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Versioned migrations target Postgres; other dialects get the
			// schema derived from the models.
			return conn.AutoMigrate(
				&catalogdomain.Client{},
				&catalogdomain.Service{},
				&subscriptiondomain.Subscription{},
				&paymentdomain.Payment{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
