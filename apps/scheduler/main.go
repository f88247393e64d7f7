package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/duebook/internal/catalog"
	"github.com/smallbiznis/duebook/internal/clock"
	"github.com/smallbiznis/duebook/internal/config"
	"github.com/smallbiznis/duebook/internal/horizon"
	"github.com/smallbiznis/duebook/internal/logger"
	"github.com/smallbiznis/duebook/internal/migration"
	"github.com/smallbiznis/duebook/internal/payment"
	"github.com/smallbiznis/duebook/internal/scheduler"
	"github.com/smallbiznis/duebook/internal/subscription"
	"github.com/smallbiznis/duebook/pkg/db"
	"go.uber.org/fx"
)

// Standalone sweep worker: runs the horizon and overdue jobs on an interval
// without serving HTTP. Deployments that want a single process use
// cmd/duebook instead, which embeds the same scheduler.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services required by the sweep jobs
		catalog.Module,
		subscription.Module,
		payment.Module,
		horizon.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
