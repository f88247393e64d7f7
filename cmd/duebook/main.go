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
	"github.com/smallbiznis/duebook/internal/server"
	"github.com/smallbiznis/duebook/internal/settlement"
	"github.com/smallbiznis/duebook/internal/subscription"
	"github.com/smallbiznis/duebook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		catalog.Module,
		subscription.Module,
		payment.Module,
		settlement.Module,
		horizon.Module,

		scheduler.Module,
		server.Module,
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
