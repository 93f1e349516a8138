package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/leadstack/crm/internal/clock"
	"github.com/leadstack/crm/internal/config"
	"github.com/leadstack/crm/internal/migration"
	"github.com/leadstack/crm/internal/observability"
	"github.com/leadstack/crm/internal/server"
	"github.com/leadstack/crm/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
