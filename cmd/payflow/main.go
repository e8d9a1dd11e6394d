package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/ledgerline/payflow/internal/account"
	"github.com/ledgerline/payflow/internal/account/provisioning"
	"github.com/ledgerline/payflow/internal/auth"
	"github.com/ledgerline/payflow/internal/catalog"
	"github.com/ledgerline/payflow/internal/checkout"
	"github.com/ledgerline/payflow/internal/clock"
	"github.com/ledgerline/payflow/internal/config"
	"github.com/ledgerline/payflow/internal/migration"
	"github.com/ledgerline/payflow/internal/observability"
	"github.com/ledgerline/payflow/internal/paymentmethod"
	"github.com/ledgerline/payflow/internal/processor"
	"github.com/ledgerline/payflow/internal/purchase"
	"github.com/ledgerline/payflow/internal/server"
	"github.com/ledgerline/payflow/internal/webhook"
	"github.com/ledgerline/payflow/pkg/db"
	"github.com/ledgerline/payflow/pkg/lock"
)

func main() {
	app := fx.New(
		// Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		lock.Module,
		clock.Module,
		migration.Module,

		// Domains
		account.Module,
		provisioning.Module,
		catalog.Module,
		processor.Module,
		checkout.Module,
		purchase.Module,
		webhook.Module,
		paymentmethod.Module,
		auth.Module,

		// HTTP surface
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
