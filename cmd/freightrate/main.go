package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/freightrate/internal/chargeable"
	"github.com/smallbiznis/freightrate/internal/clock"
	"github.com/smallbiznis/freightrate/internal/config"
	"github.com/smallbiznis/freightrate/internal/dimfactor"
	"github.com/smallbiznis/freightrate/internal/migration"
	"github.com/smallbiznis/freightrate/internal/observability"
	"github.com/smallbiznis/freightrate/internal/ratecard"
	"github.com/smallbiznis/freightrate/internal/ratelimit"
	"github.com/smallbiznis/freightrate/internal/rating"
	"github.com/smallbiznis/freightrate/internal/region"
	"github.com/smallbiznis/freightrate/internal/server"
	"github.com/smallbiznis/freightrate/internal/zone"
	"github.com/smallbiznis/freightrate/internal/zoneimport"
	"github.com/smallbiznis/freightrate/pkg/db"
	"github.com/smallbiznis/freightrate/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		telemetry.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		region.Module,
		zone.Module,
		dimfactor.Module,
		chargeable.Module,
		ratecard.Module,
		rating.Module,
		zoneimport.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
