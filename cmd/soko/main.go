package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/soko/internal/clock"
	"github.com/smallbiznis/soko/internal/config"
	"github.com/smallbiznis/soko/internal/migration"
	"github.com/smallbiznis/soko/internal/server"
	"github.com/smallbiznis/soko/pkg/db"
	"github.com/smallbiznis/soko/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
