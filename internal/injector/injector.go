//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/composer/internal/config"
	"github.com/zeusync/composer/internal/core/observability/log"
	"github.com/zeusync/composer/internal/engine"
)

var engineSet = wire.NewSet(
	engine.ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	engine.ProvideHub,
	engine.ProvideRegistry,
	engine.ProvideInvoker,
	engine.New,
)

// InitializeEngine wires an Engine from configuration.
func InitializeEngine(cfg *config.Config) (*engine.Engine, func(), error) {
	wire.Build(engineSet)
	return nil, nil, nil
}

// InitializeEngineWithLogger wires an Engine around an existing logger.
func InitializeEngineWithLogger(cfg *config.Config, logger log.Log) *engine.Engine {
	wire.Build(
		engine.ProvideHub,
		engine.ProvideRegistry,
		engine.ProvideInvoker,
		engine.New,
	)
	return nil
}
