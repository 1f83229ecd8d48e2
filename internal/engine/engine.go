package engine

import (
	"context"

	"github.com/zeusync/composer/internal/config"
	"github.com/zeusync/composer/internal/core/capability"
	"github.com/zeusync/composer/internal/core/chain"
	"github.com/zeusync/composer/internal/core/command"
	"github.com/zeusync/composer/internal/core/events/hub"
	"github.com/zeusync/composer/internal/core/observability/log"
)

// Topics the engine publishes its own activity on.
const (
	TopicCapabilityChanged = "capability.changed"
	TopicCommandPrefix     = "command."
)

// CapabilityChange is the payload published on TopicCapabilityChanged.
type CapabilityChange struct {
	Entity string `json:"entity,omitempty"` // empty for the shared registry
	Role   string `json:"role"`
	Action string `json:"action"` // registered, replaced or removed
}

// CommandActivity is the payload published on TopicCommandPrefix + kind.
type CommandActivity struct {
	Command string `json:"command"`
	Kind    string `json:"kind"`
	Error   string `json:"error,omitempty"`
}

// Engine ties the four building blocks together. It is built once at start
// up and passed around explicitly.
type Engine struct {
	Config   *config.Config
	Logger   log.Log
	Registry *capability.Registry
	Invoker  *command.Invoker
	Hub      *hub.Hub
}

func New(cfg *config.Config, logger log.Log, registry *capability.Registry, invoker *command.Invoker, h *hub.Hub) *Engine {
	return &Engine{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Invoker:  invoker,
		Hub:      h,
	}
}

// Wrap builds a chain over base using the configured depth limit.
func (e *Engine) Wrap(base chain.Component, layers ...chain.Layer) (chain.Component, error) {
	return chain.NewBuilder(base, chain.WithMaxDepth(e.Config.Chain.MaxDepth)).With(layers...).Build()
}

// ProvideLogger builds the process logger from config. The cleanup flushes it.
func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger, err := log.NewWithOptions(log.Options{
		Level:    level,
		Encoding: cfg.Log.Encoding,
	})
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideHub(cfg *config.Config, logger log.Log) *hub.Hub {
	return hub.New(
		hub.WithShards(cfg.Hub.Shards),
		hub.WithBroadcastLimit(cfg.Hub.BroadcastLimit),
		hub.WithLogger(logger.Named("hub")),
	)
}

// ProvideRegistry builds the shared registry and reports its changes on the hub.
func ProvideRegistry(cfg *config.Config, logger log.Log, h *hub.Hub) *capability.Registry {
	l := logger.Named("registry")
	return capability.NewRegistry(
		capability.WithStrict(cfg.Registry.Strict),
		capability.WithLogger(l),
		capability.WithObserver(capabilityObserver(h, l, "")),
	)
}

// NewEntity creates an entity whose behavior changes are published on the
// hub like those of the shared registry.
func (e *Engine) NewEntity(name string) *capability.Entity {
	l := e.Logger.Named("entity").With(log.String("entity", name))
	return capability.NewEntity(name,
		capability.WithLogger(l),
		capability.WithObserver(capabilityObserver(e.Hub, l, name)),
	)
}

func capabilityObserver(h *hub.Hub, l log.Log, entity string) capability.Observer {
	return capability.ObserverFunc(func(role string, prev, cur capability.Behavior) {
		change := CapabilityChange{Entity: entity, Role: role, Action: "replaced"}
		switch {
		case prev == nil:
			change.Action = "registered"
		case cur == nil:
			change.Action = "removed"
		}
		if err := h.Publish(context.Background(), TopicCapabilityChanged, change); err != nil {
			l.Warn("capability notification failed", log.Error(err))
		}
	})
}

// ProvideInvoker builds the invoker and reports its activity on the hub.
func ProvideInvoker(cfg *config.Config, logger log.Log, h *hub.Hub) *command.Invoker {
	l := logger.Named("invoker")
	return command.NewInvoker(
		command.WithHistoryLimit(cfg.Command.HistoryLimit),
		command.WithRollbackOnFailure(cfg.Command.RollbackOnFailure),
		command.WithLogger(l),
		command.WithListener(command.ListenerFunc(func(ctx context.Context, e command.Event) {
			activity := CommandActivity{Command: e.Command, Kind: e.Kind.String()}
			if e.Err != nil {
				activity.Error = e.Err.Error()
			}
			if err := h.Publish(ctx, TopicCommandPrefix+e.Kind.String(), activity); err != nil {
				l.Warn("command notification failed", log.Error(err))
			}
		})),
	)
}
