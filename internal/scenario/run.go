package scenario

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/zeusync/composer/internal/core/capability"
	"github.com/zeusync/composer/internal/core/command"
	"github.com/zeusync/composer/internal/core/events/hub"
	"github.com/zeusync/composer/internal/core/observability/log"
	"github.com/zeusync/composer/internal/engine"
)

//go:embed default.yaml
var defaultScenario []byte

// Default returns the built-in demonstration scenario.
func Default() (*Scenario, error) {
	return LoadYAML(bytes.NewReader(defaultScenario))
}

// Report summarizes what a run produced.
type Report struct {
	Performed []string
	Produced  []string
	Beverage  string
	Cost      float64
	Lights    map[string]string
	History   []string
	Delivered []string
	Failures  []*hub.SubscriberHandlerError
}

// Run plays s against eng and writes a human readable trace to out.
// Behavior names in s are resolved through the engine registry, which is
// seeded with catalog (DefaultCatalog when nil); behaviors registered there
// beforehand take precedence.
// Failing commands, empty undo/redo stacks and failing subscribers are part of
// what a scenario may demonstrate, so they are reported rather than returned.
func Run(ctx context.Context, eng *engine.Engine, s *Scenario, catalog capability.Catalog, out io.Writer) (*Report, error) {
	if catalog == nil {
		catalog = capability.DefaultCatalog()
	}
	logger := eng.Logger.With(log.String("scenario", s.Name))
	report := &Report{Lights: make(map[string]string)}
	fmt.Fprintf(out, "== %s ==\n", s.Name)

	if err := seed(eng.Registry, catalog); err != nil {
		return report, err
	}
	if err := runEntities(ctx, eng, s, report, out); err != nil {
		return report, err
	}
	if s.Factory != nil {
		if err := runFactory(ctx, eng, s.Factory, report, out); err != nil {
			return report, err
		}
	}
	if err := runBeverage(ctx, eng, s, report, out); err != nil {
		return report, err
	}

	// subscribe before commands run so engine activity is observable too
	subs, err := subscribe(eng.Hub, s, report, out)
	if err != nil {
		return report, err
	}
	defer func() {
		for _, sub := range subs {
			eng.Hub.Unsubscribe(sub.topic, sub.Subscriber)
		}
	}()

	if err = runSteps(ctx, eng, s, report, out, logger); err != nil {
		return report, err
	}

	for _, n := range s.Notifications {
		if err := eng.Hub.Publish(ctx, n.Topic, n.Payload); err != nil {
			failures := hub.Failures(err)
			report.Failures = append(report.Failures, failures...)
			for _, f := range failures {
				fmt.Fprintf(out, "subscriber %s failed: %v\n", f.SubscriberID, f.Err)
			}
		}
	}

	logger.Info("scenario finished",
		log.Int("performed", len(report.Performed)),
		log.Int("delivered", len(report.Delivered)),
		log.Int("failures", len(report.Failures)),
	)
	return report, nil
}

// seed registers every catalog behavior the registry does not have yet.
func seed(reg *capability.Registry, catalog capability.Catalog) error {
	for _, name := range catalog.Names() {
		if reg.Has(name) {
			continue
		}
		if err := reg.Register(name, catalog[name]); err != nil {
			return err
		}
	}
	return nil
}

func runEntities(ctx context.Context, eng *engine.Engine, s *Scenario, report *Report, out io.Writer) error {
	for _, ec := range s.Entities {
		e := eng.NewEntity(ec.Name)
		if err := install(eng.Registry, e, ec.Behaviors); err != nil {
			return err
		}
		if err := perform(ctx, e, ec.Perform, report, out); err != nil {
			return err
		}

		if len(ec.Swap) == 0 {
			continue
		}
		if err := install(eng.Registry, e, ec.Swap); err != nil {
			return err
		}
		if err := perform(ctx, e, ec.Perform, report, out); err != nil {
			return err
		}
	}
	return nil
}

// install sets each role of e to the behavior the registry holds under the
// given name, in role order.
func install(reg *capability.Registry, e *capability.Entity, behaviors map[string]string) error {
	roles := make([]string, 0, len(behaviors))
	for role := range behaviors {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		impl, err := reg.Resolve(behaviors[role])
		if err != nil {
			return fmt.Errorf("entity %q role %q: %w", e.Name(), role, err)
		}
		if err = e.Set(role, impl); err != nil {
			return fmt.Errorf("entity %q: %w", e.Name(), err)
		}
	}
	return nil
}

func perform(ctx context.Context, e *capability.Entity, roles []string, report *Report, out io.Writer) error {
	for _, role := range roles {
		res, err := e.Perform(ctx, role)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s %s: %v", e.Name(), role, res)
		report.Performed = append(report.Performed, line)
		fmt.Fprintln(out, line)
	}
	return nil
}

func runBeverage(ctx context.Context, eng *engine.Engine, s *Scenario, report *Report, out io.Writer) error {
	if s.Beverage == nil {
		return nil
	}
	bev, err := buildBeverage(eng, s.Beverage)
	if err != nil {
		return err
	}
	cost, err := bev.Operate(ctx)
	if err != nil {
		return fmt.Errorf("beverage %q: %w", s.Beverage.Name, err)
	}
	report.Beverage = bev.Describe()
	report.Cost = cost
	fmt.Fprintf(out, "%s $%.2f\n", report.Beverage, cost)
	return nil
}

func runSteps(ctx context.Context, eng *engine.Engine, s *Scenario, report *Report, out io.Writer, logger log.Log) error {
	lights := make(map[string]*Light, len(s.Lights))
	for _, name := range s.Lights {
		lights[name] = &Light{Name: name}
	}
	remote, err := buildRemote(eng.Invoker, s.Remote, lights)
	if err != nil {
		return err
	}
	if remote != nil {
		fmt.Fprint(out, remote)
	}

	for i, st := range s.Steps {
		err = nil
		switch st.Op {
		case "execute":
			var cmd command.Command
			if cmd, err = buildCommand(*st.Command, lights); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			err = eng.Invoker.Execute(ctx, cmd)
			fmt.Fprintf(out, "execute %s\n", cmd.Name())
		case "undo":
			err = eng.Invoker.Undo(ctx)
			fmt.Fprintln(out, "undo")
		case "redo":
			err = eng.Invoker.Redo(ctx)
			fmt.Fprintln(out, "redo")
		case "press.on":
			err = remote.PressOn(ctx, st.Slot)
			fmt.Fprintf(out, "press on %d\n", st.Slot)
		case "press.off":
			err = remote.PressOff(ctx, st.Slot)
			fmt.Fprintf(out, "press off %d\n", st.Slot)
		case "press.undo":
			err = remote.PressUndo(ctx)
			fmt.Fprintln(out, "press undo")
		}

		switch {
		case err == nil:
		case errors.Is(err, command.ErrNothingToUndo), errors.Is(err, command.ErrNothingToRedo):
			fmt.Fprintf(out, "  %v\n", err)
		default:
			logger.Debug("step failed", log.Int("step", i), log.Error(err))
			fmt.Fprintf(out, "  failed: %v\n", err)
		}
		for _, name := range s.Lights {
			fmt.Fprintf(out, "  %s\n", lights[name])
		}
	}

	for name, l := range lights {
		report.Lights[name] = l.String()
	}
	report.History = eng.Invoker.History()
	return nil
}

type subscription struct {
	hub.Subscriber
	topic string
}

func subscribe(h *hub.Hub, s *Scenario, report *Report, out io.Writer) ([]subscription, error) {
	subs := make([]subscription, 0, len(s.Subscribers))
	for _, sc := range s.Subscribers {
		sub := hub.NamedSubscriber(sc.ID, func(_ context.Context, n hub.Notification) error {
			if sc.Reject {
				return fmt.Errorf("%s rejects %s", sc.ID, n.Topic)
			}
			line := fmt.Sprintf("[%s] %s: %v", sc.ID, n.Topic, n.Payload)
			report.Delivered = append(report.Delivered, line)
			fmt.Fprintln(out, line)
			return nil
		})
		if _, err := h.Subscribe(sc.Topic, sub); err != nil {
			return subs, fmt.Errorf("subscriber %q: %w", sc.ID, err)
		}
		subs = append(subs, subscription{Subscriber: sub, topic: sc.Topic})
	}
	return subs, nil
}

func qualified(entity, role string) string {
	return entity + "." + role
}
