package scenario

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/composer/internal/config"
	"github.com/zeusync/composer/internal/core/capability"
	"github.com/zeusync/composer/internal/core/observability/log"
	"github.com/zeusync/composer/internal/engine"
	"github.com/zeusync/composer/internal/injector"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return injector.InitializeEngineWithLogger(config.Default(), log.NewNop())
}

func TestDefaultScenario(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	eng := newEngine(t)
	var out bytes.Buffer
	report, err := Run(context.Background(), eng, s, nil, &out)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"mallard fly: Flying with wings",
		"mallard quack: Quack",
		"model fly: I can't fly",
		"model fly: Flying with a rocket",
		"mallard-1 quack: Quack",
		"decoy-1 quack: << Silence >>",
		"rubber-1 quack: Squeak",
		"mallard-2 quack: Quack",
	}, report.Performed)
	assert.Equal(t, []string{"mallard-1", "decoy-1", "rubber-1", "mallard-2"}, report.Produced)
	assert.Equal(t, "Dark Roast, Mocha, Whip", report.Beverage)
	assert.InDelta(t, 1.29, report.Cost, 1e-9)
	assert.Equal(t, "living room light is on at 100%", report.Lights["living room"])
	assert.Equal(t, []string{"light.on living room"}, report.History)
	require.Len(t, report.Delivered, 5)
	for _, line := range report.Delivered[:3] {
		assert.Contains(t, line, "[activity-log] command.executed")
	}
	assert.Contains(t, report.Delivered[3], "[current-conditions] weather")
	assert.Contains(t, report.Delivered[4], "[statistics] weather")
	assert.Empty(t, report.Failures)

	text := out.String()
	assert.Contains(t, text, "Dark Roast, Mocha, Whip $1.29")
	assert.Contains(t, text, "nothing to undo")
	assert.Contains(t, text, "[slot 0] light.on living room")
	assert.Contains(t, text, "press undo\n  living room light is on at 100%")

	assert.True(t, eng.Registry.Has("FlyRocket"))
	assert.False(t, eng.Registry.Has("mallard.fly"))
	assert.Empty(t, eng.Hub.Subscribers("weather"))
}

const macroScenario = `
name: party
lights: [kitchen, porch]
subscribers:
  - {id: grumpy, topic: doorbell, reject: true}
  - {id: host, topic: doorbell}
steps:
  - op: execute
    command:
      type: macro
      name: party-mode
      steps:
        - {type: light.dim, target: kitchen, level: 30}
        - {type: fail, name: jammed}
        - {type: light.on, target: porch}
  - op: undo
  - op: redo
  - op: execute
    command: {type: light.on, target: porch}
notifications:
  - {topic: doorbell, payload: ding}
`

func TestMacroScenarioPartialFailure(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(macroScenario))
	require.NoError(t, err)

	var out bytes.Buffer
	report, err := Run(context.Background(), newEngine(t), s, nil, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "execute party-mode\n  failed:")
	assert.Contains(t, text, "kitchen light is on at 30%")

	assert.Equal(t, "porch light is on at 100%", report.Lights["porch"])
	assert.Equal(t, "kitchen light is on at 30%", report.Lights["kitchen"])
	assert.Equal(t, []string{"party-mode", "light.on porch"}, report.History)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "grumpy", report.Failures[0].SubscriberID)
	assert.Equal(t, []string{"[host] doorbell: ding"}, report.Delivered)
}

func TestLoadJSON(t *testing.T) {
	s, err := LoadJSON(strings.NewReader(`{
		"name": "json",
		"beverage": {"name": "House Blend", "cost": 0.89, "layers": [{"type": "multiply", "name": "Venti", "factor": 2}]}
	}`))
	require.NoError(t, err)

	report, err := Run(context.Background(), newEngine(t), s, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.InDelta(t, 1.78, report.Cost, 1e-9)
}

func TestValidateRejectsBadScenarios(t *testing.T) {
	cases := map[string]string{
		"missing name":    `{}`,
		"unknown op":      `{"name": "x", "steps": [{"op": "jump"}]}`,
		"unknown light":   `{"name": "x", "steps": [{"op": "execute", "command": {"type": "light.on", "target": "attic"}}]}`,
		"empty macro":     `{"name": "x", "steps": [{"op": "execute", "command": {"type": "macro", "name": "m"}}]}`,
		"bad layer":       `{"name": "x", "beverage": {"name": "b", "layers": [{"type": "pour", "name": "p"}]}}`,
		"bad perform":     `{"name": "x", "entities": [{"name": "d", "behaviors": {}, "perform": ["fly"]}]}`,
		"unknown field":   `{"name": "x", "colour": "red"}`,
		"no remote":       `{"name": "x", "steps": [{"op": "press.undo"}]}`,
		"bad slot":        `{"name": "x", "remote": {"slots": [{}]}, "steps": [{"op": "press.on", "slot": 1}]}`,
		"no kinds":        `{"name": "x", "factory": {"count": 1}}`,
		"kind lacks role": `{"name": "x", "factory": {"count": 1, "perform": ["fly"], "kinds": [{"name": "k", "behaviors": {}}]}}`,
		"bad tie break":   `{"name": "x", "factory": {"kinds": [{"name": "k"}], "tie_break": "coin"}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadJSON(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestUnknownBehaviorFails(t *testing.T) {
	s := &Scenario{Name: "x", Entities: []EntityConfig{{Name: "d", Behaviors: map[string]string{"fly": "Jetpack"}}}}
	_, err := Run(context.Background(), newEngine(t), s, nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "Jetpack")
}

const remoteScenario = `
name: remote
lights: [hall]
remote:
  slots:
    - on: {type: light.dim, target: hall, level: 40}
      off: {type: light.off, target: hall}
    - on: {type: light.dim, target: hall, level: 70}
steps:
  - {op: press.on, slot: 0}
  - {op: press.on, slot: 1}
  - {op: press.on, slot: 0}
  - op: press.undo
  - op: press.undo
  - op: press.undo
  - op: press.undo
`

func TestRemoteScenarioUndoesRepeatedPresses(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(remoteScenario))
	require.NoError(t, err)

	var out bytes.Buffer
	report, err := Run(context.Background(), newEngine(t), s, nil, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "press on 1\n  hall light is on at 70%")
	assert.Contains(t, text, "press undo\n  hall light is on at 70%\npress undo\n  hall light is on at 40%\npress undo\n  hall light is off")
	assert.Contains(t, text, "nothing to undo")

	assert.Equal(t, "hall light is off", report.Lights["hall"])
	assert.Empty(t, report.History)
}

func TestFactoryScenarioBalancesKinds(t *testing.T) {
	s, err := LoadJSON(strings.NewReader(`{
		"name": "flock",
		"factory": {
			"count": 6,
			"workers": 2,
			"tie_break": "random",
			"seed": 7,
			"perform": ["quack"],
			"kinds": [
				{"name": "mallard", "behaviors": {"quack": "Quack"}},
				{"name": "rubber", "behaviors": {"quack": "Squeak"}},
				{"name": "decoy", "behaviors": {"quack": "MuteQuack"}}
			]
		}
	}`))
	require.NoError(t, err)

	report, err := Run(context.Background(), newEngine(t), s, nil, &bytes.Buffer{})
	require.NoError(t, err)

	require.Len(t, report.Produced, 6)
	assert.ElementsMatch(t, []string{"mallard-1", "mallard-2", "rubber-1", "rubber-2", "decoy-1", "decoy-2"}, report.Produced)
	// every round of three hands out each kind once
	for _, round := range [][]string{report.Produced[:3], report.Produced[3:]} {
		kinds := map[string]bool{}
		for _, name := range round {
			kinds[strings.SplitN(name, "-", 2)[0]] = true
		}
		assert.Len(t, kinds, 3)
	}
	assert.Len(t, report.Performed, 6)
}

func TestRegisteredBehaviorOverridesCatalog(t *testing.T) {
	eng := newEngine(t)
	require.NoError(t, eng.Registry.Register("Quack", capability.Const("Honk")))

	s := &Scenario{Name: "x", Entities: []EntityConfig{{
		Name:      "goose",
		Behaviors: map[string]string{"quack": "Quack"},
		Perform:   []string{"quack"},
	}}}
	report, err := Run(context.Background(), eng, s, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"goose quack: Honk"}, report.Performed)
}
