// Package scenario implements the Scenario runtime of spec §4.6: the
// stateful DSL that composes actions, records their events, and manages the
// namespace/cluster context scoping a test author layers calls under.
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/appthrust/kest/pkg/action"
	"github.com/appthrust/kest/pkg/cluster"
	"github.com/appthrust/kest/pkg/event"
	"github.com/appthrust/kest/pkg/kesterr"
	"github.com/appthrust/kest/pkg/logging"
	"github.com/appthrust/kest/pkg/report"
	"github.com/appthrust/kest/pkg/retry"
	"github.com/appthrust/kest/pkg/revert"
	"github.com/appthrust/kest/pkg/shell"
	"github.com/google/uuid"
)

// state tracks the lifecycle spec §3 describes: initialized -> running ->
// awaiting-cleanup -> complete.
type state int

const (
	stateInitialized state = iota
	stateRunning
	stateAwaitingCleanup
	stateComplete
)

// Scenario owns the Recorder, the cluster client, and the Reverting stack
// for one test run (spec §4.6). NewNamespace/UseCluster derive child
// Scenarios that share the same Recorder and Reverting stack but carry a
// freshly context-layered client — a tree of views with no back-references
// (SPEC_FULL.md design notes, "cycle-free ownership").
type Scenario struct {
	name      string
	runID     string
	recorder  *event.Recorder
	reverting *revert.Stack
	client    cluster.Client
	shell     shell.Runner
	ctx       cluster.Context

	preserveOnFailure bool
	state             state
}

// Option configures a new Scenario.
type Option func(*Scenario)

// WithPreserveOnFailure makes Run call Reverting.Skip() instead of
// Reverting.Revert() when the scenario body fails (spec §6,
// KEST_PRESERVE_ON_FAILURE).
func WithPreserveOnFailure(preserve bool) Option {
	return func(s *Scenario) { s.preserveOnFailure = preserve }
}

// WithContext seeds the Scenario's default cluster context (spec §3).
func WithContext(ctx cluster.Context) Option {
	return func(s *Scenario) { s.ctx = ctx }
}

// New returns an initialized Scenario named name, bound to client and shell.
func New(name string, client cluster.Client, shellRunner shell.Runner, opts ...Option) *Scenario {
	s := &Scenario{
		name:      name,
		runID:     uuid.NewString(),
		recorder:  event.NewRecorder(),
		shell:     shellRunner,
		state:     stateInitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reverting = revert.New(s.recorder)
	s.client = client.Extend(s.ctx)
	return s
}

// Recorder exposes the scenario's event log, for callers that want to
// render a report or dump raw events (spec §6, KEST_SHOW_EVENTS).
func (s *Scenario) Recorder() *event.Recorder { return s.recorder }

// Name returns the scenario's name.
func (s *Scenario) Name() string { return s.name }

func (s *Scenario) deps() action.Deps {
	return action.Deps{Client: s.client, Recorder: s.recorder, Shell: s.shell}
}

// ActionOption configures a single action call's retry budget (spec §4.3:
// "{timeout = 5s, interval = 200ms}" are the per-call defaults a caller may
// override).
type ActionOption func(*retry.Config)

// WithTimeout overrides an action's retry timeout.
func WithTimeout(d time.Duration) ActionOption {
	return func(c *retry.Config) { c.Timeout = d }
}

// WithInterval overrides an action's retry interval.
func WithInterval(d time.Duration) ActionOption {
	return func(c *retry.Config) { c.Interval = d }
}

func (s *Scenario) resolveConfig(opts []ActionOption) retry.Config {
	cfg := retry.DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Recorder = s.recorder
	return cfg
}

// runMutate implements the mutate pattern of spec §4.6: ActionStart, the
// body under retry, a revert push on success, ActionEnd.
func (s *Scenario) runMutate(ctx context.Context, describe string, cfg retry.Config, thunk retry.Thunk[action.MutateOutcome]) (action.MutateOutcome, error) {
	s.recorder.Record(event.KindActionStart, event.ActionStart{Description: describe})

	outcome, err := retry.Until(ctx, cfg, thunk)
	if err != nil {
		sum := kesterr.Summarize(err)
		logging.Error("Scenario", err, "action failed: %s", describe)
		if sum.Stack != "" {
			logging.Debug("Scenario", "trace for %s:\n%s", describe, report.RenderTrace(sum.Stack, ""))
		}
		s.recorder.Record(event.KindActionEnd, event.ActionEnd{OK: false, Error: sum})
		return outcome, err
	}

	if outcome.Revert != nil {
		s.pushRevert(outcome.RevertDescribe, outcome.Revert)
	}
	s.recorder.Record(event.KindActionEnd, event.ActionEnd{OK: true})
	return outcome, nil
}

// runQuery implements the one-way-mutate and query patterns of spec §4.6,
// which are structurally identical: ActionStart, the body under retry,
// ActionEnd, no revert registration.
func runQuery[T any](s *Scenario, ctx context.Context, describe string, cfg retry.Config, thunk retry.Thunk[T]) (T, error) {
	s.recorder.Record(event.KindActionStart, event.ActionStart{Description: describe})

	value, err := retry.Until(ctx, cfg, thunk)
	if err != nil {
		sum := kesterr.Summarize(err)
		logging.Error("Scenario", err, "action failed: %s", describe)
		if sum.Stack != "" {
			logging.Debug("Scenario", "trace for %s:\n%s", describe, report.RenderTrace(sum.Stack, ""))
		}
		s.recorder.Record(event.KindActionEnd, event.ActionEnd{OK: false, Error: sum})
		return value, err
	}

	s.recorder.Record(event.KindActionEnd, event.ActionEnd{OK: true})
	return value, nil
}

// pushRevert wraps a revert callback so that, when the Reverting stack
// drains it, it emits its own ActionStart/End pair — revert phases appear
// in the event log exactly like forward phases (spec §4.6 step 3).
func (s *Scenario) pushRevert(describe string, fn revert.Func) {
	s.reverting.Add(func(ctx context.Context) error {
		s.recorder.Record(event.KindActionStart, event.ActionStart{Description: describe})
		err := fn(ctx)
		s.recorder.Record(event.KindActionEnd, event.ActionEnd{OK: err == nil, Error: kesterr.Summarize(err)})
		return err
	})
}

// withContext derives a child Scenario sharing this one's Recorder and
// Reverting stack but layering override onto both the context and the
// client.
func (s *Scenario) withContext(override cluster.Context) *Scenario {
	child := *s
	child.ctx = s.ctx.Combine(override)
	child.client = s.client.Extend(override)
	return &child
}

// Run drives body to completion, bracketing it with ScenarioStart/End and
// guaranteeing the Reverting stack drains (or is skipped) no matter how
// body exits (spec §4.6's finalization step, §5's "no transaction, only
// best-effort LIFO" guarantee).
func (s *Scenario) Run(ctx context.Context, body func(ctx context.Context, s *Scenario) error) (err error) {
	s.state = stateRunning
	s.recorder.Record(event.KindScenarioStart, event.ScenarioStart{Name: s.name})
	logging.Info("Scenario", "starting %q (run=%s)", s.name, s.runID)

	defer func() {
		s.state = stateAwaitingCleanup
		if r := recover(); r != nil {
			// A panic means the scenario body itself misbehaved; go straight to
			// stderr so the failure is visible even if the configured logger
			// is broken or was never initialized.
			logging.Fallback("kest: scenario %q panicked: %v\n", s.name, r)
			err = fmt.Errorf("scenario %q panicked: %v", s.name, r)
		}

		if cleanupErr := s.finishCleanup(ctx, err != nil); err == nil {
			err = cleanupErr
		}

		s.recorder.Record(event.KindScenarioEnd, event.ScenarioEnd{})
		s.state = stateComplete
		logging.Info("Scenario", "finished %q (run=%s)", s.name, s.runID)
	}()

	err = body(ctx, s)
	return err
}

func (s *Scenario) finishCleanup(ctx context.Context, bodyFailed bool) error {
	if s.preserveOnFailure && bodyFailed {
		s.reverting.Skip()
		return nil
	}
	return s.reverting.Revert(ctx)
}

// Given, When, Then, And, But record BDD annotations (spec §4.6). They have
// no execution effect; they only partition actions for reporting.
func (s *Scenario) Given(description string) *Scenario { return s.bdd(event.KindBDDGiven, description) }
func (s *Scenario) When(description string) *Scenario  { return s.bdd(event.KindBDDWhen, description) }
func (s *Scenario) Then(description string) *Scenario  { return s.bdd(event.KindBDDThen, description) }
func (s *Scenario) And(description string) *Scenario   { return s.bdd(event.KindBDDAnd, description) }
func (s *Scenario) But(description string) *Scenario   { return s.bdd(event.KindBDDBut, description) }

func (s *Scenario) bdd(kind event.Kind, description string) *Scenario {
	s.recorder.Record(kind, event.BDD{Description: description})
	return s
}
