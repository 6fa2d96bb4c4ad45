// Package action implements the action taxonomy of spec §4.5: the mutate,
// one-way-mutate, and query action bodies a Scenario dispatches. Each action
// here is a pure(ish) body — it talks to the cluster client and the shell
// adapter and returns a result or an error — leaving the ActionStart/End and
// retry event-recording discipline to pkg/scenario, which wraps every call
// here in the pattern described by spec §4.6.
package action

import (
	"github.com/appthrust/kest/pkg/cluster"
	"github.com/appthrust/kest/pkg/event"
	"github.com/appthrust/kest/pkg/revert"
	"github.com/appthrust/kest/pkg/shell"
)

// Deps is the capability set every action body needs. A Scenario builds one
// of these per call from its own client/recorder/shell, rebinding Client as
// it layers namespace/cluster views.
type Deps struct {
	Client   cluster.Client
	Recorder *event.Recorder
	Shell    shell.Runner
}

// MutateOutcome is what a mutate-kind action body hands back to the retry
// engine and, through it, to the Scenario: the raw cluster-client output,
// and — on success — the revert callback (and its own report description)
// that undoes this action. CreatedName is set only by namespace creation,
// where the caller needs the generated name back out of the retry loop.
type MutateOutcome struct {
	Output         string
	Revert         revert.Func
	RevertDescribe string
	CreatedName    string
}
