// Package event defines the append-only, totally ordered event stream every
// scenario run produces (spec §3), and the typed payloads attached to each
// kind. The report parser (pkg/report) folds this stream into the report
// model in one pass; nothing else re-reads it.
package event

import "github.com/appthrust/kest/pkg/kesterr"

// Kind is the closed set of event kinds a scenario run can emit.
type Kind string

const (
	KindScenarioStart     Kind = "ScenarioStart"
	KindScenarioEnd       Kind = "ScenarioEnd"
	KindBDDGiven          Kind = "BDDGiven"
	KindBDDWhen           Kind = "BDDWhen"
	KindBDDThen           Kind = "BDDThen"
	KindBDDAnd            Kind = "BDDAnd"
	KindBDDBut            Kind = "BDDBut"
	KindActionStart       Kind = "ActionStart"
	KindActionEnd         Kind = "ActionEnd"
	KindCommandRun        Kind = "CommandRun"
	KindCommandResult     Kind = "CommandResult"
	KindRetryStart        Kind = "RetryStart"
	KindRetryAttempt      Kind = "RetryAttempt"
	KindRetryEnd          Kind = "RetryEnd"
	KindRevertingsStart   Kind = "RevertingsStart"
	KindRevertingsEnd     Kind = "RevertingsEnd"
	KindRevertingsSkipped Kind = "RevertingsSkipped"
)

// Event is one record in the stream: a kind paired with its typed payload.
type Event struct {
	Kind    Kind
	Payload interface{}
}

// ScenarioStart payload.
type ScenarioStart struct {
	Name string
}

// ScenarioEnd payload (carries nothing; its presence is the signal).
type ScenarioEnd struct{}

// BDD is the shared payload shape for Given/When/Then/And/But — they differ
// only by Kind, never by payload structure.
type BDD struct {
	Description string
}

// ActionStart payload.
type ActionStart struct {
	Description string
}

// ActionEnd payload.
type ActionEnd struct {
	OK    bool
	Error *kesterr.Summary
}

// CommandRun payload: one subprocess invocation about to happen.
type CommandRun struct {
	Cmd           string
	Args          []string
	Stdin         string
	StdinLanguage string
}

// CommandResult payload: the outcome of the most recently run command.
type CommandResult struct {
	ExitCode       int
	Stdout         string
	Stderr         string
	StdoutLanguage string
	StderrLanguage string
}

// RetryStart payload (empty; recorded only once a retry will occur).
type RetryStart struct{}

// RetryAttempt payload.
type RetryAttempt struct {
	Attempt int
}

// RetryReason is why a retry loop stopped.
type RetryReason string

const (
	RetryReasonSuccess RetryReason = "success"
	RetryReasonTimeout RetryReason = "timeout"
)

// RetryEnd payload.
type RetryEnd struct {
	Attempts int
	Success  bool
	Reason   RetryReason
	Error    *kesterr.Summary
}

// RevertingsStart payload.
type RevertingsStart struct{}

// RevertingsEnd payload.
type RevertingsEnd struct{}

// RevertingsSkipped payload.
type RevertingsSkipped struct{}
