// Package report implements the event-stream fold and Markdown rendering of
// spec §4.7/§4.8: translating a scenario's recorded event stream into a
// language-neutral report model, then rendering that model as Markdown.
package report

// Status is the outcome of one overview or cleanup row.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Report is the root of the derived report model: one entry per scenario
// whose events were folded (spec §3).
type Report struct {
	Scenarios []*Scenario
}

// Scenario is the per-scenario report model.
type Scenario struct {
	Name           string
	Overview       []*OverviewItem
	Details        []Detail
	Cleanup        []*CleanupItem
	CleanupSkipped bool
}

// OverviewItem is one row in the "Scenario Overview" table.
type OverviewItem struct {
	Name   string
	Status Status
}

// Detail is satisfied by *BDDSection and *Action: the two kinds of entry a
// scenario's "Scenario Details" section holds.
type Detail interface {
	isDetail()
}

// BDDSection groups the actions recorded between one BDD annotation and the
// next (spec §4.7). Reporting-only: it has no execution effect.
type BDDSection struct {
	Keyword     string
	Description string
	Actions     []*Action
}

func (*BDDSection) isDetail() {}

// Action is one action's report entry: its commands, its attempt count (if
// it retried), and its error (if it failed).
type Action struct {
	Name     string
	Attempts *int
	Commands []*Command
	Error    *ActionError
}

func (*Action) isDetail() {}

// ActionError is an action's failure, reduced to what the renderer needs:
// a classified message and an optional stack trace (spec §4.9's
// cause-unwrapping rule has already run by the time this is built).
type ActionError struct {
	Message Text
	Stack   string
}

// Text is a string paired with an optional language tag, used for stdin,
// stdout, stderr, and classified error messages alike.
type Text struct {
	Value    string
	Language string
}

// Command is one subprocess invocation recorded within an action.
type Command struct {
	Cmd    string
	Args   []string
	Stdin  *Text
	Stdout *Text
	Stderr *Text
}

// CleanupItem is one row in the report's cleanup table/session.
type CleanupItem struct {
	Action  string
	Status  Status
	Command CleanupCommand
}

// CleanupCommand is the single command a cleanup item ran, with its
// combined output (spec §4.7: "CommandRun ... overwrites the current
// cleanup item's command").
type CleanupCommand struct {
	Cmd    string
	Args   []string
	Output string
}
