package action

import (
	"context"

	"github.com/appthrust/kest/pkg/shell"
)

// ExecInput is the input to Exec. Do and Revert are opaque callbacks driving
// the shell adapter port (spec §6) directly — the action taxonomy cannot
// describe an arbitrary command by inspection, so the caller supplies the
// report description too. Revert may be nil, in which case the pushed
// revert callback is a no-op (spec §4.5: "registers revert (or a no-op)").
type ExecInput struct {
	Description string
	Do          func(ctx context.Context, sh shell.Runner) (shell.Result, error)
	Revert      func(ctx context.Context, sh shell.Runner) (shell.Result, error)
}

// DescribeExec renders the report description for an Exec call.
func DescribeExec(in ExecInput) string {
	if in.Description != "" {
		return in.Description
	}
	return "Exec"
}

// Exec invokes the user's Do callback under the shell adapter and registers
// Revert (or a no-op) as this action's cleanup (spec §4.5).
func Exec(ctx context.Context, deps Deps, in ExecInput) (MutateOutcome, error) {
	result, err := in.Do(ctx, deps.Shell)
	if err != nil {
		return MutateOutcome{}, err
	}

	revertFn := func(ctx context.Context) error {
		if in.Revert == nil {
			return nil
		}
		_, err := in.Revert(ctx, deps.Shell)
		return err
	}

	return MutateOutcome{
		Output:         result.Stdout,
		RevertDescribe: "Revert: " + DescribeExec(in),
		Revert:         revertFn,
	}, nil
}
