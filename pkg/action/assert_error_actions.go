package action

import (
	"context"
	"fmt"

	"github.com/appthrust/kest/pkg/cluster"
	"github.com/appthrust/kest/pkg/logging"
)

// AssertErrorInput is the input to AssertApplyError and AssertCreateError.
type AssertErrorInput struct {
	Manifest interface{}
	Context  cluster.Context
	Test     func(error) error
}

// DescribeAssertApplyError renders the report description for an
// AssertApplyError call.
func DescribeAssertApplyError(in AssertErrorInput) string {
	m, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return "AssertApplyError"
	}
	return fmt.Sprintf("AssertApplyError %s %s", m.Kind, m.Name)
}

// AssertApplyError attempts an apply that is expected to fail (spec §4.5).
// If it unexpectedly succeeds, the created resource is reverted immediately
// and an error is raised, which the Scenario's retry wrapper will retry
// against. If it fails as expected, the test callback runs against the
// error. Registers no revert on the expected-error path.
func AssertApplyError(ctx context.Context, deps Deps, in AssertErrorInput) (MutateOutcome, error) {
	manifest, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return MutateOutcome{}, err
	}

	_, applyErr := deps.Client.Apply(ctx, manifest, in.Context)
	if applyErr == nil {
		revertUnexpectedSuccess(ctx, deps, manifest, in.Context)
		return MutateOutcome{}, fmt.Errorf("expected apply of %s %s to fail, but it succeeded", manifest.Kind, manifest.Name)
	}

	if testErr := in.Test(applyErr); testErr != nil {
		return MutateOutcome{}, testErr
	}
	return MutateOutcome{}, nil
}

// DescribeAssertCreateError renders the report description for an
// AssertCreateError call.
func DescribeAssertCreateError(in AssertErrorInput) string {
	m, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return "AssertCreateError"
	}
	return fmt.Sprintf("AssertCreateError %s %s", m.Kind, m.Name)
}

// AssertCreateError is AssertApplyError's counterpart for the create verb.
func AssertCreateError(ctx context.Context, deps Deps, in AssertErrorInput) (MutateOutcome, error) {
	manifest, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return MutateOutcome{}, err
	}

	_, createErr := deps.Client.Create(ctx, manifest, in.Context)
	if createErr == nil {
		revertUnexpectedSuccess(ctx, deps, manifest, in.Context)
		return MutateOutcome{}, fmt.Errorf("expected create of %s %s to fail, but it succeeded", manifest.Kind, manifest.Name)
	}

	if testErr := in.Test(createErr); testErr != nil {
		return MutateOutcome{}, testErr
	}
	return MutateOutcome{}, nil
}

// revertUnexpectedSuccess deletes a resource that an AssertApplyError or
// AssertCreateError call created by surprise. A failure here is logged, not
// raised: the caller's own "unexpectedly succeeded" error is the one that
// matters to the retry loop.
func revertUnexpectedSuccess(ctx context.Context, deps Deps, manifest cluster.Manifest, override cluster.Context) {
	typeName := cluster.TypeName(manifest.APIVersion, manifest.Kind)
	if _, err := deps.Client.Delete(ctx, typeName, manifest.Name, cluster.DeleteOptions{IgnoreNotFound: true, Context: override}); err != nil {
		logging.Warn("Action", "reverting unexpectedly-successful %s %s failed: %v", manifest.Kind, manifest.Name, err)
	}
}
