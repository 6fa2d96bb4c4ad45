package scenario

import (
	"context"

	"github.com/appthrust/kest/pkg/action"
	"github.com/appthrust/kest/pkg/cluster"
	"github.com/appthrust/kest/pkg/shell"
)

// Apply server-side-applies manifest (spec §4.5) and registers a delete
// revert on success.
func (s *Scenario) Apply(ctx context.Context, manifest interface{}, opts ...ActionOption) error {
	in := action.ApplyInput{Manifest: manifest, Context: s.ctx}
	_, err := s.runMutate(ctx, action.DescribeApply(in), s.resolveConfig(opts), func(ctx context.Context) (action.MutateOutcome, error) {
		return action.Apply(ctx, s.deps(), in)
	})
	return err
}

// Create creates manifest, failing if it already exists (spec §4.5), and
// registers a delete revert on success.
func (s *Scenario) Create(ctx context.Context, manifest interface{}, opts ...ActionOption) error {
	in := action.CreateInput{Manifest: manifest, Context: s.ctx}
	_, err := s.runMutate(ctx, action.DescribeCreate(in), s.resolveConfig(opts), func(ctx context.Context) (action.MutateOutcome, error) {
		return action.Create(ctx, s.deps(), in)
	})
	return err
}

// ApplyStatus applies manifest against the status subresource (spec §4.5).
// One-way mutate: no revert is registered.
func (s *Scenario) ApplyStatus(ctx context.Context, manifest interface{}, opts ...ActionOption) error {
	in := action.ApplyStatusInput{Manifest: manifest, Context: s.ctx}
	_, err := runQuery(s, ctx, action.DescribeApplyStatus(in), s.resolveConfig(opts), func(ctx context.Context) (string, error) {
		return action.ApplyStatus(ctx, s.deps(), in)
	})
	return err
}

// Delete deletes the resource identified by ref (spec §4.5). One-way
// mutate.
func (s *Scenario) Delete(ctx context.Context, ref cluster.Reference, opts ...ActionOption) error {
	in := action.DeleteInput{Ref: ref, Context: s.ctx}
	_, err := runQuery(s, ctx, action.DescribeDelete(in), s.resolveConfig(opts), func(ctx context.Context) (string, error) {
		return action.Delete(ctx, s.deps(), in)
	})
	return err
}

// Label adds, updates, or removes labels on the resource identified by ref
// (spec §4.5). One-way mutate. A nil map value removes that label.
func (s *Scenario) Label(ctx context.Context, ref cluster.Reference, labels map[string]*string, overwrite bool, opts ...ActionOption) error {
	in := action.LabelInput{Ref: ref, Labels: labels, Overwrite: overwrite, Context: s.ctx}
	_, err := runQuery(s, ctx, action.DescribeLabel(in), s.resolveConfig(opts), func(ctx context.Context) (string, error) {
		return action.Label(ctx, s.deps(), in)
	})
	return err
}

// Get fetches the resource identified by ref and verifies its identity
// (spec §4.5).
func (s *Scenario) Get(ctx context.Context, ref cluster.Reference, opts ...ActionOption) (cluster.Manifest, error) {
	in := action.GetInput{Ref: ref, Context: s.ctx}
	return runQuery(s, ctx, action.DescribeGet(in), s.resolveConfig(opts), func(ctx context.Context) (cluster.Manifest, error) {
		return action.Get(ctx, s.deps(), in)
	})
}

// Assert fetches the resource identified by ref and invokes test against
// it, retrying both the fetch and the test under the action's retry budget
// (spec §4.5).
func (s *Scenario) Assert(ctx context.Context, ref cluster.Reference, test func(cluster.Manifest) error, opts ...ActionOption) (cluster.Manifest, error) {
	in := action.AssertInput{Ref: ref, Context: s.ctx, Test: test}
	return runQuery(s, ctx, action.DescribeAssert(in), s.resolveConfig(opts), func(ctx context.Context) (cluster.Manifest, error) {
		return action.Assert(ctx, s.deps(), in)
	})
}

// AssertAbsence succeeds iff ref does not exist (spec §4.5, §8).
func (s *Scenario) AssertAbsence(ctx context.Context, ref cluster.Reference, opts ...ActionOption) error {
	in := action.AssertAbsenceInput{Ref: ref, Context: s.ctx}
	_, err := runQuery(s, ctx, action.DescribeAssertAbsence(in), s.resolveConfig(opts), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, action.AssertAbsence(ctx, s.deps(), in)
	})
	return err
}

// AssertList lists resources of kind and invokes test against the full list
// (spec §4.5).
func (s *Scenario) AssertList(ctx context.Context, apiVersion, kind string, test func([]cluster.Manifest) error, opts ...ActionOption) ([]cluster.Manifest, error) {
	in := action.AssertListInput{APIVersion: apiVersion, Kind: kind, Context: s.ctx, Test: test}
	return runQuery(s, ctx, action.DescribeAssertList(in), s.resolveConfig(opts), func(ctx context.Context) ([]cluster.Manifest, error) {
		return action.AssertList(ctx, s.deps(), in)
	})
}

// AssertOne lists resources of kind, optionally filtered by where, requires
// exactly one match, and invokes test against it (spec §4.5).
func (s *Scenario) AssertOne(ctx context.Context, apiVersion, kind string, where func(cluster.Manifest) bool, test func(cluster.Manifest) error, opts ...ActionOption) (cluster.Manifest, error) {
	in := action.AssertOneInput{APIVersion: apiVersion, Kind: kind, Where: where, Context: s.ctx, Test: test}
	return runQuery(s, ctx, action.DescribeAssertOne(in), s.resolveConfig(opts), func(ctx context.Context) (cluster.Manifest, error) {
		return action.AssertOne(ctx, s.deps(), in)
	})
}

// AssertApplyError attempts an apply expected to fail, invoking test
// against the resulting error (spec §4.5). Mutate kind: registers no
// revert on the expected-error path, but reverts immediately if the apply
// unexpectedly succeeds.
func (s *Scenario) AssertApplyError(ctx context.Context, manifest interface{}, test func(error) error, opts ...ActionOption) error {
	in := action.AssertErrorInput{Manifest: manifest, Context: s.ctx, Test: test}
	_, err := s.runMutate(ctx, action.DescribeAssertApplyError(in), s.resolveConfig(opts), func(ctx context.Context) (action.MutateOutcome, error) {
		return action.AssertApplyError(ctx, s.deps(), in)
	})
	return err
}

// AssertCreateError is AssertApplyError's counterpart for the create verb.
func (s *Scenario) AssertCreateError(ctx context.Context, manifest interface{}, test func(error) error, opts ...ActionOption) error {
	in := action.AssertErrorInput{Manifest: manifest, Context: s.ctx, Test: test}
	_, err := s.runMutate(ctx, action.DescribeAssertCreateError(in), s.resolveConfig(opts), func(ctx context.Context) (action.MutateOutcome, error) {
		return action.AssertCreateError(ctx, s.deps(), in)
	})
	return err
}

// Exec invokes in.Do under the shell adapter port and registers in.Revert
// (or a no-op) as this action's cleanup (spec §4.5).
func (s *Scenario) Exec(ctx context.Context, in action.ExecInput, opts ...ActionOption) (shell.Result, error) {
	outcome, err := s.runMutate(ctx, action.DescribeExec(in), s.resolveConfig(opts), func(ctx context.Context) (action.MutateOutcome, error) {
		return action.Exec(ctx, s.deps(), in)
	})
	return shell.Result{Stdout: outcome.Output}, err
}

// NewNamespace creates a namespace (exact, generated-prefix, or fully
// auto-generated name per in) and returns a child Scenario whose every
// operation is bound to it (spec §4.6's "newNamespace" scope derivation).
func (s *Scenario) NewNamespace(ctx context.Context, in action.NamespaceInput, opts ...ActionOption) (*Scenario, error) {
	outcome, err := s.runMutate(ctx, action.DescribeCreateNamespace(in), s.resolveConfig(opts), func(ctx context.Context) (action.MutateOutcome, error) {
		return action.CreateNamespace(ctx, s.deps(), in)
	})
	if err != nil {
		return nil, err
	}
	return s.withContext(cluster.Context{Namespace: outcome.CreatedName}), nil
}

// NewNamespaceApplied is NewNamespace's server-side-apply counterpart,
// idempotent under retried scenario setup (spec §4.5's ApplyNamespace).
func (s *Scenario) NewNamespaceApplied(ctx context.Context, in action.NamespaceInput, opts ...ActionOption) (*Scenario, error) {
	outcome, err := s.runMutate(ctx, action.DescribeApplyNamespace(in), s.resolveConfig(opts), func(ctx context.Context) (action.MutateOutcome, error) {
		return action.ApplyNamespace(ctx, s.deps(), in)
	})
	if err != nil {
		return nil, err
	}
	return s.withContext(cluster.Context{Namespace: outcome.CreatedName}), nil
}

// UseCluster returns a child Scenario whose every operation is bound to the
// cluster identified by ref, layering {context, kubeconfig} (spec §4.6's
// "useCluster" scope derivation). A cluster view may itself call
// NewNamespace, producing a view bound to both.
func (s *Scenario) UseCluster(ref cluster.Context) *Scenario {
	return s.withContext(cluster.Context{KubeContext: ref.KubeContext, Kubeconfig: ref.Kubeconfig})
}
