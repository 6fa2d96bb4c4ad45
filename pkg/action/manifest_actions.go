package action

import (
	"context"
	"fmt"

	"github.com/appthrust/kest/pkg/cluster"
)

// ApplyInput is the input to Apply: any manifest variant the parsing port
// (spec §6) accepts, plus the context override this call should use.
type ApplyInput struct {
	Manifest interface{}
	Context  cluster.Context
}

// DescribeApply renders the report description for an Apply call, following
// the catalogue of spec §4.5. A manifest that fails to parse still needs a
// description (the parse error surfaces as the action's own failure).
func DescribeApply(in ApplyInput) string {
	m, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return "Apply"
	}
	return fmt.Sprintf("Apply %s %s", m.Kind, m.Name)
}

// Apply parses the manifest and sends a server-side apply (spec §4.5). Its
// revert deletes the resource by kind and name, tolerating not-found.
func Apply(ctx context.Context, deps Deps, in ApplyInput) (MutateOutcome, error) {
	manifest, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return MutateOutcome{}, err
	}

	output, err := deps.Client.Apply(ctx, manifest, in.Context)
	if err != nil {
		return MutateOutcome{}, err
	}

	typeName := cluster.TypeName(manifest.APIVersion, manifest.Kind)
	return MutateOutcome{
		Output:         output,
		RevertDescribe: fmt.Sprintf("Delete %s %s", manifest.Kind, manifest.Name),
		Revert: func(ctx context.Context) error {
			_, err := deps.Client.Delete(ctx, typeName, manifest.Name, cluster.DeleteOptions{
				IgnoreNotFound: true,
				Context:        in.Context,
			})
			return err
		},
	}, nil
}

// CreateInput is the input to Create: identical shape to ApplyInput, since
// the only difference between Apply and Create is the client verb invoked.
type CreateInput struct {
	Manifest interface{}
	Context  cluster.Context
}

// DescribeCreate renders the report description for a Create call.
func DescribeCreate(in CreateInput) string {
	m, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return "Create"
	}
	return fmt.Sprintf("Create %s %s", m.Kind, m.Name)
}

// Create parses the manifest and creates the resource, failing if it already
// exists (spec §4.5). Its revert deletes the resource by kind and name,
// tolerating not-found, identically to Apply's.
func Create(ctx context.Context, deps Deps, in CreateInput) (MutateOutcome, error) {
	manifest, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return MutateOutcome{}, err
	}

	output, err := deps.Client.Create(ctx, manifest, in.Context)
	if err != nil {
		return MutateOutcome{}, err
	}

	typeName := cluster.TypeName(manifest.APIVersion, manifest.Kind)
	return MutateOutcome{
		Output:         output,
		RevertDescribe: fmt.Sprintf("Delete %s %s", manifest.Kind, manifest.Name),
		Revert: func(ctx context.Context) error {
			_, err := deps.Client.Delete(ctx, typeName, manifest.Name, cluster.DeleteOptions{
				IgnoreNotFound: true,
				Context:        in.Context,
			})
			return err
		},
	}, nil
}

// ApplyStatusInput is the input to ApplyStatus.
type ApplyStatusInput struct {
	Manifest interface{}
	Context  cluster.Context
}

// DescribeApplyStatus renders the report description for an ApplyStatus call.
func DescribeApplyStatus(in ApplyStatusInput) string {
	m, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return "ApplyStatus"
	}
	return fmt.Sprintf("ApplyStatus %s %s", m.Kind, m.Name)
}

// ApplyStatus performs a server-side apply against the status subresource
// (spec §4.5). One-way mutate: it registers no revert, since undoing a
// status write is not well-defined in general.
func ApplyStatus(ctx context.Context, deps Deps, in ApplyStatusInput) (string, error) {
	manifest, err := cluster.ParseAny(in.Manifest)
	if err != nil {
		return "", err
	}
	if _, ok := manifest.Raw["status"]; !ok {
		return "", fmt.Errorf("applyStatus requires the manifest to include status")
	}
	return deps.Client.ApplyStatus(ctx, manifest, in.Context)
}

// DeleteInput is the input to Delete.
type DeleteInput struct {
	Ref     cluster.Reference
	Context cluster.Context
}

// DescribeDelete renders the report description for a Delete call.
func DescribeDelete(in DeleteInput) string {
	return fmt.Sprintf("Delete %s %s", in.Ref.Kind, in.Ref.Name)
}

// Delete deletes a resource by kind and name (spec §4.5). One-way mutate.
func Delete(ctx context.Context, deps Deps, in DeleteInput) (string, error) {
	return deps.Client.Delete(ctx, in.Ref.TypeName(), in.Ref.Name, cluster.DeleteOptions{Context: in.Context})
}

// LabelInput is the input to Label. A nil map value removes that label; a
// non-nil value sets or updates it (spec §4.5).
type LabelInput struct {
	Ref       cluster.Reference
	Labels    map[string]*string
	Overwrite bool
	Context   cluster.Context
}

// DescribeLabel renders the report description for a Label call.
func DescribeLabel(in LabelInput) string {
	return fmt.Sprintf("Label %s %s", in.Ref.Kind, in.Ref.Name)
}

// Label adds, updates, or removes labels on a resource (spec §4.5). One-way
// mutate.
func Label(ctx context.Context, deps Deps, in LabelInput) (string, error) {
	return deps.Client.Label(ctx, in.Ref.TypeName(), in.Ref.Name, in.Labels, cluster.LabelOptions{
		Overwrite: in.Overwrite,
		Context:   in.Context,
	})
}
