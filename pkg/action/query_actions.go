package action

import (
	"context"
	"fmt"

	"github.com/appthrust/kest/pkg/cluster"
	"github.com/appthrust/kest/pkg/kesterr"
)

// GetInput is the input to Get: the resource to fetch.
type GetInput struct {
	Ref     cluster.Reference
	Context cluster.Context
}

// DescribeGet renders the report description for a Get call.
func DescribeGet(in GetInput) string {
	return fmt.Sprintf("Get %s %s", in.Ref.Kind, in.Ref.Name)
}

// Get fetches a resource by kind and name and verifies the fetched object's
// apiVersion, kind, and metadata.name match the reference (spec §4.5).
func Get(ctx context.Context, deps Deps, in GetInput) (cluster.Manifest, error) {
	raw, err := deps.Client.Get(ctx, in.Ref.TypeName(), in.Ref.Name, in.Context)
	if err != nil {
		return cluster.Manifest{}, err
	}

	m, err := cluster.ParseAny(raw)
	if err != nil {
		return cluster.Manifest{}, err
	}

	if m.APIVersion != in.Ref.APIVersion || m.Kind != in.Ref.Kind || m.Name != in.Ref.Name {
		return cluster.Manifest{}, fmt.Errorf(
			"fetched object %s/%s %q does not match reference %s/%s %q",
			m.APIVersion, m.Kind, m.Name, in.Ref.APIVersion, in.Ref.Kind, in.Ref.Name,
		)
	}

	return m, nil
}

// AssertInput is the input to Assert: the resource to fetch and the
// caller-supplied test callback run against it.
type AssertInput struct {
	Ref     cluster.Reference
	Context cluster.Context
	Test    func(cluster.Manifest) error
}

// DescribeAssert renders the report description for an Assert call.
func DescribeAssert(in AssertInput) string {
	return fmt.Sprintf("Assert %s %s", in.Ref.Kind, in.Ref.Name)
}

// Assert fetches a resource and invokes the test callback against it (spec
// §4.5). A failing callback is retried by the Scenario's retry wrapper
// exactly like a transient cluster-client failure.
func Assert(ctx context.Context, deps Deps, in AssertInput) (cluster.Manifest, error) {
	m, err := Get(ctx, deps, GetInput{Ref: in.Ref, Context: in.Context})
	if err != nil {
		return m, err
	}
	if err := in.Test(m); err != nil {
		return m, err
	}
	return m, nil
}

// AssertAbsenceInput is the input to AssertAbsence.
type AssertAbsenceInput struct {
	Ref     cluster.Reference
	Context cluster.Context
}

// DescribeAssertAbsence renders the report description for an AssertAbsence
// call.
func DescribeAssertAbsence(in AssertAbsenceInput) string {
	return fmt.Sprintf("AssertAbsence %s %s", in.Ref.Kind, in.Ref.Name)
}

// AssertAbsence succeeds iff the fetch fails with a not-found signal; any
// other error is re-raised, and a successful fetch is this action's failure
// (spec §4.5, §8).
func AssertAbsence(ctx context.Context, deps Deps, in AssertAbsenceInput) error {
	m, err := Get(ctx, deps, GetInput{Ref: in.Ref, Context: in.Context})
	if err == nil {
		return fmt.Errorf("expected %s %s to be absent, but found it (apiVersion %s)", in.Ref.Kind, in.Ref.Name, m.APIVersion)
	}
	if kesterr.IsNotFound(err) {
		return nil
	}
	return err
}

// AssertListInput is the input to AssertList.
type AssertListInput struct {
	APIVersion string
	Kind       string
	Context    cluster.Context
	Test       func([]cluster.Manifest) error
}

// DescribeAssertList renders the report description for an AssertList call.
func DescribeAssertList(in AssertListInput) string {
	return fmt.Sprintf("AssertList %s", in.Kind)
}

// AssertList lists resources of a kind, verifies every item's kind matches,
// and invokes the test callback with the full list (spec §4.5).
func AssertList(ctx context.Context, deps Deps, in AssertListInput) ([]cluster.Manifest, error) {
	typeName := cluster.TypeName(in.APIVersion, in.Kind)
	raw, err := deps.Client.List(ctx, typeName, in.Context)
	if err != nil {
		return nil, err
	}

	items, err := cluster.ParseList(raw)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.Kind != in.Kind {
			return items, fmt.Errorf("list item kind %q does not match expected kind %q", item.Kind, in.Kind)
		}
	}

	if err := in.Test(items); err != nil {
		return items, err
	}
	return items, nil
}

// AssertOneInput is the input to AssertOne. Where, if set, filters the
// listed items before the exactly-one check.
type AssertOneInput struct {
	APIVersion string
	Kind       string
	Where      func(cluster.Manifest) bool
	Context    cluster.Context
	Test       func(cluster.Manifest) error
}

// DescribeAssertOne renders the report description for an AssertOne call.
func DescribeAssertOne(in AssertOneInput) string {
	return fmt.Sprintf("AssertOne %s", in.Kind)
}

// AssertOne lists resources of a kind, optionally filters by a predicate,
// requires exactly one match, and invokes the test callback with it (spec
// §4.5).
func AssertOne(ctx context.Context, deps Deps, in AssertOneInput) (cluster.Manifest, error) {
	typeName := cluster.TypeName(in.APIVersion, in.Kind)
	raw, err := deps.Client.List(ctx, typeName, in.Context)
	if err != nil {
		return cluster.Manifest{}, err
	}

	items, err := cluster.ParseList(raw)
	if err != nil {
		return cluster.Manifest{}, err
	}

	var matched []cluster.Manifest
	for _, item := range items {
		if in.Where == nil || in.Where(item) {
			matched = append(matched, item)
		}
	}

	if len(matched) != 1 {
		return cluster.Manifest{}, fmt.Errorf("expected exactly one %s, found %d", in.Kind, len(matched))
	}

	one := matched[0]
	if err := in.Test(one); err != nil {
		return one, err
	}
	return one, nil
}
