package cluster

import "context"

// DeleteOptions configures Delete (spec §6).
type DeleteOptions struct {
	IgnoreNotFound bool
	Context        Context
}

// PatchOptions configures Patch (spec §6).
type PatchOptions struct {
	Type    string
	Context Context
}

// LabelOptions configures Label (spec §6). The labels themselves are passed
// to Label separately: a non-nil value sets or updates a label, nil removes
// it.
type LabelOptions struct {
	Overwrite bool
	Context   Context
}

// Client is the capability surface the core consumes from a concrete
// cluster client (spec §6). The core never depends on pkg/kubectl directly;
// it depends on this interface, satisfied by whatever adapter the host
// wires in.
type Client interface {
	// Extend returns a Client whose calls are contextually re-bound by
	// layering override onto this client's own context.
	Extend(override Context) Client

	Apply(ctx context.Context, manifest Manifest, override Context) (string, error)
	ApplyStatus(ctx context.Context, manifest Manifest, override Context) (string, error)
	Create(ctx context.Context, manifest Manifest, override Context) (string, error)
	Get(ctx context.Context, typeName, name string, override Context) (string, error)
	List(ctx context.Context, typeName string, override Context) (string, error)
	Patch(ctx context.Context, typeName, name, patch string, opts PatchOptions) (string, error)
	Delete(ctx context.Context, typeName, name string, opts DeleteOptions) (string, error)
	Label(ctx context.Context, typeName, name string, labels map[string]*string, opts LabelOptions) (string, error)
}
