package action

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/appthrust/kest/pkg/cluster"
)

// nameAlphabet deliberately excludes vowels so generated names never spell
// an accidental word (spec §4.5).
const nameAlphabet = "bcdfghjklmnpqrstvwxyz0123456789"

// randomNameLen is the fixed length of the generated suffix (spec §4.5,
// §8: `/^foo-[bcdfghjklmnpqrstvwxyz0-9]{5}$/`).
const randomNameLen = 5

// defaultNamespacePrefix is used when the input omits both Name and
// GenerateName.
const defaultNamespacePrefix = "kest-"

// maxNameCollisionAttempts bounds the auto-generated-name retry loop so a
// persistently colliding cluster cannot spin CreateNamespace forever.
const maxNameCollisionAttempts = 20

// RandomName draws randomNameLen characters uniformly from nameAlphabet. A
// pure function, exposed to scenario authors directly and used internally
// for namespace auto-naming.
func RandomName() string {
	var b strings.Builder
	for i := 0; i < randomNameLen; i++ {
		b.WriteByte(nameAlphabet[rand.Intn(len(nameAlphabet))])
	}
	return b.String()
}

// NamespaceInput is the input to ApplyNamespace/CreateNamespace. The three
// variants of spec §4.5: Name set uses that exact name; GenerateName set
// uses that prefix plus a random suffix; both empty generates
// "kest-<suffix>".
type NamespaceInput struct {
	Name         string
	GenerateName string
}

func resolveNamespaceName(in NamespaceInput) string {
	if in.Name != "" {
		return in.Name
	}
	prefix := in.GenerateName
	if prefix == "" {
		prefix = defaultNamespacePrefix
	}
	return prefix + RandomName()
}

func namespaceManifest(name string) cluster.Manifest {
	return cluster.Manifest{
		APIVersion: "v1",
		Kind:       "Namespace",
		Name:       name,
		Raw: map[string]interface{}{
			"apiVersion": "v1",
			"kind":       "Namespace",
			"metadata":   map[string]interface{}{"name": name},
		},
	}
}

// DescribeApplyNamespace renders the report description for an
// ApplyNamespace call. The name is not known until the call runs, so this
// describes the intent rather than the outcome, matching how Apply/Create
// describe by manifest identity before execution.
func DescribeApplyNamespace(in NamespaceInput) string {
	return "ApplyNamespace"
}

// ApplyNamespace server-side-applies a Namespace object, using the exact or
// generated name from in (spec §4.5). Apply is idempotent, so no
// collision-retry loop is needed here.
func ApplyNamespace(ctx context.Context, deps Deps, in NamespaceInput) (MutateOutcome, error) {
	name := resolveNamespaceName(in)
	manifest := namespaceManifest(name)

	output, err := deps.Client.Apply(ctx, manifest, cluster.Context{})
	if err != nil {
		return MutateOutcome{}, err
	}

	return MutateOutcome{
		Output:         output,
		CreatedName:    name,
		RevertDescribe: fmt.Sprintf("Delete Namespace %s", name),
		Revert: func(ctx context.Context) error {
			_, err := deps.Client.Delete(ctx, "Namespace", name, cluster.DeleteOptions{IgnoreNotFound: true})
			return err
		},
	}, nil
}

// DescribeCreateNamespace renders the report description for a
// CreateNamespace call.
func DescribeCreateNamespace(in NamespaceInput) string {
	return "CreateNamespace"
}

// CreateNamespace creates a Namespace object, retrying with a freshly
// generated name on collision when the name was itself auto-generated (spec
// §4.5's "retries on name-collision via the underlying create action"). A
// caller-supplied exact Name is never regenerated: a collision on it is a
// real failure.
func CreateNamespace(ctx context.Context, deps Deps, in NamespaceInput) (MutateOutcome, error) {
	attempts := 1
	if in.Name == "" {
		attempts = maxNameCollisionAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		name := resolveNamespaceName(in)
		manifest := namespaceManifest(name)

		output, err := deps.Client.Create(ctx, manifest, cluster.Context{})
		if err == nil {
			return MutateOutcome{
				Output:         output,
				CreatedName:    name,
				RevertDescribe: fmt.Sprintf("Delete Namespace %s", name),
				Revert: func(ctx context.Context) error {
					_, err := deps.Client.Delete(ctx, "Namespace", name, cluster.DeleteOptions{IgnoreNotFound: true})
					return err
				},
			}, nil
		}

		if !isAlreadyExists(err) {
			return MutateOutcome{}, err
		}
		lastErr = err
	}

	return MutateOutcome{}, fmt.Errorf("namespace name collided %d times: %w", attempts, lastErr)
}

func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "(alreadyexists)")
}
