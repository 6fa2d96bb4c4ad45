package action

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/appthrust/kest/pkg/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a hand-written fake satisfying cluster.Client, following
// SPEC_FULL.md §10.4's preference for small hand-written fakes over a
// mocking framework. objects is keyed by "<typeName>/<name>".
type fakeClient struct {
	base    cluster.Context
	objects map[string]cluster.Manifest

	applyErr    error
	createErr   error
	getErr      error
	listErr     error
	deleteCalls []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: map[string]cluster.Manifest{}}
}

func key(typeName, name string) string { return typeName + "/" + name }

func (f *fakeClient) Extend(override cluster.Context) cluster.Client {
	return &fakeClient{base: f.base.Combine(override), objects: f.objects}
}

func (f *fakeClient) Apply(ctx context.Context, manifest cluster.Manifest, override cluster.Context) (string, error) {
	if f.applyErr != nil {
		return "", f.applyErr
	}
	f.objects[key(cluster.TypeName(manifest.APIVersion, manifest.Kind), manifest.Name)] = manifest
	return "applied", nil
}

func (f *fakeClient) ApplyStatus(ctx context.Context, manifest cluster.Manifest, override cluster.Context) (string, error) {
	f.objects[key(cluster.TypeName(manifest.APIVersion, manifest.Kind), manifest.Name)] = manifest
	return "applied status", nil
}

func (f *fakeClient) Create(ctx context.Context, manifest cluster.Manifest, override cluster.Context) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	k := key(cluster.TypeName(manifest.APIVersion, manifest.Kind), manifest.Name)
	if _, exists := f.objects[k]; exists {
		return "", fmt.Errorf("namespaces %q already exists (AlreadyExists)", manifest.Name)
	}
	f.objects[k] = manifest
	return "created", nil
}

func (f *fakeClient) Get(ctx context.Context, typeName, name string, override cluster.Context) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	m, ok := f.objects[key(typeName, name)]
	if !ok {
		return "", fmt.Errorf("%s %q not found (NotFound)", typeName, name)
	}
	return fmt.Sprintf("apiVersion: %s\nkind: %s\nmetadata:\n  name: %s\n", m.APIVersion, m.Kind, m.Name), nil
}

func (f *fakeClient) List(ctx context.Context, typeName string, override cluster.Context) (string, error) {
	if f.listErr != nil {
		return "", f.listErr
	}
	var b strings.Builder
	b.WriteString("items:\n")
	for k, m := range f.objects {
		if !strings.HasPrefix(k, typeName+"/") {
			continue
		}
		fmt.Fprintf(&b, "- apiVersion: %s\n  kind: %s\n  metadata:\n    name: %s\n", m.APIVersion, m.Kind, m.Name)
	}
	return b.String(), nil
}

func (f *fakeClient) Patch(ctx context.Context, typeName, name, patch string, opts cluster.PatchOptions) (string, error) {
	return "patched", nil
}

func (f *fakeClient) Delete(ctx context.Context, typeName, name string, opts cluster.DeleteOptions) (string, error) {
	f.deleteCalls = append(f.deleteCalls, key(typeName, name))
	delete(f.objects, key(typeName, name))
	return "deleted", nil
}

func (f *fakeClient) Label(ctx context.Context, typeName, name string, labels map[string]*string, opts cluster.LabelOptions) (string, error) {
	return "labeled", nil
}

var _ cluster.Client = (*fakeClient)(nil)

func cmManifest(name string) map[string]interface{} {
	return map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   map[string]interface{}{"name": name},
		"data":       map[string]interface{}{"mode": "demo"},
	}
}

func TestApplyRegistersDeleteRevert(t *testing.T) {
	client := newFakeClient()
	deps := Deps{Client: client}

	outcome, err := Apply(context.Background(), deps, ApplyInput{Manifest: cmManifest("cm")})
	require.NoError(t, err)
	assert.Equal(t, "Delete ConfigMap cm", outcome.RevertDescribe)
	require.NotNil(t, outcome.Revert)

	_, ok := client.objects["ConfigMap/cm"]
	assert.True(t, ok)

	require.NoError(t, outcome.Revert(context.Background()))
	_, ok = client.objects["ConfigMap/cm"]
	assert.False(t, ok)
}

func TestCreateFailsWhenManifestInvalid(t *testing.T) {
	client := newFakeClient()
	deps := Deps{Client: client}

	_, err := Create(context.Background(), deps, CreateInput{Manifest: map[string]interface{}{}})
	require.Error(t, err)
}

func TestGetVerifiesFetchedIdentity(t *testing.T) {
	client := newFakeClient()
	client.objects["ConfigMap/cm"] = cluster.Manifest{APIVersion: "v1", Kind: "ConfigMap", Name: "cm"}
	deps := Deps{Client: client}

	m, err := Get(context.Background(), deps, GetInput{Ref: cluster.Reference{APIVersion: "v1", Kind: "ConfigMap", Name: "cm"}})
	require.NoError(t, err)
	assert.Equal(t, "cm", m.Name)

	_, err = Get(context.Background(), deps, GetInput{Ref: cluster.Reference{APIVersion: "v1", Kind: "ConfigMap", Name: "missing"}})
	require.Error(t, err)
}

func TestAssertAbsenceSucceedsOnNotFound(t *testing.T) {
	client := newFakeClient()
	deps := Deps{Client: client}

	err := AssertAbsence(context.Background(), deps, AssertAbsenceInput{Ref: cluster.Reference{APIVersion: "v1", Kind: "ConfigMap", Name: "missing"}})
	assert.NoError(t, err)
}

func TestAssertAbsenceFailsWhenFound(t *testing.T) {
	client := newFakeClient()
	client.objects["ConfigMap/cm"] = cluster.Manifest{APIVersion: "v1", Kind: "ConfigMap", Name: "cm"}
	deps := Deps{Client: client}

	err := AssertAbsence(context.Background(), deps, AssertAbsenceInput{Ref: cluster.Reference{APIVersion: "v1", Kind: "ConfigMap", Name: "cm"}})
	assert.Error(t, err)
}

func TestAssertAbsenceReraisesOtherErrors(t *testing.T) {
	client := newFakeClient()
	client.getErr = fmt.Errorf("connection refused")
	deps := Deps{Client: client}

	err := AssertAbsence(context.Background(), deps, AssertAbsenceInput{Ref: cluster.Reference{APIVersion: "v1", Kind: "ConfigMap", Name: "cm"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAssertOneRequiresExactlyOneMatch(t *testing.T) {
	client := newFakeClient()
	client.objects["ConfigMap/a"] = cluster.Manifest{APIVersion: "v1", Kind: "ConfigMap", Name: "a"}
	client.objects["ConfigMap/b"] = cluster.Manifest{APIVersion: "v1", Kind: "ConfigMap", Name: "b"}
	deps := Deps{Client: client}

	_, err := AssertOne(context.Background(), deps, AssertOneInput{
		APIVersion: "v1", Kind: "ConfigMap",
		Test: func(cluster.Manifest) error { return nil },
	})
	require.Error(t, err)

	m, err := AssertOne(context.Background(), deps, AssertOneInput{
		APIVersion: "v1", Kind: "ConfigMap",
		Where: func(m cluster.Manifest) bool { return m.Name == "a" },
		Test:  func(cluster.Manifest) error { return nil },
	})
	require.NoError(t, err)
	assert.Equal(t, "a", m.Name)
}

func TestAssertApplyErrorRevertsUnexpectedSuccess(t *testing.T) {
	client := newFakeClient()
	deps := Deps{Client: client}

	_, err := AssertApplyError(context.Background(), deps, AssertErrorInput{
		Manifest: cmManifest("cm"),
		Test:     func(error) error { return nil },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected apply")
	assert.Contains(t, client.deleteCalls, "ConfigMap/cm")
}

func TestAssertApplyErrorRunsTestOnExpectedFailure(t *testing.T) {
	client := newFakeClient()
	client.applyErr = fmt.Errorf("admission webhook denied: field is immutable")
	deps := Deps{Client: client}

	var seen error
	outcome, err := AssertApplyError(context.Background(), deps, AssertErrorInput{
		Manifest: cmManifest("cm"),
		Test: func(testErr error) error {
			seen = testErr
			if strings.Contains(testErr.Error(), "immutable") {
				return nil
			}
			return fmt.Errorf("unexpected error: %w", testErr)
		},
	})
	require.NoError(t, err)
	assert.Nil(t, outcome.Revert)
	require.Error(t, seen)
	assert.Contains(t, seen.Error(), "immutable")
}

func TestCreateNamespaceGeneratesNameMatchingPattern(t *testing.T) {
	client := newFakeClient()
	deps := Deps{Client: client}

	outcome, err := CreateNamespace(context.Background(), deps, NamespaceInput{GenerateName: "foo-"})
	require.NoError(t, err)
	assert.Regexp(t, `^foo-[bcdfghjklmnpqrstvwxyz0-9]{5}$`, outcome.CreatedName)
}

// collidingClient rejects its first Create with an AlreadyExists error and
// delegates every later call to the wrapped fake.
type collidingClient struct {
	*fakeClient
	creates int
}

func (c *collidingClient) Create(ctx context.Context, manifest cluster.Manifest, override cluster.Context) (string, error) {
	c.creates++
	if c.creates == 1 {
		return "", fmt.Errorf("namespaces %q already exists (AlreadyExists)", manifest.Name)
	}
	return c.fakeClient.Create(ctx, manifest, override)
}

func TestCreateNamespaceRetriesOnCollision(t *testing.T) {
	client := &collidingClient{fakeClient: newFakeClient()}
	deps := Deps{Client: client}

	outcome, err := CreateNamespace(context.Background(), deps, NamespaceInput{})
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.CreatedName)
	assert.Equal(t, 2, client.creates)
}

func TestCreateNamespaceExactNameCollisionIsNotRetried(t *testing.T) {
	client := newFakeClient()
	client.objects["Namespace/taken"] = cluster.Manifest{APIVersion: "v1", Kind: "Namespace", Name: "taken"}
	deps := Deps{Client: client}

	_, err := CreateNamespace(context.Background(), deps, NamespaceInput{Name: "taken"})
	require.Error(t, err)
}

func TestRandomNameUsesConsonantDigitAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Regexp(t, `^[bcdfghjklmnpqrstvwxyz0-9]{5}$`, RandomName())
	}
}
