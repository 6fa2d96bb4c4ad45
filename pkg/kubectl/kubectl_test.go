package kubectl

import (
	"context"
	"testing"

	"github.com/appthrust/kest/pkg/cluster"
	"github.com/appthrust/kest/pkg/event"
	"github.com/appthrust/kest/pkg/kesterr"
	"github.com/appthrust/kest/pkg/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   []shell.RunOptions
	results []shell.Result
	errs    []error
}

func (f *fakeRunner) Run(ctx context.Context, opts shell.RunOptions) (shell.Result, error) {
	i := len(f.calls)
	f.calls = append(f.calls, opts)
	var result shell.Result
	var err error
	if i < len(f.results) {
		result = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return result, err
}

func TestApplyShellsOutToKubectlApplyServerSide(t *testing.T) {
	runner := &fakeRunner{results: []shell.Result{{Stdout: "configmap/cm applied"}}}
	rec := event.NewRecorder()
	c := New(runner, rec, cluster.Context{Namespace: "ns1"})

	manifest, err := cluster.ParseAny(`
apiVersion: v1
kind: ConfigMap
metadata:
  name: cm
data:
  mode: demo
`)
	require.NoError(t, err)

	out, err := c.Apply(context.Background(), manifest, cluster.Context{})
	require.NoError(t, err)
	assert.Equal(t, "configmap/cm applied", out)

	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0].Args, "--server-side")
	assert.Contains(t, runner.calls[0].Args, "-n")
	assert.Contains(t, runner.calls[0].Args, "ns1")

	kinds := []event.Kind{}
	for _, e := range rec.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []event.Kind{event.KindCommandRun, event.KindCommandResult}, kinds)
}

func TestApplyStatusRequiresFieldManagerAndStatus(t *testing.T) {
	runner := &fakeRunner{}
	c := New(runner, nil, cluster.Context{})

	manifest, err := cluster.ParseAny(map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   map[string]interface{}{"name": "cm"},
	})
	require.NoError(t, err)

	_, err = c.ApplyStatus(context.Background(), manifest, cluster.Context{FieldManagerName: "kest"})
	require.Error(t, err, "missing status should fail before shelling out")
	assert.Empty(t, runner.calls)
}

func TestDeleteIgnoreNotFoundPassesFlag(t *testing.T) {
	runner := &fakeRunner{results: []shell.Result{{Stdout: "configmap deleted"}}}
	c := New(runner, nil, cluster.Context{})

	_, err := c.Delete(context.Background(), "ConfigMap", "cm", cluster.DeleteOptions{IgnoreNotFound: true})
	require.NoError(t, err)
	assert.Contains(t, runner.calls[0].Args, "--ignore-not-found")
}

func TestGetSurfacesNotFoundAsKesterrNotFound(t *testing.T) {
	runner := &fakeRunner{
		results: []shell.Result{{Stderr: `Error from server (NotFound): configmaps "missing" not found`}},
		errs:    []error{assertErr{}},
	}
	c := New(runner, nil, cluster.Context{})

	_, err := c.Get(context.Background(), "ConfigMap", "missing", cluster.Context{})
	require.Error(t, err)
	var nf *kesterr.NotFound
	assert.ErrorAs(t, err, &nf)
}

type assertErr struct{}

func (assertErr) Error() string { return "exit status 1" }

func TestLabelRemovesKeyWithDashSuffix(t *testing.T) {
	runner := &fakeRunner{results: []shell.Result{{Stdout: "labeled"}}}
	c := New(runner, nil, cluster.Context{})

	_, err := c.Label(context.Background(), "ConfigMap", "cm", map[string]*string{"team": nil}, cluster.LabelOptions{})
	require.NoError(t, err)
	assert.Contains(t, runner.calls[0].Args, "team-")
}
