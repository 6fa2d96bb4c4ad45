// Package kubectl is the one concrete cluster-client adapter this module
// ships (spec §1 explicitly keeps "the concrete cluster client" out of the
// core's scope — this package is the adapter, not part of the core). It
// satisfies pkg/cluster.Client by shelling out to the kubectl CLI, the same
// way the Exec action shells out through pkg/shell.
package kubectl

import (
	"context"
	"fmt"
	"strings"

	"github.com/appthrust/kest/pkg/cluster"
	"github.com/appthrust/kest/pkg/event"
	"github.com/appthrust/kest/pkg/kesterr"
	"github.com/appthrust/kest/pkg/logging"
	"github.com/appthrust/kest/pkg/shell"
	"gopkg.in/yaml.v3"
)

// Client adapts the kubectl CLI to pkg/cluster.Client. It records
// CommandRun/CommandResult events itself, since it is the component that
// actually knows the command line and captured output (spec §3's Command
// payload).
type Client struct {
	runner   shell.Runner
	recorder *event.Recorder
	base     cluster.Context
}

// New returns a Client bound to base and recording command events onto
// recorder (recorder may be nil for callers that do not need the event
// stream, e.g. ad hoc tooling).
func New(runner shell.Runner, recorder *event.Recorder, base cluster.Context) *Client {
	return &Client{runner: runner, recorder: recorder, base: base}
}

// Extend returns a Client whose context is base layered with override.
func (c *Client) Extend(override cluster.Context) cluster.Client {
	return &Client{runner: c.runner, recorder: c.recorder, base: c.base.Combine(override)}
}

func (c *Client) run(ctx context.Context, args []string, stdin string) (shell.Result, error) {
	if c.recorder != nil {
		c.recorder.Record(event.KindCommandRun, event.CommandRun{
			Cmd:           "kubectl",
			Args:          args,
			Stdin:         stdin,
			StdinLanguage: "yaml",
		})
	}

	result, err := c.runner.Run(ctx, shell.RunOptions{Cmd: "kubectl", Args: args, Stdin: stdin})

	if c.recorder != nil {
		c.recorder.Record(event.KindCommandResult, event.CommandResult{
			ExitCode:       result.ExitCode,
			Stdout:         result.Stdout,
			Stderr:         result.Stderr,
			StdoutLanguage: "yaml",
		})
	}

	if err != nil {
		logging.Debug("Kubectl", "command failed: kubectl %s: %v", strings.Join(args, " "), err)
		if strings.Contains(result.Stderr, "NotFound") || strings.Contains(result.Stderr, "not found") {
			return result, &kesterr.NotFound{Err: fmt.Errorf("%s (NotFound): %w", strings.TrimSpace(result.Stderr), err)}
		}
		return result, fmt.Errorf("%s: %w", strings.TrimSpace(result.Stderr), err)
	}

	return result, nil
}

func (c *Client) contextArgs(override cluster.Context) []string {
	ctxVal := c.base.Combine(override)
	var args []string
	if ctxVal.Namespace != "" {
		args = append(args, "-n", ctxVal.Namespace)
	}
	if ctxVal.Kubeconfig != "" {
		args = append(args, "--kubeconfig", ctxVal.Kubeconfig)
	}
	if ctxVal.KubeContext != "" {
		args = append(args, "--context", ctxVal.KubeContext)
	}
	return args
}

func (c *Client) Apply(ctx context.Context, manifest cluster.Manifest, override cluster.Context) (string, error) {
	body, err := yaml.Marshal(manifest.Raw)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}

	args := append([]string{"apply", "--server-side", "-f", "-"}, c.contextArgs(override)...)
	ctxVal := c.base.Combine(override)
	if ctxVal.FieldManagerName != "" {
		args = append(args, "--field-manager", ctxVal.FieldManagerName)
	}

	result, err := c.run(ctx, args, string(body))
	return result.Stdout, err
}

func (c *Client) ApplyStatus(ctx context.Context, manifest cluster.Manifest, override cluster.Context) (string, error) {
	ctxVal := c.base.Combine(override)
	if ctxVal.FieldManagerName == "" {
		return "", fmt.Errorf("applyStatus requires a fieldManagerName in context")
	}
	if _, ok := manifest.Raw["status"]; !ok {
		return "", fmt.Errorf("applyStatus requires the manifest to include status")
	}

	body, err := yaml.Marshal(manifest.Raw)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}

	args := append([]string{"apply", "--server-side", "--subresource=status", "-f", "-"}, c.contextArgs(override)...)
	args = append(args, "--field-manager", ctxVal.FieldManagerName)

	result, err := c.run(ctx, args, string(body))
	return result.Stdout, err
}

func (c *Client) Create(ctx context.Context, manifest cluster.Manifest, override cluster.Context) (string, error) {
	body, err := yaml.Marshal(manifest.Raw)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}

	args := append([]string{"create", "-f", "-"}, c.contextArgs(override)...)
	result, err := c.run(ctx, args, string(body))
	return result.Stdout, err
}

func (c *Client) Get(ctx context.Context, typeName, name string, override cluster.Context) (string, error) {
	args := append([]string{"get", typeName, name, "-o", "yaml"}, c.contextArgs(override)...)
	result, err := c.run(ctx, args, "")
	return result.Stdout, err
}

func (c *Client) List(ctx context.Context, typeName string, override cluster.Context) (string, error) {
	args := append([]string{"get", typeName, "-o", "yaml"}, c.contextArgs(override)...)
	result, err := c.run(ctx, args, "")
	return result.Stdout, err
}

func (c *Client) Patch(ctx context.Context, typeName, name, patch string, opts cluster.PatchOptions) (string, error) {
	patchType := opts.Type
	if patchType == "" {
		patchType = "merge"
	}
	args := append([]string{"patch", typeName, name, "--type", patchType, "-p", patch}, c.contextArgs(opts.Context)...)
	result, err := c.run(ctx, args, "")
	return result.Stdout, err
}

func (c *Client) Delete(ctx context.Context, typeName, name string, opts cluster.DeleteOptions) (string, error) {
	args := []string{"delete", typeName, name}
	if opts.IgnoreNotFound {
		args = append(args, "--ignore-not-found")
	}
	args = append(args, c.contextArgs(opts.Context)...)
	result, err := c.run(ctx, args, "")
	return result.Stdout, err
}

func (c *Client) Label(ctx context.Context, typeName, name string, labels map[string]*string, opts cluster.LabelOptions) (string, error) {
	args := []string{"label", typeName, name}
	for key, value := range labels {
		if value == nil {
			args = append(args, key+"-")
		} else {
			args = append(args, fmt.Sprintf("%s=%s", key, *value))
		}
	}
	if opts.Overwrite {
		args = append(args, "--overwrite")
	}
	args = append(args, c.contextArgs(opts.Context)...)
	result, err := c.run(ctx, args, "")
	return result.Stdout, err
}

var _ cluster.Client = (*Client)(nil)
