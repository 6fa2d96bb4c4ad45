// Package cluster defines the core's view of the cluster: the ClusterClient
// capability port it consumes (spec §6), the Context record layered onto
// every call, and the manifest-parsing port. No concrete client lives here —
// pkg/kubectl provides the one adapter this module ships.
package cluster

// Context is the immutable, field-wise-overridable record layered onto
// every cluster-client call (spec §3, §6).
type Context struct {
	Namespace        string
	Kubeconfig       string
	KubeContext      string
	FieldManagerName string
}

// Combine layers override on top of c: every non-empty field of override
// replaces the corresponding field of c, and every empty field falls back
// to c's value.
func (c Context) Combine(override Context) Context {
	out := c
	if override.Namespace != "" {
		out.Namespace = override.Namespace
	}
	if override.Kubeconfig != "" {
		out.Kubeconfig = override.Kubeconfig
	}
	if override.KubeContext != "" {
		out.KubeContext = override.KubeContext
	}
	if override.FieldManagerName != "" {
		out.FieldManagerName = override.FieldManagerName
	}
	return out
}
