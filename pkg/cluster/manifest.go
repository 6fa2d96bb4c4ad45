package cluster

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is a validated Kubernetes-style object: apiVersion, kind, and
// metadata.name are guaranteed non-empty; Raw holds the full decoded
// document so actions that need extra fields (ApplyStatus needs `status`)
// can inspect them.
type Manifest struct {
	APIVersion string
	Kind       string
	Name       string
	Namespace  string
	Raw        map[string]interface{}
}

// TypeName derives the kubectl-style type string from (apiVersion, kind)
// (spec §6): the core group renders as the bare kind; any other group
// renders as "<kind>.<version>.<group>".
func TypeName(apiVersion, kind string) string {
	if apiVersion == "v1" {
		return kind
	}
	group, version, ok := strings.Cut(apiVersion, "/")
	if !ok {
		return kind
	}
	return fmt.Sprintf("%s.%s.%s", kind, version, group)
}

// ValidationError lists every missing required field found while parsing a
// manifest (spec §6's "error-listing" outcome).
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest: missing %s", strings.Join(e.Missing, ", "))
}

// ParseAny accepts a raw YAML document or an already-decoded
// map[string]interface{} — the two shapes a caller can reasonably produce
// in Go, standing in for the source format's "YAML string, object literal,
// or imported module" union (spec §6). Any other value is marshaled to YAML
// and decoded into the same map shape. It requires non-empty apiVersion,
// kind, and metadata.name.
func ParseAny(value interface{}) (Manifest, error) {
	doc, err := toDoc(value)
	if err != nil {
		return Manifest{}, err
	}

	var missing []string
	apiVersion, _ := doc["apiVersion"].(string)
	if apiVersion == "" {
		missing = append(missing, "apiVersion")
	}
	kind, _ := doc["kind"].(string)
	if kind == "" {
		missing = append(missing, "kind")
	}

	metadata, _ := doc["metadata"].(map[string]interface{})
	name, _ := metadata["name"].(string)
	if name == "" {
		missing = append(missing, "metadata.name")
	}

	if len(missing) > 0 {
		return Manifest{}, &ValidationError{Missing: missing}
	}

	namespace, _ := metadata["namespace"].(string)

	return Manifest{
		APIVersion: apiVersion,
		Kind:       kind,
		Name:       name,
		Namespace:  namespace,
		Raw:        doc,
	}, nil
}

// Reference identifies one resource by its (apiVersion, kind, name) triple —
// the input shape actions that do not construct their own manifest (Get,
// Delete, Label, AssertAbsence) use to target a resource.
type Reference struct {
	APIVersion string
	Kind       string
	Name       string
}

// TypeName derives this reference's kubectl-style type string.
func (r Reference) TypeName() string {
	return TypeName(r.APIVersion, r.Kind)
}

// listDoc mirrors the shape `kubectl get <type> -o yaml` produces when more
// than one object matches: a "<Kind>List" wrapper with an items array.
type listDoc struct {
	Items []map[string]interface{} `yaml:"items"`
}

// ParseList parses a kubectl list document into its individual Manifests.
func ParseList(raw string) ([]Manifest, error) {
	var doc listDoc
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parsing list YAML: %w", err)
	}

	items := make([]Manifest, 0, len(doc.Items))
	for _, item := range doc.Items {
		m, err := ParseAny(item)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

func toDoc(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, nil
	case string:
		var doc map[string]interface{}
		if err := yaml.Unmarshal([]byte(v), &doc); err != nil {
			return nil, fmt.Errorf("parsing manifest YAML: %w", err)
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
		return doc, nil
	default:
		// Marshal-then-unmarshal normalizes any other concrete struct
		// into the same map shape the rest of this function expects.
		out, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshaling manifest value: %w", err)
		}
		var doc map[string]interface{}
		if err := yaml.Unmarshal(out, &doc); err != nil {
			return nil, fmt.Errorf("parsing manifest value: %w", err)
		}
		return doc, nil
	}
}
