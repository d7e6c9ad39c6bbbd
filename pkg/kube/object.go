package kube

import (
	"strings"
)

// Object is an untyped, possibly-nested mapping representing one
// Kubernetes-style resource. Accessors are defensive: missing or
// wrongly-typed fields degrade to zero values rather than faults.
type Object map[string]any

// GetAPIVersion returns the apiVersion of the object.
// If apiVersion is not set, it returns an empty string.
func (o Object) GetAPIVersion() string {
	if apiVersion, ok := o["apiVersion"].(string); ok {
		return apiVersion
	}

	return ""
}

// GetKind returns the kind of the object.
// If the kind is not set, it returns an empty string.
func (o Object) GetKind() string {
	if kind, ok := o["kind"].(string); ok {
		return kind
	}

	return ""
}

// IsList reports whether the object is a collection wrapper: a resource
// whose kind carries the "List" suffix and which holds an items sequence.
func (o Object) IsList() bool {
	if !strings.HasSuffix(o.GetKind(), "List") {
		return false
	}

	_, ok := o["items"].([]any)

	return ok
}

// Items returns the child sequence of a List-kind object, or nil.
func (o Object) Items() []any {
	items, _ := o["items"].([]any)

	return items
}

// GetName returns the name of the object.
// If the name is not set, it returns an empty string.
func (o Object) GetName() string {
	if metadata, ok := o["metadata"].(map[string]any); ok {
		if name, ok := metadata["name"].(string); ok {
			return name
		}
	}

	return ""
}

// GetNamespace returns the namespace of the object.
// If the namespace is not set, it returns an empty string.
func (o Object) GetNamespace() string {
	if metadata, ok := o["metadata"].(map[string]any); ok {
		if ns, ok := metadata["namespace"].(string); ok {
			return ns
		}
	}

	return ""
}

// GetNamespacedName returns `namespace/name`, or just the name for
// cluster-scoped objects.
func (o Object) GetNamespacedName() string {
	ns := o.GetNamespace()
	name := o.GetName()
	if ns != "" {
		return ns + "/" + name
	}

	return name
}

// EnsureMetadata returns the object's metadata mapping, creating an empty one
// if it is absent or not a mapping. The rest of the object is never altered.
func (o Object) EnsureMetadata() map[string]any {
	if metadata, ok := o["metadata"].(map[string]any); ok {
		return metadata
	}

	metadata := map[string]any{}
	o["metadata"] = metadata

	return metadata
}

// SetNamespace sets metadata.namespace, creating metadata if needed.
func (o Object) SetNamespace(namespace string) {
	o.EnsureMetadata()["namespace"] = namespace
}
