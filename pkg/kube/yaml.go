package kube

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"kubeapply/pkg/yaml"
)

// ErrInvalidResource is returned when a manifest document cannot be parsed.
var ErrInvalidResource = errors.New("invalid kubernetes resource")

// SplitDocuments splits multi-document manifest text into its raw documents
// without validating or re-encoding. Document content is preserved exactly,
// modulo surrounding whitespace.
func SplitDocuments(manifest string) []string {
	if len(manifest) == 0 {
		return nil
	}

	data := manifest
	data = strings.TrimPrefix(data, "---\n")
	data = strings.TrimSuffix(data, "\n---")

	var result []string

	for doc := range strings.SplitSeq(data, "\n---\n") {
		trimmed := strings.TrimSpace(doc)
		if len(trimmed) > 0 && trimmed != "null" {
			result = append(result, trimmed)
		}
	}

	return result
}

// ParseResources splits a multi-document manifest and decodes each document
// into an untyped object. If a document fails to decode, the objects parsed so
// far are returned together with the error.
func ParseResources(manifest string) ([]Object, error) {
	objs := []Object{}

	for _, doc := range SplitDocuments(manifest) {
		var obj map[string]any

		dec := yaml.NewDecoder(strings.NewReader(doc))

		err := dec.Decode(&obj)
		if errors.Is(err, io.EOF) {
			// Comment-only document.
			continue
		}
		if err != nil {
			return objs, fmt.Errorf("%w: %w", ErrInvalidResource, err)
		}
		if obj == nil {
			continue
		}

		objs = append(objs, Object(obj))
	}

	return objs, nil
}

// OverrideManifestNamespace parses manifest text, stamps the namespace onto
// every resource (including List-kind items), and re-encodes the result.
func OverrideManifestNamespace(manifest, namespace string) (string, error) {
	objs, err := ParseResources(manifest)
	if err != nil {
		return "", err
	}

	for _, obj := range objs {
		ApplyNamespaceOverride(map[string]any(obj), namespace)
	}

	return EncodeResources(objs)
}

// EncodeResources renders objects back into multi-document manifest text.
func EncodeResources(objs []Object) (string, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	for _, obj := range objs {
		err := enc.Encode(map[string]any(obj))
		if err != nil {
			return "", fmt.Errorf("encode resource %s: %w", obj.GetNamespacedName(), err)
		}
	}

	err := enc.Close()
	if err != nil {
		return "", fmt.Errorf("close encoder: %w", err)
	}

	return buf.String(), nil
}
