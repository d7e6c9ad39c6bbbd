package kube

// NodeKind discriminates the shape of a parsed resource value. It is decided
// exactly once, at the boundary where untyped data enters, so the override
// transform below is pure structural recursion rather than repeated
// kind-string sniffing.
type NodeKind int

const (
	// NodeOpaque is anything that is not object-shaped: nil, scalars,
	// sequences, malformed input. Opaque nodes pass through untouched.
	NodeOpaque NodeKind = iota
	// NodeSingle is one resource object.
	NodeSingle
	// NodeCollection is a List-kind wrapper owning an ordered items sequence.
	NodeCollection
)

// Node is a resource value tagged with its shape.
type Node struct {
	value any
	obj   Object
	// Items holds the classified children of a collection, in original order.
	Items []*Node
	Kind  NodeKind
}

// Classify decides the shape of an arbitrary value. Items of a collection are
// classified as single resources or opaque values; collections do not nest in
// this domain, so items are never re-checked for a List kind.
func Classify(v any) *Node {
	obj, ok := asObject(v)
	if !ok {
		return &Node{Kind: NodeOpaque, value: v}
	}

	if obj.IsList() {
		items := obj.Items()
		n := &Node{
			Kind:  NodeCollection,
			value: v,
			obj:   obj,
			Items: make([]*Node, 0, len(items)),
		}
		for _, item := range items {
			n.Items = append(n.Items, classifyItem(item))
		}

		return n
	}

	return &Node{Kind: NodeSingle, value: v, obj: obj}
}

func classifyItem(v any) *Node {
	if obj, ok := asObject(v); ok {
		return &Node{Kind: NodeSingle, value: v, obj: obj}
	}

	return &Node{Kind: NodeOpaque, value: v}
}

func asObject(v any) (Object, bool) {
	switch m := v.(type) {
	case Object:
		return m, true
	case map[string]any:
		return Object(m), true
	}

	return nil, false
}

// Object returns the underlying mapping, or nil for opaque nodes.
func (n *Node) Object() Object {
	return n.obj
}

// Value returns the underlying value, including any mutations applied by
// [Node.OverrideNamespace].
func (n *Node) Value() any {
	return n.value
}

// OverrideNamespace stamps the target namespace onto the node; for a
// collection, onto each item. An empty namespace only guarantees that
// resource metadata exists, it never clears an existing namespace. The
// operation is total and idempotent.
func (n *Node) OverrideNamespace(namespace string) {
	switch n.Kind {
	case NodeOpaque:
		// Nothing to stamp.
	case NodeCollection:
		for _, item := range n.Items {
			item.OverrideNamespace(namespace)
		}
	case NodeSingle:
		n.obj.EnsureMetadata()
		if namespace != "" {
			n.obj.SetNamespace(namespace)
		}
	}
}

// ApplyNamespaceOverride classifies v and applies the namespace override,
// returning the (mutated-in-place) value. Non-object input is returned
// unchanged.
func ApplyNamespaceOverride(v any, namespace string) any {
	n := Classify(v)
	n.OverrideNamespace(namespace)

	return n.Value()
}
