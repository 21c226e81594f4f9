// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import "encoding/json"

// The OPS JSON rendering of the upstream XML is loosely shaped: any leaf
// value may be a bare string or an object carrying the string under a "$"
// key, and any repeated element collapses to a single object when its
// cardinality is one. Node is the single normalization point for those
// variants; extraction code never inspects raw JSON shapes directly.
type Node struct {
	v any
}

// decodeNode parses raw JSON into a Node rooted at the whole document.
func decodeNode(data []byte) (Node, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Node{}, err
	}
	return Node{v: v}, nil
}

// IsMissing reports whether the node holds no value.
func (n Node) IsMissing() bool {
	return n.v == nil
}

// Get returns the named member of an object node, or a missing node when
// the node is not an object or has no such member.
func (n Node) Get(key string) Node {
	m, ok := n.v.(map[string]any)
	if !ok {
		return Node{}
	}
	return Node{v: m[key]}
}

// Path follows a chain of object members, returning a missing node as soon
// as any step fails.
func (n Node) Path(keys ...string) Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
	}
	return cur
}

// List normalizes the node to a slice: a missing node yields nil, an array
// yields its elements, and anything else yields a one-element slice holding
// the node itself. This is the array-or-scalar rule applied everywhere a
// repeated field may appear.
func (n Node) List() []Node {
	if n.v == nil {
		return nil
	}
	arr, ok := n.v.([]any)
	if !ok {
		return []Node{n}
	}
	nodes := make([]Node, len(arr))
	for i, e := range arr {
		nodes[i] = Node{v: e}
	}
	return nodes
}

// Text resolves the node to its string value: a bare string directly, an
// object via its "$" member, and anything else (including numbers, which
// never appear as bare JSON numbers in this format) to "".
func (n Node) Text() string {
	switch v := n.v.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["$"].(string); ok {
			return s
		}
	}
	return ""
}
