// Package canonicalize turns a YAML policy document into the canonical JSON
// byte form the rest of this module hashes, signs, and verifies against.
//
// Canonicalization appears in three places downstream (doc hash, scope
// hash, signature verification) and must be the exact same function in all
// three or those three stop agreeing with each other.
package canonicalize

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/gowebpki/jcs"
	"gopkg.in/yaml.v3"
)

// ParseError is returned when the input YAML cannot be loaded, or cannot
// be represented as JSON (non-string mapping keys, non-finite numbers, an
// anchor/alias cycle).
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("canonicalize: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("canonicalize: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Canonicalize parses YAML source and returns its canonical JSON byte form:
// recursively key-sorted, compact, non-ASCII preserved, per §4.1.
func Canonicalize(yamlSource []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(yamlSource, &root); err != nil {
		return nil, &ParseError{Reason: "invalid YAML", Err: err}
	}

	if len(root.Content) == 0 {
		// Empty document canonicalizes to JSON null.
		return []byte("null"), nil
	}

	if err := checkCycles(root.Content[0], nil); err != nil {
		return nil, &ParseError{Reason: "anchor cycle", Err: err}
	}

	value, err := decodeNode(root.Content[0])
	if err != nil {
		return nil, &ParseError{Reason: "not JSON-representable", Err: err}
	}

	return CanonicalizeValue(value)
}

// CanonicalizeValue canonicalizes an already-decoded Go value (map, slice,
// scalar) the same way Canonicalize does for raw YAML text. Used by the
// scope-hash computation (§4.8), which canonicalizes a constructed map, not
// a YAML document.
func CanonicalizeValue(v interface{}) ([]byte, error) {
	pre, err := json.Marshal(v)
	if err != nil {
		return nil, &ParseError{Reason: "not JSON-representable", Err: err}
	}

	// jcs.Transform expects syntactically valid JSON and produces the RFC
	// 8785 canonical byte form: recursively sorted object keys, compact
	// separators, ECMAScript number formatting. This is the real library
	// the teacher's go.mod already lists but never calls. No Unicode
	// normalization is applied afterward: non-ASCII text is preserved
	// verbatim, byte for byte, matching scripts/c14n.py's
	// json.dumps(..., ensure_ascii=False) with no normalization step.
	canonical, err := jcs.Transform(pre)
	if err != nil {
		return nil, &ParseError{Reason: "JCS transform failed", Err: err}
	}

	return canonical, nil
}

// decodeNode converts a yaml.Node tree into plain Go values (map[string]any,
// []any, string, int/float64, bool, nil) suitable for JSON marshaling.
// Mapping keys that are not scalars decoding to strings are rejected.
func decodeNode(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			if keyNode.Kind != yaml.ScalarNode || keyNode.ShortTag() != "!!str" {
				return nil, fmt.Errorf("mapping key at line %d is not a scalar string", keyNode.Line)
			}
			key := keyNode.Value
			val, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case yaml.ScalarNode:
		return decodeScalar(n)
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", n.Kind)
	}
}

func decodeScalar(n *yaml.Node) (interface{}, error) {
	var v interface{}
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("non-finite number at line %d", n.Line)
		}
	}
	return v, nil
}

// checkCycles walks the node tree tracking the ancestor chain by node
// identity; an alias that resolves to one of its own ancestors is a cycle.
// yaml.v3 happily constructs such graphs in memory — it does not reject
// them on decode — so this module must detect them itself before walking
// into an infinite recursion during JSON conversion.
func checkCycles(n *yaml.Node, ancestors []*yaml.Node) error {
	if n == nil {
		return nil
	}
	for _, a := range ancestors {
		if a == n {
			return fmt.Errorf("anchor %q forms a cycle", n.Anchor)
		}
	}
	switch n.Kind {
	case yaml.AliasNode:
		return checkCycles(n.Alias, ancestors)
	case yaml.MappingNode, yaml.SequenceNode, yaml.DocumentNode:
		next := append(append([]*yaml.Node{}, ancestors...), n)
		for _, c := range n.Content {
			if err := checkCycles(c, next); err != nil {
				return err
			}
		}
	}
	return nil
}
