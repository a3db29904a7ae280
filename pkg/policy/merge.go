package policy

// MergeObligations deep-merges right into left per §4.7/I6: nested
// mappings recurse key by key, right wins on scalar collisions, and
// sequences always replace rather than concatenate. Neither input is
// mutated; the result is a fresh map.
func MergeObligations(left, right Obligations) Obligations {
	if left == nil && right == nil {
		return nil
	}
	out := make(Obligations, len(left)+len(right))
	for k, v := range left {
		out[k] = normalizeLeaf(v)
	}
	for k, rv := range right {
		rv = normalizeLeaf(rv)
		lv, exists := out[k]
		if !exists {
			out[k] = rv
			continue
		}
		out[k] = mergeValue(lv, rv)
	}
	return out
}

// normalizeLeaf recursively converts any plain map[string]interface{} (as
// produced by the YAML loader) into the Obligations type, so a caller can
// always type-assert a nested value as Obligations regardless of whether
// it passed through a merge collision.
func normalizeLeaf(v interface{}) interface{} {
	if m, ok := asMap(v); ok {
		out := make(Obligations, len(m))
		for k, vv := range m {
			out[k] = normalizeLeaf(vv)
		}
		return out
	}
	return v
}

func mergeValue(left, right interface{}) interface{} {
	lm, lok := asMap(left)
	rm, rok := asMap(right)
	if lok && rok {
		return MergeObligations(lm, rm)
	}
	// Sequences and scalars: right replaces left outright.
	return right
}

func asMap(v interface{}) (Obligations, bool) {
	switch m := v.(type) {
	case Obligations:
		return m, true
	case map[string]interface{}:
		return Obligations(m), true
	default:
		return nil, false
	}
}
