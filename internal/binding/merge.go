package binding

// mergeFields deep-merges src into a copy of dst and returns it. Maps merge
// key by key; array values are replaced wholesale, never merged element by
// element. Index-wise merging corrupts reorders, and replace is also what
// lets two racing language-list appends converge.
func mergeFields(dst, src map[string]any) map[string]any {
	out := cloneFields(dst)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range src {
		sm, srcIsMap := v.(map[string]any)
		dm, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = mergeFields(dm, sm)
			continue
		}
		if srcIsMap {
			out[k] = mergeFields(nil, sm)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneFields(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = cloneValue(e)
		}
		return cp
	case []string:
		cp := make([]string, len(t))
		copy(cp, t)
		return cp
	default:
		return v
	}
}
