package dag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// embeddedRef matches one $a.b reference inside a larger string — used for
// the embedded-expression substitution form. Deeper paths are not
// supported in this form; only the single-expression form resolves
// multi-segment paths.
var embeddedRef = regexp.MustCompile(`\$[A-Za-z0-9_]+\.[A-Za-z0-9_]+`)

// ResolveParams resolves a node's declared params against the current
// progress map and an optional context (used by loop-style nodes to
// inject per-iteration variables such as $item.field). Resolution is
// recursive over nested maps and lists.
func ResolveParams(params map[string]interface{}, progress Progress, ctx map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		resolved, err := resolveValue(v, progress, ctx)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func resolveValue(v interface{}, progress Progress, ctx map[string]interface{}) (interface{}, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, nested := range val {
			resolved, err := resolveValue(nested, progress, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, nested := range val {
			resolved, err := resolveValue(nested, progress, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		return resolveString(val, progress, ctx)
	default:
		return v, nil
	}
}

// isSingleExpression reports whether s is entirely one $a.b... reference:
// starts with $, contains no whitespace, and has at least one '.'.
func isSingleExpression(s string) bool {
	if !strings.HasPrefix(s, "$") {
		return false
	}
	if strings.ContainsAny(s, " \t\n\r") {
		return false
	}
	return strings.Contains(s, ".")
}

func resolveString(s string, progress Progress, ctx map[string]interface{}) (interface{}, error) {
	if isSingleExpression(s) {
		return resolvePath(s[1:], progress, ctx)
	}
	if strings.Contains(s, "$") {
		var resolveErr error
		out := embeddedRef.ReplaceAllStringFunc(s, func(match string) string {
			if resolveErr != nil {
				return match
			}
			resolved, err := resolvePath(match[1:], progress, ctx)
			if err != nil {
				resolveErr = err
				return match
			}
			return stringify(resolved)
		})
		if resolveErr != nil {
			return nil, resolveErr
		}
		return out, nil
	}
	return s, nil
}

// resolvePath splits "a.b.c" and steps: the first segment is looked up in
// ctx first, then progress (as a node ID whose recorded result is used);
// subsequent segments step into maps by key or into the result's Data.
func resolvePath(path string, progress Progress, ctx map[string]interface{}) (interface{}, error) {
	segments := strings.Split(path, ".")
	head := segments[0]
	rest := segments[1:]

	if ctx != nil {
		if v, ok := ctx[head]; ok {
			return walk(v, rest, head)
		}
	}

	result, ok := progress[head]
	if !ok {
		return nil, &EngineError{
			Message: fmt.Sprintf("reference to %q has no recorded result", head),
			Code:    CodeUnresolvedRef,
		}
	}
	if !result.Success {
		return nil, &EngineError{
			Message: fmt.Sprintf("reference to %q has no data: %s", head, result.Error),
			Code:    CodeNoData,
		}
	}
	if len(rest) == 0 {
		return result.Data, nil
	}
	return walk(result.Data, rest, head)
}

func walk(v interface{}, segments []string, ref string) (interface{}, error) {
	cur := v
	for _, seg := range segments {
		switch container := cur.(type) {
		case map[string]interface{}:
			next, ok := container[seg]
			if !ok {
				return nil, &EngineError{
					Message: fmt.Sprintf("field %q not found on %q", seg, ref),
					Code:    CodeMissingField,
				}
			}
			cur = next
		default:
			return nil, &EngineError{
				Message: fmt.Sprintf("cannot step into field %q of %q: not a map", seg, ref),
				Code:    CodeMissingField,
			}
		}
	}
	return cur, nil
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
