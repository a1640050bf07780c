package hookutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/tjfontaine/plume/pkg/hook"
)

// Discard removes the given fields from every record the call carries.
// Fields use dotted paths ("author.email").
func Discard(fields ...string) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		for _, rec := range targets(c) {
			for _, f := range fields {
				deleteField(rec, f)
			}
		}
		return nil, nil
	})
}

// Keep drops everything except the given fields from every record. A dotted
// path keeps the named branch of a nested map; a bare name keeps the whole
// value.
func Keep(fields ...string) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		for _, rec := range targets(c) {
			keepOnly(rec, fields)
		}
		return nil, nil
	})
}

// Require fails the invocation unless every record carries every given
// field with a non-nil value. A call carrying no records at all fails too.
func Require(fields ...string) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		if len(fields) == 0 {
			return nil, nil
		}
		records := targets(c)
		if len(records) == 0 {
			return nil, fmt.Errorf("field %q: %w", fields[0], ErrMissingField)
		}
		for _, rec := range records {
			for _, f := range fields {
				v, ok := getField(rec, f)
				if !ok || v == nil {
					return nil, fmt.Errorf("field %q: %w", f, ErrMissingField)
				}
			}
		}
		return nil, nil
	})
}

// Alter applies fn to every record the call carries.
func Alter(fn func(record map[string]any)) hook.Interceptor {
	return hook.Func(func(ctx context.Context, c *hook.Context) (*hook.Context, error) {
		for _, rec := range targets(c) {
			fn(rec)
		}
		return nil, nil
	})
}

// targets returns the records an interceptor operates on: Data before the
// method runs, Result after.
func targets(c *hook.Context) []map[string]any {
	if c.Stage == hook.StageAfter {
		return asRecords(c.Result)
	}
	return asRecords(c.Data)
}

func asRecords(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []map[string]any:
		return t
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func getField(m map[string]any, field string) (any, bool) {
	parts := strings.Split(field, ".")
	cur := any(m)
	for i, p := range parts {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := mm[p]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		cur = v
	}
	return nil, false
}

func deleteField(m map[string]any, field string) {
	parts := strings.Split(field, ".")
	cur := m
	for i, p := range parts {
		if i == len(parts)-1 {
			delete(cur, p)
			return
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
}

func setField(m map[string]any, field string, value any) {
	parts := strings.Split(field, ".")
	cur := m
	for i, p := range parts {
		if i == len(parts)-1 {
			cur[p] = value
			return
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
}

func keepOnly(m map[string]any, fields []string) {
	whole := make(map[string]bool)
	nested := make(map[string][]string)
	for _, f := range fields {
		head, rest, cut := strings.Cut(f, ".")
		if cut {
			nested[head] = append(nested[head], rest)
		} else {
			whole[head] = true
		}
	}
	for k, v := range m {
		if whole[k] {
			continue
		}
		sub, ok := nested[k]
		if !ok {
			delete(m, k)
			continue
		}
		if subMap, isMap := v.(map[string]any); isMap {
			keepOnly(subMap, sub)
		}
	}
}
