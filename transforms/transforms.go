// Package transforms provides reusable field transforms for mold mappings.
//
//	m := mold.NewBuilder().
//	    Field("email", mold.FieldMapping{Transform: transforms.Chain(transforms.Trim(), transforms.Lower())}).
//	    Field("password", mold.FieldMapping{Transform: transforms.Hash(transforms.Argon2())}).
//	    Field("card", mold.FieldMapping{Transform: transforms.Mask(transforms.MaskCard)}).
//	    Field("fullName", mold.FieldMapping{Computed: true, Transform: transforms.Concat(" ", "first", "last")}).
//	    KeyTransform(transforms.SnakeToCamel).
//	    Build()
//
// String transforms leave nil values nil so mapping defaults still apply.
package transforms

import (
	"errors"
	"strings"

	"github.com/zoobzio/mold"
)

// ErrUnknownMask indicates Mask was given a kind with no masking rule.
var ErrUnknownMask = errors.New("unknown mask kind")

// stringTransform lifts fn to a transform over the string form of a value.
func stringTransform(fn func(string) string) mold.FieldTransform {
	return func(value any, _ map[string]any) (any, error) {
		if value == nil {
			return nil, nil
		}
		return fn(mold.ToString(value)), nil
	}
}

// Trim removes surrounding whitespace.
func Trim() mold.FieldTransform {
	return stringTransform(strings.TrimSpace)
}

// Lower folds to lower case.
func Lower() mold.FieldTransform {
	return stringTransform(strings.ToLower)
}

// Upper folds to upper case.
func Upper() mold.FieldTransform {
	return stringTransform(strings.ToUpper)
}

// Split turns a delimited string into a list of trimmed, non-empty parts.
// Values that are already lists are returned unchanged.
func Split(sep string) mold.FieldTransform {
	return func(value any, _ map[string]any) (any, error) {
		switch v := value.(type) {
		case nil:
			return nil, nil
		case []any, []string:
			return v, nil
		}

		var out []any
		for _, part := range strings.Split(mold.ToString(value), sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
}

// Join turns a list into a single delimited string. Non-list values are
// returned unchanged.
func Join(sep string) mold.FieldTransform {
	return func(value any, _ map[string]any) (any, error) {
		var parts []string
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				parts = append(parts, mold.ToString(item))
			}
		case []string:
			parts = v
		default:
			return value, nil
		}
		return strings.Join(parts, sep), nil
	}
}

// Concat joins the given source keys with sep, skipping missing and empty
// values. It ignores the field's own value, which suits computed fields.
// The result is nil when every key is missing.
func Concat(sep string, keys ...string) mold.FieldTransform {
	return func(_ any, src map[string]any) (any, error) {
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := mold.ToString(src[k]); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return nil, nil
		}
		return strings.Join(parts, sep), nil
	}
}

// Coalesce returns the field's value when set, else the first non-nil
// source value among keys.
func Coalesce(keys ...string) mold.FieldTransform {
	return func(value any, src map[string]any) (any, error) {
		if value != nil {
			return value, nil
		}
		for _, k := range keys {
			if v, ok := src[k]; ok && v != nil {
				return v, nil
			}
		}
		return nil, nil
	}
}

// Chain runs transforms in order, feeding each result to the next.
// The first error stops the chain.
func Chain(steps ...mold.FieldTransform) mold.FieldTransform {
	return func(value any, src map[string]any) (any, error) {
		var err error
		for _, step := range steps {
			if value, err = step(value, src); err != nil {
				return nil, err
			}
		}
		return value, nil
	}
}
