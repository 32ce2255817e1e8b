package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// StageContract binds the accepted output shapes to one stage boundary.
// When there is more than one variant, the variant is chosen by the
// top-level container kind of the payload.
type StageContract struct {
	Stage    string
	Variants []Shape
}

// Validate checks payload against the contract. On success payload is
// returned unchanged. On failure the error is a *Violation describing the
// first mismatch found.
func (c StageContract) Validate(payload any) (any, error) {
	shape, v := c.variantFor(payload)
	if v != nil {
		return nil, v
	}
	if v := c.check(shape, payload, "", -1, true); v != nil {
		return nil, v
	}
	return payload, nil
}

// ValidateJSON decodes data and validates the resulting document.
func (c StageContract) ValidateJSON(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrapf(err, "decode %s payload", c.Stage)
	}
	_, err := c.Validate(doc)
	return err
}

// Check validates the JSON form of a typed value and returns the value itself.
// Nil slices and maps count as empty, as they do for Validate.
func Check[T any](c StageContract, v T) (T, error) {
	data, err := json.Marshal(emptyNils(v))
	if err != nil {
		var zero T
		return zero, errors.Wrapf(err, "encode %s payload", c.Stage)
	}
	if err := c.ValidateJSON(data); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func (c StageContract) variantFor(payload any) (Shape, *Violation) {
	if len(c.Variants) == 1 {
		return c.Variants[0], nil
	}
	actual := kindName(payload)
	expected := make([]string, 0, len(c.Variants))
	for _, s := range c.Variants {
		if s.matches(payload) {
			return s, nil
		}
		expected = append(expected, s.Kind.String())
	}
	return Shape{}, &Violation{
		Stage:    c.Stage,
		Kind:     WrongContainer,
		Index:    -1,
		Expected: strings.Join(expected, " or "),
		Actual:   actual,
	}
}

// check walks v against s. container is true for the payload itself and for
// direct list elements, where a kind mismatch is a container error rather
// than a field type error.
func (c StageContract) check(s Shape, v any, path string, index int, container bool) *Violation {
	if s.Kind == KindAny {
		return nil
	}
	if !s.matches(v) {
		kind := TypeMismatch
		if container {
			kind = WrongContainer
		}
		return &Violation{
			Stage:    c.Stage,
			Kind:     kind,
			Path:     path,
			Index:    index,
			Expected: s.Kind.String(),
			Actual:   kindName(v),
		}
	}

	switch s.Kind {
	case KindInt:
		if s.Range == nil {
			return nil
		}
		n, _ := intValue(v)
		if n < s.Range.Min || n > s.Range.Max {
			return &Violation{
				Stage:    c.Stage,
				Kind:     OutOfRange,
				Path:     path,
				Index:    index,
				Expected: fmt.Sprintf("[%d,%d]", s.Range.Min, s.Range.Max),
				Actual:   fmt.Sprint(n),
			}
		}

	case KindDict:
		entries, _ := dictValue(v)
		var missing []string
		for _, f := range s.Fields {
			if _, ok := entries[f.Name]; !ok && !f.Optional {
				missing = append(missing, f.Name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return &Violation{
				Stage:   c.Stage,
				Kind:    MissingFields,
				Path:    path,
				Index:   index,
				Missing: missing,
			}
		}
		for _, f := range s.Fields {
			fv, ok := entries[f.Name]
			if !ok {
				continue
			}
			if bad := c.check(f.Shape, fv, join(path, f.Name), index, false); bad != nil {
				return bad
			}
		}

	case KindList:
		if s.Items == nil {
			return nil
		}
		items, _ := listValue(v)
		for i, item := range items {
			if bad := c.check(*s.Items, item, fmt.Sprintf("%s[%d]", path, i), i, true); bad != nil {
				return bad
			}
		}
	}
	return nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
