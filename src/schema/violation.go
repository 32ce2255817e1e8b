package schema

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrContractViolation matches every *Violation under errors.Is.
var ErrContractViolation = errors.New("contract violation")

// ViolationKind classifies a contract violation.
type ViolationKind string

const (
	WrongContainer ViolationKind = "wrong_container"
	MissingFields  ViolationKind = "missing_fields"
	TypeMismatch   ViolationKind = "type_mismatch"
	OutOfRange     ViolationKind = "out_of_range"
)

// Violation describes the first structural mismatch found at a boundary.
type Violation struct {
	// Stage whose output failed validation.
	Stage string
	Kind  ViolationKind
	// Path to the offending value, e.g. "resolution_plans[2].priority". Empty for the payload itself.
	Path string
	// Index of the offending list element, or -1 when the violation is not inside a list.
	Index int
	// Expected and Actual kinds, or range and value for OutOfRange.
	Expected string
	Actual   string
	// Missing field names, sorted. Only set for MissingFields.
	Missing []string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("contract violation at stage %s: %s", v.Stage, v.Detail())
}

// Detail renders the complaint without the stage prefix.
func (v *Violation) Detail() string {
	subject := v.subject()
	switch v.Kind {
	case WrongContainer:
		return fmt.Sprintf("%s must be a %s, got %s", subject, v.Expected, v.Actual)
	case MissingFields:
		return fmt.Sprintf("%s missing required fields: [%s]", subject, strings.Join(v.Missing, " "))
	case TypeMismatch:
		return fmt.Sprintf("%s must be a %s, got %s", subject, v.Expected, v.Actual)
	case OutOfRange:
		return fmt.Sprintf("%s must be in %s, got %s", subject, v.Expected, v.Actual)
	}
	return string(v.Kind)
}

func (v *Violation) subject() string {
	if v.Path == "" {
		return "output"
	}
	if v.Kind == WrongContainer || v.Kind == MissingFields {
		if strings.HasPrefix(v.Path, "[") && !strings.Contains(v.Path[1:], "[") && !strings.Contains(v.Path, ".") {
			return "item " + strings.Trim(v.Path, "[]")
		}
	}
	return fmt.Sprintf("'%s'", v.Path)
}

// Is makes errors.Is(v, ErrContractViolation) hold.
func (v *Violation) Is(target error) bool {
	return target == ErrContractViolation
}

// AsViolation extracts the *Violation from err's chain.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
