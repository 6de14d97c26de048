package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrManifestNotFound matches *NotFoundError.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrSchemaViolation matches *SchemaViolation.
	ErrSchemaViolation = errors.New("schema violation")
)

// NotFoundError is returned when no package.json exists in the start
// directory or any of its ancestors.
type NotFoundError struct {
	Dir string
}

func (e *NotFoundError) Error() string {
	return "Could not find a package.json in the current directory"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrManifestNotFound
}

// ViolationKind distinguishes the three schema failure shapes.
type ViolationKind int

const (
	// ViolationRequired means the field is missing or empty.
	ViolationRequired ViolationKind = iota
	// ViolationType means the field has the wrong JSON type.
	ViolationType
	// ViolationValue means the field has the right type but a disallowed value.
	ViolationValue
)

// SchemaViolation names the offending field path and the expected versus
// actual type of a manifest that failed structural validation.
type SchemaViolation struct {
	Kind     ViolationKind
	Path     string
	Expected string
	Actual   string
}

func (e *SchemaViolation) Error() string {
	switch e.Kind {
	case ViolationRequired:
		return fmt.Sprintf("'%s' in 'package.json' is required as type '%s'", e.Path, e.Expected)
	case ViolationValue:
		return fmt.Sprintf("'%s' in 'package.json' must be one of %s (received '%s')", e.Path, e.Expected, e.Actual)
	default:
		return fmt.Sprintf("'%s' in 'package.json' must be of type '%s' (received '%s')", e.Path, e.Expected, e.Actual)
	}
}

func (e *SchemaViolation) Is(target error) bool {
	return target == ErrSchemaViolation
}
