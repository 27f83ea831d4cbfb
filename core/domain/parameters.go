package domain

import "fmt"

// Parameters carries the values bound into placeholders at execution time.
// It is either a named mapping or a positional sequence; the zero value means
// no parameters.
type Parameters struct {
	named      map[string]any
	positional []any
}

// Named creates mapping parameters for named placeholders
func Named(values map[string]any) Parameters {
	return Parameters{named: values}
}

// Positional creates sequence parameters for positional placeholders
func Positional(values ...any) Parameters {
	return Parameters{positional: values}
}

// IsZero reports whether no parameters were given
func (p Parameters) IsZero() bool {
	return p.named == nil && p.positional == nil
}

// IsNamed reports whether the parameters are a named mapping
func (p Parameters) IsNamed() bool {
	return p.named != nil
}

// Map returns the named mapping, or nil for positional parameters
func (p Parameters) Map() map[string]any {
	return p.named
}

// Args returns the positional values, or nil for named parameters
func (p Parameters) Args() []any {
	return p.positional
}

// String implements fmt.Stringer for log output
func (p Parameters) String() string {
	switch {
	case p.named != nil:
		return fmt.Sprintf("%v", p.named)
	case p.positional != nil:
		return fmt.Sprintf("%v", p.positional)
	default:
		return "None"
	}
}
