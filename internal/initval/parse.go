// Package initval converts name=value arguments into typed variable values
// for a model.
package initval

import (
	"strconv"
	"strings"

	"github.com/san-kum/cosimrun/internal/cosim"
)

// Parse coerces each name=value argument to the native type of the named
// variable. The first invalid argument aborts the whole batch.
func Parse(args []string, desc *cosim.ModelDescription) (*cosim.VariableValues, error) {
	lookup := make(map[string]*cosim.VariableDescription, len(desc.Variables))
	for i := range desc.Variables {
		lookup[desc.Variables[i].Name] = &desc.Variables[i]
	}

	values := &cosim.VariableValues{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, &cosim.InitialValueError{Arg: arg, Wrapped: cosim.ErrMalformedSpecification}
		}

		v, found := lookup[name]
		if !found {
			return nil, &cosim.InitialValueError{Arg: arg, Name: name, Value: value, Wrapped: cosim.ErrUnknownVariable}
		}
		if !v.Causality.Settable() {
			return nil, &cosim.InitialValueError{Arg: arg, Name: name, Value: value, Wrapped: cosim.ErrNonSettableVariable}
		}

		if !appendValue(values, v, value) {
			return nil, &cosim.InitialValueError{Arg: arg, Name: name, Value: value, Wrapped: cosim.ErrConversionFailure}
		}
	}
	return values, nil
}

func appendValue(values *cosim.VariableValues, v *cosim.VariableDescription, s string) bool {
	switch v.Type {
	case cosim.Real:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false
		}
		values.Real.Append(v.Reference, f)
	case cosim.Integer:
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return false
		}
		values.Integer.Append(v.Reference, int32(i))
	case cosim.Boolean:
		switch s {
		case "true":
			values.Boolean.Append(v.Reference, true)
		case "false":
			values.Boolean.Append(v.Reference, false)
		default:
			return false
		}
	case cosim.String:
		values.String.Append(v.Reference, s)
	default:
		return false
	}
	return true
}
