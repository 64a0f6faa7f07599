package cosim

import (
	"fmt"
	"time"
)

type ValueReference uint32

type VariableType int

const (
	Real VariableType = iota
	Integer
	Boolean
	String
)

func (t VariableType) String() string {
	switch t {
	case Real:
		return "real"
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	case String:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

type Causality int

const (
	Parameter Causality = iota
	CalculatedParameter
	Input
	Output
	Local
)

func (c Causality) String() string {
	switch c {
	case Parameter:
		return "parameter"
	case CalculatedParameter:
		return "calculated_parameter"
	case Input:
		return "input"
	case Output:
		return "output"
	case Local:
		return "local"
	default:
		return fmt.Sprintf("causality(%d)", int(c))
	}
}

// Settable reports whether values may be written to a variable of this
// causality from outside the model.
func (c Causality) Settable() bool {
	return c == Parameter || c == Input
}

type Variability int

const (
	Constant Variability = iota
	Fixed
	Tunable
	Discrete
	Continuous
)

func (v Variability) String() string {
	switch v {
	case Constant:
		return "constant"
	case Fixed:
		return "fixed"
	case Tunable:
		return "tunable"
	case Discrete:
		return "discrete"
	case Continuous:
		return "continuous"
	default:
		return fmt.Sprintf("variability(%d)", int(v))
	}
}

type VariableDescription struct {
	Name        string
	Reference   ValueReference
	Type        VariableType
	Causality   Causality
	Variability Variability
}

type ModelDescription struct {
	Name        string
	UUID        string
	Description string
	Author      string
	Version     string
	Variables   []VariableDescription
}

// Batch pairs value references with values of one scalar type. The
// reference at position i always belongs to the value at position i.
type Batch[T any] struct {
	Refs   []ValueReference
	Values []T
}

func (b *Batch[T]) Append(ref ValueReference, v T) {
	b.Refs = append(b.Refs, ref)
	b.Values = append(b.Values, v)
}

func (b Batch[T]) Len() int { return len(b.Refs) }

// VariableValues groups values by type, mirroring the simulator's batched
// get/set protocol.
type VariableValues struct {
	Real    Batch[float64]
	Integer Batch[int32]
	Boolean Batch[bool]
	String  Batch[string]
}

func (v *VariableValues) Len() int {
	return v.Real.Len() + v.Integer.Len() + v.Boolean.Len() + v.String.Len()
}

// References selects variables to read, grouped by type.
type References struct {
	Real    []ValueReference
	Integer []ValueReference
	Boolean []ValueReference
	String  []ValueReference
}

func (r References) Len() int {
	return len(r.Real) + len(r.Integer) + len(r.Boolean) + len(r.String)
}

type StepResult int

const (
	StepComplete StepResult = iota
	StepFailed
)

func (r StepResult) String() string {
	if r == StepComplete {
		return "complete"
	}
	return "failed"
}

type SetupOptions struct {
	// RelativeTolerance is passed through to models with internal error
	// control. Zero means the model default.
	RelativeTolerance float64
}

type Simulator interface {
	ModelDescription() *ModelDescription
	Setup(begin, end TimePoint, opts SetupOptions) error
	SetVariables(values *VariableValues) error
	StartSimulation() error
	DoStep(t TimePoint, dt time.Duration) (StepResult, error)
	GetVariables(refs References) (*VariableValues, error)
	EndSimulation() error
}

type Model interface {
	Description() *ModelDescription
	Instantiate(name string) (Simulator, error)
}

type Resolver interface {
	LookupModel(baseURI, reference string) (Model, error)
}
