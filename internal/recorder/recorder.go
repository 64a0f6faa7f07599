// Package recorder writes the trajectory of every model variable to a CSV
// sink, one row per recorded instant.
package recorder

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/cosimrun/internal/cosim"
)

// Observer is notified of every recorded instant after its row is written.
type Observer interface {
	OnRecord(t cosim.TimePoint, values *cosim.VariableValues)
}

type Recorder struct {
	sim    cosim.Simulator
	path   string
	w      *csv.Writer
	closer io.Closer

	refs      cosim.References
	columns   []Column
	rows      int
	observers []Observer
}

// Column describes one value column of the output, in output order.
type Column struct {
	Variable cosim.VariableDescription
	Label    string
}

// Opener creates the sink a Recorder writes to.
type Opener func(path string) (io.WriteCloser, error)

// CreateFile is the Opener used by Create.
func CreateFile(path string) (io.WriteCloser, error) { return os.Create(path) }

// Create opens path for writing and returns a Recorder that owns the file.
func Create(sim cosim.Simulator, path string) (*Recorder, error) {
	return CreateWith(sim, path, CreateFile)
}

// CreateWith is Create with a custom opener. The Recorder owns what open
// returns and closes it in Close.
func CreateWith(sim cosim.Simulator, path string, open Opener) (*Recorder, error) {
	f, err := open(path)
	if err != nil {
		return nil, &cosim.SinkError{Path: path, Wrapped: err}
	}
	r, err := newRecorder(sim, f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// New writes the header row to w and returns a Recorder appending to it.
func New(sim cosim.Simulator, w io.Writer) (*Recorder, error) {
	return newRecorder(sim, w, "")
}

func newRecorder(sim cosim.Simulator, w io.Writer, path string) (*Recorder, error) {
	r := &Recorder{sim: sim, path: path, w: csv.NewWriter(w)}

	var reals, integers, booleans, strs []Column
	for _, v := range sim.ModelDescription().Variables {
		col := Column{Variable: v, Label: ColumnLabel(v)}
		switch v.Type {
		case cosim.Real:
			reals = append(reals, col)
			r.refs.Real = append(r.refs.Real, v.Reference)
		case cosim.Integer:
			integers = append(integers, col)
			r.refs.Integer = append(r.refs.Integer, v.Reference)
		case cosim.Boolean:
			booleans = append(booleans, col)
			r.refs.Boolean = append(r.refs.Boolean, v.Reference)
		case cosim.String:
			strs = append(strs, col)
			r.refs.String = append(r.refs.String, v.Reference)
		default:
			return nil, fmt.Errorf("variable %s has unsupported type %v", v.Name, v.Type)
		}
	}
	r.columns = append(append(append(reals, integers...), booleans...), strs...)

	header := make([]string, 0, len(r.columns)+1)
	header = append(header, "Time")
	for _, c := range r.columns {
		header = append(header, c.Label)
	}
	if err := r.write(header); err != nil {
		return nil, err
	}
	return r, nil
}

// ColumnLabel renders "name [reference type causality]".
func ColumnLabel(v cosim.VariableDescription) string {
	return fmt.Sprintf("%s [%d %s %s]", v.Name, v.Reference, v.Type, v.Causality)
}

func (r *Recorder) Columns() []Column            { return r.columns }
func (r *Recorder) References() cosim.References { return r.refs }
func (r *Recorder) Rows() int                    { return r.rows }
func (r *Recorder) AddObserver(o Observer)       { r.observers = append(r.observers, o) }

// Record reads every variable in one batched call and appends a row for t.
func (r *Recorder) Record(t cosim.TimePoint) error {
	values, err := r.sim.GetVariables(r.refs)
	if err != nil {
		return fmt.Errorf("reading variables at t=%s: %w", t, err)
	}
	if values.Real.Len() != len(r.refs.Real) ||
		values.Integer.Len() != len(r.refs.Integer) ||
		values.Boolean.Len() != len(r.refs.Boolean) ||
		values.String.Len() != len(r.refs.String) {
		return fmt.Errorf("%w: got %d values for %d columns at t=%s",
			cosim.ErrColumnMismatch, values.Len(), r.refs.Len(), t)
	}

	row := make([]string, 0, len(r.columns)+1)
	row = append(row, strconv.FormatFloat(t.Seconds(), 'f', -1, 64))
	for _, v := range values.Real.Values {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	for _, v := range values.Integer.Values {
		row = append(row, strconv.FormatInt(int64(v), 10))
	}
	for _, v := range values.Boolean.Values {
		row = append(row, strconv.FormatBool(v))
	}
	row = append(row, values.String.Values...)

	if err := r.write(row); err != nil {
		return err
	}
	r.rows++

	for _, o := range r.observers {
		o.OnRecord(t, values)
	}
	return nil
}

func (r *Recorder) write(record []string) error {
	if err := r.w.Write(record); err != nil {
		return &cosim.SinkError{Path: r.path, Wrapped: err}
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return &cosim.SinkError{Path: r.path, Wrapped: err}
	}
	return nil
}

func (r *Recorder) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	if err != nil {
		return &cosim.SinkError{Path: r.path, Wrapped: err}
	}
	return nil
}
