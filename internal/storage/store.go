// Package storage keeps a history of runs: one directory per run holding
// its metadata, with the trajectory left at the output path the run wrote.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/cosimrun/internal/metrics"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type RunMetadata struct {
	ID            string                `json:"id"`
	Model         string                `json:"model"`
	Timestamp     time.Time             `json:"timestamp"`
	BeginTime     float64               `json:"begin"`
	EndTime       float64               `json:"end"`
	StepSize      float64               `json:"step"`
	Output        string                `json:"output"`
	InitialValues []string              `json:"initial_values,omitempty"`
	Status        string                `json:"status"`
	Error         string                `json:"error,omitempty"`
	Rows          int                   `json:"rows"`
	FailureTime   *float64              `json:"failure_time,omitempty"`
	RealTimeRatio float64               `json:"rtf"`
	WallTime      float64               `json:"wall_time"`
	Summary       []metrics.ColumnStats `json:"summary,omitempty"`
	Metrics       map[string]float64    `json:"metrics,omitempty"`
}

// Save writes meta under a fresh run directory and returns the run ID.
// An ID already set on meta is kept.
func (s *Store) Save(meta *RunMetadata) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", sanitize(meta.Model), meta.Timestamp.UnixNano())
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding run %s: %w", meta.ID, err)
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, "metadata.json"), append(data, '\n'), 0644); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func sanitize(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, name)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Trajectory is a recorded output file read back into memory.
type Trajectory struct {
	Header []string
	Times  []float64
	Rows   [][]string
}

// LoadTrajectory reads a CSV written by the recorder.
func LoadTrajectory(path string) (*Trajectory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}

	traj := &Trajectory{
		Header: records[0],
		Times:  make([]float64, 0, len(records)-1),
		Rows:   make([][]string, 0, len(records)-1),
	}
	for i := 1; i < len(records); i++ {
		record := records[i]
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad time %q", path, i+1, record[0])
		}
		traj.Times = append(traj.Times, t)
		traj.Rows = append(traj.Rows, record[1:])
	}
	return traj, nil
}

// Names returns the variable names of the value columns.
func (t *Trajectory) Names() []string {
	names := make([]string, 0, len(t.Header))
	for _, h := range t.Header[1:] {
		name, _, _ := strings.Cut(h, " [")
		names = append(names, name)
	}
	return names
}

// Column returns the named value column as floats. Booleans read as 0/1.
func (t *Trajectory) Column(name string) ([]float64, error) {
	idx := -1
	for i, n := range t.Names() {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown column: %s (available: %v)", name, t.Names())
	}

	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		switch row[idx] {
		case "true":
			values[i] = 1
		case "false":
			values[i] = 0
		default:
			v, err := strconv.ParseFloat(row[idx], 64)
			if err != nil {
				return nil, fmt.Errorf("column %s is not numeric: %q", name, row[idx])
			}
			values[i] = v
		}
	}
	return values, nil
}

type ExportData struct {
	Run     *RunMetadata         `json:"run"`
	Times   []float64            `json:"times,omitempty"`
	Columns map[string][]float64 `json:"columns,omitempty"`
}

// ExportJSON writes meta and, when traj is not nil, its numeric columns.
func ExportJSON(w io.Writer, meta *RunMetadata, traj *Trajectory) error {
	data := ExportData{Run: meta}
	if traj != nil {
		data.Times = traj.Times
		data.Columns = make(map[string][]float64)
		for _, name := range traj.Names() {
			if col, err := traj.Column(name); err == nil {
				data.Columns[name] = col
			}
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
