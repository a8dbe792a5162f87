// Package storage keeps reduced runs on disk. Each run is a directory under
// the base directory holding metadata.json and metrics.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/dynstab/internal/phase"
	"github.com/san-kum/dynstab/internal/pipeline"
	"github.com/san-kum/dynstab/internal/stability"
)

const (
	metadataFile = "metadata.json"
	metricsFile  = "metrics.csv"
)

// ErrRunNotFound indicates a run ID with no stored run.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

// Inputs names the files a run was reduced from.
type Inputs struct {
	Series string `json:"series,omitempty"`
	Aero   string `json:"aero,omitempty"`
	Config string `json:"config,omitempty"`
}

type Events struct {
	LaunchRod Float `json:"launch_rod"`
	Apogee    Float `json:"apogee"`
}

type RunMetadata struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Sweep      string               `json:"sweep,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
	Inputs     Inputs               `json:"inputs"`
	Convention stability.Convention `json:"convention"`
	Events     Events               `json:"events"`
	Samples    int                  `json:"samples"`
	Ascent     int                  `json:"ascent"`
	FlutterErr string               `json:"flutter_error,omitempty"`
	Fields     []stability.Field    `json:"fields"`
	Summary    map[string]Float     `json:"summary"`
}

// SaveOptions are the run attributes not carried by the result itself.
type SaveOptions struct {
	Sweep      string
	Inputs     Inputs
	Convention stability.Convention
}

// Save writes res as a new run and returns its ID.
func (s *Store) Save(res *pipeline.Result, opts SaveOptions) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	runID, runDir, err := s.newRunDir(res.Name)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       res.Name,
		Sweep:      opts.Sweep,
		Timestamp:  time.Now(),
		Inputs:     opts.Inputs,
		Convention: opts.Convention,
		Events:     Events{LaunchRod: Float(res.Events.LaunchRod), Apogee: Float(res.Events.Apogee)},
		Samples:    len(res.Metrics),
		Ascent:     res.Ascent(),
		Fields:     res.Fields,
		Summary:    floatMap(res.Summary),
	}
	if res.FlutterErr != nil {
		meta.FlutterErr = res.FlutterErr.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeMetrics(filepath.Join(runDir, metricsFile), res); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) newRunDir(name string) (string, string, error) {
	base := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	for i := 0; ; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMetrics(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"time", "phase"}
	for _, fl := range res.Fields {
		header = append(header, fl.Name)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, m := range res.Metrics {
		row[0] = strconv.FormatFloat(m.Time, 'g', -1, 64)
		row[1] = m.Phase.String()
		for i, v := range m.Values(res.Fields) {
			row[i+2] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every stored run, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Sweep returns the runs saved under one sweep ID.
func (s *Store) Sweep(id string) ([]RunMetadata, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []RunMetadata
	for _, r := range all {
		if r.Sweep == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// Series is a stored metric table in column form.
type Series struct {
	Times  []float64
	Phases []phase.Phase
	Fields []string
	Values [][]float64 // Values[field][sample]
}

// Column returns the values of one field.
func (s *Series) Column(name string) ([]float64, bool) {
	for i, f := range s.Fields {
		if f == name {
			return s.Values[i], true
		}
	}
	return nil, false
}

func (s *Series) Len() int { return len(s.Times) }

// LoadSeries reads a run's metrics.csv.
func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, metricsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: %s: empty metrics file", runID)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("storage: %s: malformed header", runID)
	}
	out := &Series{
		Fields: header[2:],
		Values: make([][]float64, len(header)-2),
	}

	for _, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		p, _ := phase.Parse(rec[1])
		out.Times = append(out.Times, t)
		out.Phases = append(out.Phases, p)
		for j := range out.Fields {
			v, err := strconv.ParseFloat(rec[j+2], 64)
			if err != nil {
				v = math.NaN()
			}
			out.Values[j] = append(out.Values[j], v)
		}
	}
	return out, nil
}
