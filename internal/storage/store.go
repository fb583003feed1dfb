package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/rkode/internal/ode"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var adaptiveColumns = []string{
	"step_error", "step_size_next", "step_attempts", "accumulated_error", "accumulated_attempts",
}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Problem        string             `json:"problem"`
	Method         string             `json:"method"`
	Timestamp      time.Time          `json:"timestamp"`
	StepSize       float64            `json:"step_size"`
	TInitial       float64            `json:"t_initial"`
	TFinal         float64            `json:"t_final"`
	Adaptive       bool               `json:"adaptive"`
	ErrorThreshold float64            `json:"error_threshold,omitempty"`
	Steps          int                `json:"steps"`
	Evaluations    int                `json:"evaluations"`
	Truncated      bool               `json:"truncated,omitempty"`
	Params         map[string]float64 `json:"params,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

// Save writes a new run directory and returns its ID. The ID and Timestamp
// of meta are assigned here.
func (s *Store) Save(meta RunMetadata, samples []ode.Sample[[]float64]) (string, error) {
	meta.Timestamp = s.now()
	runDir, err := s.createRunDir(meta)
	if err != nil {
		return "", err
	}
	meta.ID = filepath.Base(runDir)

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, samples); err != nil {
		return "", fmt.Errorf("write samples: %w", err)
	}
	return meta.ID, f.Close()
}

// createRunDir picks problem_method_unix and suffixes it when two runs land
// in the same second.
func (s *Store) createRunDir(meta RunMetadata) (string, error) {
	base := fmt.Sprintf("%s_%s_%d", meta.Problem, meta.Method, meta.Timestamp.Unix())
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		dir := filepath.Join(s.baseDir, name)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
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
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
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

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]ode.Sample[[]float64], error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	defer f.Close()

	samples, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return samples, nil
}

// LoadStates splits a run into its states and times.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}
	states := make([][]float64, len(samples))
	times := make([]float64, len(samples))
	for i, smp := range samples {
		states[i] = smp.Y
		times[i] = smp.T
	}
	return states, times, nil
}

// WriteCSV writes one row per sample: t, step_size, the adaptive columns
// when the first sample carries adaptive info, then y0..yn.
func WriteCSV(w io.Writer, samples []ode.Sample[[]float64]) error {
	cw := csv.NewWriter(w)
	if len(samples) == 0 {
		cw.Flush()
		return cw.Error()
	}

	adaptive := samples[0].Adaptive != nil
	header := []string{"t", "step_size"}
	if adaptive {
		header = append(header, adaptiveColumns...)
	}
	for i := range samples[0].Y {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for _, smp := range samples {
		row = append(row[:0], formatFloat(smp.T), formatFloat(smp.StepSize))
		if adaptive {
			a := smp.Adaptive
			if a == nil {
				a = &ode.AdaptiveInfo{}
			}
			row = append(row,
				formatFloat(a.StepError),
				formatFloat(a.StepSizeNext),
				strconv.Itoa(a.StepAttempts),
				formatFloat(a.AccumulatedError),
				strconv.Itoa(a.AccumulatedAttempts),
			)
		}
		for _, v := range smp.Y {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the output of WriteCSV.
func ReadCSV(r io.Reader) ([]ode.Sample[[]float64], error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []ode.Sample[[]float64]{}, nil
	}

	header := records[0]
	if len(header) < 2 || header[0] != "t" || header[1] != "step_size" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	adaptive := len(header) >= 2+len(adaptiveColumns) &&
		slices.Equal(header[2:2+len(adaptiveColumns)], adaptiveColumns)
	first := 2
	if adaptive {
		first += len(adaptiveColumns)
	}

	samples := make([]ode.Sample[[]float64], 0, len(records)-1)
	for line, record := range records[1:] {
		p := parser{record: record}
		smp := ode.Sample[[]float64]{T: p.float(0), StepSize: p.float(1)}
		if adaptive {
			smp.Adaptive = &ode.AdaptiveInfo{
				StepError:           p.float(2),
				StepSizeNext:        p.float(3),
				StepAttempts:        p.integer(4),
				AccumulatedError:    p.float(5),
				AccumulatedAttempts: p.integer(6),
			}
		}
		smp.Y = make([]float64, len(record)-first)
		for j := range smp.Y {
			smp.Y[j] = p.float(first + j)
		}
		if p.err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, p.err)
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

type parser struct {
	record []string
	err    error
}

func (p *parser) float(i int) float64 {
	v, err := strconv.ParseFloat(p.record[i], 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) integer(i int) int {
	v, err := strconv.Atoi(p.record[i])
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
