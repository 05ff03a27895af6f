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
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/replicator/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

// Store archives solved trajectories, one directory per run.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return ioFailure(err, "create data dir %s", s.baseDir)
	}
	return nil
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Game         string             `json:"game,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
	Payoff       [][]float64        `json:"payoff"`
	InitialState []float64          `json:"initial_state"`
	TotalTime    float64            `json:"total_time"`
	Samples      int                `json:"samples"`
	Integrator   string             `json:"integrator"`
	Stats        dynamo.Stats       `json:"stats"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes meta and the trajectory into a new run directory and returns
// the run ID. meta.ID, meta.Timestamp and meta.Samples are filled in. A
// failed write removes the run directory.
func (s *Store) Save(meta RunMetadata, times []float64, states []dynamo.State) (string, error) {
	if len(times) != len(states) {
		return "", errors.Errorf("have %d times for %d states", len(times), len(states))
	}

	prefix := meta.Game
	if prefix == "" {
		prefix = "run"
	}
	now := time.Now()
	runID, runDir, err := s.createRunDir(prefix, now)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Samples = len(states)

	if err := writeRun(runDir, meta, times, states); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}

	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, times []float64, states []dynamo.State) error {
	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(runDir, statesFile), func(w io.Writer) error {
		return EncodeCSV(w, times, states)
	})
}

func (s *Store) createRunDir(prefix string, now time.Time) (string, string, error) {
	base := fmt.Sprintf("%s_%d", prefix, now.UnixNano())
	for i := 0; ; i++ {
		runID := base
		if i > 0 {
			runID = fmt.Sprintf("%s_%d", base, i)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", ioFailure(err, "create run dir %s", runDir)
		}
	}
}

func writeFile(path string, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return ioFailure(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = ioFailure(cerr, "close %s", path)
		}
	}()

	if err := encode(f); err != nil {
		return ioFailure(err, "write %s", path)
	}
	return nil
}

// EncodeCSV writes a trajectory as CSV with a time,x0,x1,x2 header and six
// decimals per value.
func EncodeCSV(w io.Writer, times []float64, states []dynamo.State) error {
	if len(times) != len(states) {
		return errors.Errorf("have %d times for %d states", len(times), len(states))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "x0", "x1", "x2"}); err != nil {
		return err
	}

	row := make([]string, 4)
	for i, state := range states {
		if len(state) != 3 {
			return errors.Errorf("sample %d has %d components, want 3", i, len(state))
		}
		row[0] = strconv.FormatFloat(times[i], 'f', 6, 64)
		for j, val := range state {
			row[j+1] = strconv.FormatFloat(val, 'f', 6, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, ioFailure(err, "list %s", s.baseDir)
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
	metaPath := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, ioFailure(err, "read run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode run %s", runID)
	}

	return &meta, nil
}

// LoadTrajectory reads back the sample times and states of a run.
func (s *Store) LoadTrajectory(runID string) ([]float64, []dynamo.State, error) {
	csvPath := filepath.Join(s.baseDir, runID, statesFile)
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, ioFailure(err, "open run %s", runID)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 4

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse %s", csvPath)
	}

	if len(records) < 2 {
		return []float64{}, []dynamo.State{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dynamo.State, 0, len(records)-1)

	for i, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "%s row %d", csvPath, i+1)
			}
			values[j] = v
		}
		times = append(times, values[0])
		states = append(states, dynamo.State(values[1:]))
	}

	return times, states, nil
}
