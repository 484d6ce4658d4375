package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
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

// RunMetadata captures one estimation run: the setup that produced it and
// the reported estimates.
type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Method   string `json:"method"`
	Sampling string `json:"sampling,omitempty"`
	Draws    int    `json:"draws"`

	N    int    `json:"n"`
	T    int    `json:"t"`
	Seed uint64 `json:"seed"`

	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
	FuncEvals  int     `json:"fevals"`
	Criterion  float64 `json:"criterion"`

	Theta []float64 `json:"theta"`
	SE    []float64 `json:"se,omitempty"`
	TStat []float64 `json:"t_stat,omitempty"`
}

// Save persists a run as meta.json plus an estimates.csv table and returns
// the assigned run ID.
func (s *Store) Save(meta RunMetadata) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Method, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, "meta.json"), data, 0644); err != nil {
		return "", err
	}

	if err := s.writeEstimatesCSV(filepath.Join(runDir, "estimates.csv"), meta); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) writeEstimatesCSV(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"param", "estimate", "se", "t"}); err != nil {
		return err
	}
	k := len(meta.Theta) - 2
	for i, v := range meta.Theta {
		name := fmt.Sprintf("beta_%d", i+1)
		switch i {
		case k:
			name = "sigma_u"
		case k + 1:
			name = "sigma_c"
		}
		se, tstat := "", ""
		if i < len(meta.SE) {
			se = strconv.FormatFloat(meta.SE[i], 'g', -1, 64)
		}
		if i < len(meta.TStat) {
			tstat = strconv.FormatFloat(meta.TStat[i], 'g', -1, 64)
		}
		row := []string{name, strconv.FormatFloat(v, 'g', -1, 64), se, tstat}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Load reads one run's metadata by ID.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "meta.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// List returns all stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
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
