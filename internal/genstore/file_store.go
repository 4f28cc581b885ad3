package genstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ieltsprep/pkg/domain"
)

const (
	jobsDirName = "jobs"
	setsDirName = "practice_sets"
)

// FileStore keeps one JSON file per record under a base directory, split into
// a jobs namespace and a practice-sets namespace. Writes are plain file
// writes; no atomic-rename or crash-safety guarantees.
type FileStore struct {
	jobsDir string
	setsDir string

	mu     sync.Mutex
	latest string
}

// NewFileStore creates the record directories if missing.
func NewFileStore(baseDir string) (*FileStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("generation store base path is required")
	}
	s := &FileStore{
		jobsDir: filepath.Join(baseDir, jobsDirName),
		setsDir: filepath.Join(baseDir, setsDirName),
	}
	for _, dir := range []string{s.jobsDir, s.setsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create generation store dir: %w", err)
		}
	}
	return s, nil
}

// PutJob writes the job record as one file keyed by its id.
func (s *FileStore) PutJob(job domain.Job) error {
	return writeRecord(filepath.Join(s.jobsDir, job.ID+".json"), job)
}

// GetJob reads a job record; a missing file is reported as not found.
func (s *FileStore) GetJob(id string) (domain.Job, bool, error) {
	var job domain.Job
	ok, err := readRecord(filepath.Join(s.jobsDir, id+".json"), &job)
	return job, ok, err
}

// UpdateJob merges the update over the stored record. Missing job: no-op.
func (s *FileStore) UpdateJob(id string, update JobUpdate) error {
	job, ok, err := s.GetJob(id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	applyJobUpdate(&job, update)
	return s.PutJob(job)
}

// PutPracticeSet writes the record and advances the most-recent pointer.
func (s *FileStore) PutPracticeSet(ps domain.PracticeSet) error {
	if err := writeRecord(filepath.Join(s.setsDir, ps.ID+".json"), ps); err != nil {
		return err
	}
	s.mu.Lock()
	s.latest = ps.ID
	s.mu.Unlock()
	return nil
}

// GetPracticeSet reads a practice-set record by id.
func (s *FileStore) GetPracticeSet(id string) (domain.PracticeSet, bool, error) {
	var ps domain.PracticeSet
	ok, err := readRecord(filepath.Join(s.setsDir, id+".json"), &ps)
	return ps, ok, err
}

// LatestPracticeSetID returns the most recently stored practice-set id.
func (s *FileStore) LatestPracticeSetID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func writeRecord(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func readRecord(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode record: %w", err)
	}
	return true, nil
}
