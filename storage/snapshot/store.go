package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/core/student"
)

// Store is the student snapshot: a bulk export of student records, loaded once and read-only afterwards.
type Store struct {
	records map[int]student.Record
}

var _ student.Snapshot = (*Store)(nil) // interface compliance check

func NewStore(recs ...student.Record) *Store {
	s := &Store{records: make(map[int]student.Record, len(recs))}
	for _, rec := range recs {
		s.records[rec.Info.ID] = rec
	}
	return s
}

// Read decodes a JSON array of {StudentInfo, Exams, Grades} records.
// Records without a student ID are skipped; the last record of a student wins.
func Read(r io.Reader) (*Store, int, error) {
	var recs []student.Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, 0, errors.Wrap(err, "decoding student snapshot")
	}

	kept := recs[:0]
	var skipped int
	for _, rec := range recs {
		if rec.Info.ID == 0 {
			skipped++
			continue
		}
		if rec.Exams == nil {
			rec.Exams = []student.Exam{}
		}
		if rec.Grades == nil {
			rec.Grades = []student.Grade{}
		}
		kept = append(kept, rec)
	}
	return NewStore(kept...), skipped, nil
}

func ReadFile(path string) (*Store, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrap(err, "opening student snapshot")
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Load reads the snapshot file. It never fails: a missing or broken snapshot yields an empty store,
// and every student is then assembled live from the record store.
func Load(path string, logger core.Logger) *Store {
	if path == "" {
		return NewStore()
	}

	s, skipped, err := ReadFile(path)
	if err != nil {
		if logger != nil {
			logger.Error("student snapshot not available", err)
		}
		return NewStore()
	}
	if logger != nil {
		if skipped > 0 {
			logger.Warn(fmt.Sprintf("student snapshot: skipped %d records without StudentID", skipped))
		}
		logger.Info(fmt.Sprintf("student snapshot loaded: %d students", s.Len()))
	}
	return s
}

func (s *Store) Lookup(id int) (student.Record, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

func (s *Store) Len() int {
	return len(s.records)
}
