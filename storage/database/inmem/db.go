package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/ontrack/core/student"
)

// DB is an in-memory record store, for development and tests.
type DB struct {
	mutex   sync.RWMutex
	records map[int]student.Record
}

var (
	_ student.Repository = (*DB)(nil) // interface compliance check
	_ student.Snapshot   = (*DB)(nil)
)

func Open(recs ...student.Record) *DB {
	db := &DB{records: make(map[int]student.Record, len(recs))}
	db.Put(recs...)
	return db
}

// Put inserts or replaces the records, keyed by student ID.
func (db *DB) Put(recs ...student.Record) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	for _, rec := range recs {
		db.records[rec.Info.ID] = copyRecord(rec)
	}
}

func (db *DB) Delete(ids ...int) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	for _, id := range ids {
		delete(db.records, id)
	}
}

func (db *DB) Lookup(id int) (student.Record, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	rec, ok := db.records[id]
	if !ok {
		return student.Record{}, false
	}
	return copyRecord(rec), true
}

func (db *DB) Len() int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return len(db.records)
}

func (db *DB) FetchStudentInfo(_ context.Context, id int) ([]student.Info, error) {
	rec, ok := db.Lookup(id)
	if !ok {
		return []student.Info{}, nil
	}
	return []student.Info{rec.Info}, nil
}

func (db *DB) FetchExamResults(_ context.Context, id int) ([]student.Exam, error) {
	rec, _ := db.Lookup(id)
	if rec.Exams == nil {
		return []student.Exam{}, nil
	}
	return rec.Exams, nil
}

func (db *DB) FetchGradeRecords(_ context.Context, id int) ([]student.Grade, error) {
	rec, _ := db.Lookup(id)
	if rec.Grades == nil {
		return []student.Grade{}, nil
	}
	return rec.Grades, nil
}

func copyRecord(rec student.Record) student.Record {
	if rec.Exams != nil {
		rec.Exams = append([]student.Exam(nil), rec.Exams...)
	}
	if rec.Grades != nil {
		rec.Grades = append([]student.Grade(nil), rec.Grades...)
	}
	return rec
}
