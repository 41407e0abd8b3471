package student

import (
	"context"
)

type (
	// Repository is the record store holding the persisted academic records.
	// Every method returns an empty slice when there is no data and only fails on genuine I/O errors.
	Repository interface {
		FetchStudentInfo(ctx context.Context, id int) ([]Info, error)
		FetchExamResults(ctx context.Context, id int) ([]Exam, error)
		FetchGradeRecords(ctx context.Context, id int) ([]Grade, error)
	}

	// Snapshot is a read-only bulk export of student records, keyed by student ID.
	Snapshot interface {
		Lookup(id int) (Record, bool)
		Len() int
	}
)
