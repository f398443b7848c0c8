package attendance

import "context"

// Ledger is the append-only store of attendance records. Rows are never
// updated or deleted.
type Ledger interface {
	// Append writes one record and returns it with ID and Timestamp set.
	Append(ctx context.Context, rec Record) (Record, error)
	// AppendBatch writes all records or none.
	AppendBatch(ctx context.Context, recs []Record) ([]Record, error)
	// ByStudent returns a student's records, newest first.
	ByStudent(ctx context.Context, usn string) ([]Record, error)
	// BySessionRef returns records whose session ref equals ref exactly, newest first.
	BySessionRef(ctx context.Context, ref string) ([]Record, error)
}
