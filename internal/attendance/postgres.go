package attendance

import (
	"context"
	"database/sql"

	"smartattendance/internal/store"
)

// PostgresLedger persists records in the attendance table.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger creates a ledger.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Append(ctx context.Context, rec Record) (Record, error) {
	out, err := l.AppendBatch(ctx, []Record{rec})
	if err != nil {
		return Record{}, err
	}
	return out[0], nil
}

func (l *PostgresLedger) AppendBatch(ctx context.Context, recs []Record) ([]Record, error) {
	out := make([]Record, 0, len(recs))
	err := store.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		for _, rec := range recs {
			var teacher sql.NullString
			if rec.SessionRef.Manual() {
				teacher = sql.NullString{String: rec.SessionRef.Teacher, Valid: true}
			}
			row := tx.QueryRowContext(ctx, `
				INSERT INTO attendance (user_usn, session_ref, ref_kind, ref_teacher, classroom_id, subject,
					qr_match, location_match, face_match, marked_by_teacher, timestamp)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, NOW()))
				RETURNING id, timestamp
			`, rec.StudentUSN, rec.SessionRef.Token, string(rec.SessionRef.Kind), teacher, rec.ClassroomID, rec.Subject,
				rec.QRMatch, rec.LocationMatch, rec.FaceMatch, rec.MarkedByTeacher, nullTime(rec))
			if err := row.Scan(&rec.ID, &rec.Timestamp); err != nil {
				return err
			}
			rec.Timestamp = rec.Timestamp.UTC()
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const selectRecords = `
	SELECT id, user_usn, session_ref, ref_kind, ref_teacher, classroom_id, subject,
		qr_match, location_match, face_match, marked_by_teacher, timestamp
	FROM attendance`

func (l *PostgresLedger) ByStudent(ctx context.Context, usn string) ([]Record, error) {
	return l.list(ctx, selectRecords+` WHERE user_usn = $1 ORDER BY timestamp DESC, id DESC`, usn)
}

func (l *PostgresLedger) BySessionRef(ctx context.Context, ref string) ([]Record, error) {
	return l.list(ctx, selectRecords+` WHERE session_ref = $1 ORDER BY timestamp DESC, id DESC`, ref)
}

func (l *PostgresLedger) list(ctx context.Context, query, arg string) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var (
			rec     Record
			kind    string
			teacher sql.NullString
			subject sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.StudentUSN, &rec.SessionRef.Token, &kind, &teacher, &rec.ClassroomID, &subject,
			&rec.QRMatch, &rec.LocationMatch, &rec.FaceMatch, &rec.MarkedByTeacher, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Subject = subject.String
		rec.Timestamp = rec.Timestamp.UTC()
		rec.SessionRef.Kind = RefKind(kind)
		if rec.SessionRef.Manual() {
			rec.SessionRef.Teacher = teacher.String
			rec.SessionRef.Subject = rec.Subject
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func nullTime(rec Record) sql.NullTime {
	return sql.NullTime{Time: rec.Timestamp, Valid: !rec.Timestamp.IsZero()}
}
