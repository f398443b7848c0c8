package attendance

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestManualMarkSkipsUnknownUSNs(t *testing.T) {
	f := newFixture(t)
	o := NewOverrider(f.dir, f.ledger, 1, nil)

	res, err := o.ManualMark(context.Background(), ManualMarkRequest{
		Teacher: "T1",
		Subject: "CS101",
		USNs:    []string{"U1", "U2", "UNKNOWN"},
	})
	if err != nil {
		t.Fatalf("ManualMark: %v", err)
	}
	if !reflect.DeepEqual(res.Marked, []string{"U1", "U2"}) {
		t.Fatalf("Marked = %v, want [U1 U2]", res.Marked)
	}
	if res.SessionID != "manual-T1-CS101" {
		t.Fatalf("SessionID = %q", res.SessionID)
	}
	wantResults := []ItemResult{
		{USN: "U1", Status: ItemMarked},
		{USN: "U2", Status: ItemMarked},
		{USN: "UNKNOWN", Status: ItemSkipped, Reason: "student not found"},
	}
	if !reflect.DeepEqual(res.Results, wantResults) {
		t.Fatalf("Results = %+v", res.Results)
	}

	rows, _ := f.ledger.BySessionRef(context.Background(), "manual-T1-CS101")
	if len(rows) != 2 {
		t.Fatalf("%d rows under manual ref, want 2", len(rows))
	}
	for _, r := range rows {
		if !r.MarkedByTeacher {
			t.Fatalf("row %d not teacher-marked", r.ID)
		}
		if r.QRMatch || r.LocationMatch || r.FaceMatch {
			t.Fatalf("row %d has a match flag set", r.ID)
		}
		if !r.SessionRef.Manual() || r.SessionRef.Teacher != "T1" || r.SessionRef.Subject != "CS101" {
			t.Fatalf("row %d ref = %+v", r.ID, r.SessionRef)
		}
		if r.StudentUSN == "UNKNOWN" {
			t.Fatal("row written for unknown USN")
		}
	}
}

func TestManualMarkSessionLabel(t *testing.T) {
	f := newFixture(t)
	o := NewOverrider(f.dir, f.ledger, 1, nil)
	res, err := o.ManualMark(context.Background(), ManualMarkRequest{
		Teacher:     "T1",
		Subject:     "Theory of Computation",
		USNs:        []string{"U1"},
		ClassroomID: 7,
	})
	if err != nil {
		t.Fatalf("ManualMark: %v", err)
	}
	if res.SessionID != "manual-T1-Theory_of_Computation" {
		t.Fatalf("SessionID = %q", res.SessionID)
	}
	rows, _ := f.ledger.ByStudent(context.Background(), "U1")
	if len(rows) != 1 || rows[0].ClassroomID != 7 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestManualMarkValidation(t *testing.T) {
	f := newFixture(t)
	o := NewOverrider(f.dir, f.ledger, 1, nil)
	tests := []struct {
		name string
		req  ManualMarkRequest
	}{
		{name: "missing subject", req: ManualMarkRequest{Teacher: "T1", USNs: []string{"U1"}}},
		{name: "blank subject", req: ManualMarkRequest{Teacher: "T1", Subject: "  ", USNs: []string{"U1"}}},
		{name: "no usns", req: ManualMarkRequest{Teacher: "T1", Subject: "CS101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := o.ManualMark(context.Background(), tt.req); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
	if f.ledger.Len() != 0 {
		t.Fatal("invalid requests wrote rows")
	}
}

func TestManualMarkAllUnknown(t *testing.T) {
	f := newFixture(t)
	o := NewOverrider(f.dir, f.ledger, 1, nil)
	res, err := o.ManualMark(context.Background(), ManualMarkRequest{Teacher: "T1", Subject: "CS101", USNs: []string{"X", "Y"}})
	if err != nil {
		t.Fatalf("ManualMark: %v", err)
	}
	if len(res.Marked) != 0 || len(res.Results) != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestManualMarkRollsBackOnStorageFailure(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("connection reset")
	o := NewOverrider(f.dir, failingLedger{MemoryLedger: f.ledger, err: cause}, 1, nil)

	_, err := o.ManualMark(context.Background(), ManualMarkRequest{Teacher: "T1", Subject: "CS101", USNs: []string{"U1", "U2"}})
	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("err = %v, want ErrStorage wrapping cause", err)
	}
	if f.ledger.Len() != 0 {
		t.Fatalf("%d rows survived a failed batch", f.ledger.Len())
	}
}

func TestMemoryLedgerBatchIsAllOrNothing(t *testing.T) {
	l := NewMemoryLedger()
	_, err := l.AppendBatch(context.Background(), []Record{
		{StudentUSN: "U1", SessionRef: RealSession("s1")},
		{StudentUSN: "", SessionRef: RealSession("s1")},
	})
	if err == nil {
		t.Fatal("expected error for invalid record")
	}
	if l.Len() != 0 {
		t.Fatalf("partial batch stored %d rows", l.Len())
	}
}
