package attendance

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestHistoryExcludesTeacherMarkedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.openSession(t, "CS101")
	m := NewMarker(f.registry, f.dir, f.ledger, nil, 1, nil)
	o := NewOverrider(f.dir, f.ledger, 1, nil)

	if _, err := m.Mark(ctx, MarkRequest{SessionID: s.ID, StudentID: "U1"}); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := o.ManualMark(ctx, ManualMarkRequest{Teacher: "T1", Subject: "CS101", USNs: []string{"U1"}}); err != nil {
		t.Fatalf("ManualMark: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := o.ManualMark(ctx, ManualMarkRequest{Teacher: "T1", Subject: "AI", USNs: []string{"U1"}}); err != nil {
		t.Fatalf("ManualMark: %v", err)
	}

	r := NewReporter(f.dir, f.ledger, 30)
	h, err := r.History(ctx, "U1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if h.TotalRecords != 3 {
		t.Fatalf("TotalRecords = %d, want 3", h.TotalRecords)
	}
	// Manual marks carry no match flag, so only the self-service row counts.
	if h.Attended != 1 {
		t.Fatalf("Attended = %d, want 1", h.Attended)
	}
	for i := 1; i < len(h.Records); i++ {
		if h.Records[i].Timestamp.After(h.Records[i-1].Timestamp) {
			t.Fatalf("records not newest first: %v before %v", h.Records[i-1].Timestamp, h.Records[i].Timestamp)
		}
	}
	if h.Records[0].Subject != "AI" {
		t.Fatalf("newest record subject = %q, want AI", h.Records[0].Subject)
	}

	byName, err := r.History(ctx, "Asha")
	if err != nil || byName.TotalRecords != 3 {
		t.Fatalf("History by name = %+v, %v", byName, err)
	}
}

func TestAttendedRule(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{name: "self service", rec: Record{}, want: true},
		{name: "teacher no flags", rec: Record{MarkedByTeacher: true}, want: false},
		{name: "teacher with qr", rec: Record{MarkedByTeacher: true, QRMatch: true}, want: true},
		{name: "teacher with face", rec: Record{MarkedByTeacher: true, FaceMatch: true}, want: true},
	}
	for _, tt := range tests {
		if got := tt.rec.Attended(); got != tt.want {
			t.Fatalf("%s: Attended = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHistoryUnknownStudentIsEmpty(t *testing.T) {
	f := newFixture(t)
	h, err := NewReporter(f.dir, f.ledger, 30).History(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if h.TotalRecords != 0 || h.Attended != 0 || h.Records == nil || len(h.Records) != 0 {
		t.Fatalf("History = %+v", h)
	}
}

func TestSessionView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.openSession(t, "CS101")
	m := NewMarker(f.registry, f.dir, f.ledger, nil, 1, nil)
	o := NewOverrider(f.dir, f.ledger, 1, nil)

	for _, id := range []string{"U1", "Ravi", "U1"} {
		if _, err := m.Mark(ctx, MarkRequest{SessionID: s.ID, StudentID: id}); err != nil {
			t.Fatalf("Mark(%s): %v", id, err)
		}
	}
	if _, err := o.ManualMark(ctx, ManualMarkRequest{Teacher: "T1", Subject: "CS101", USNs: []string{"U2"}}); err != nil {
		t.Fatalf("ManualMark: %v", err)
	}

	r := NewReporter(f.dir, f.ledger, 30)
	v, err := r.SessionView(ctx, s.ID)
	if err != nil {
		t.Fatalf("SessionView: %v", err)
	}
	if v.PresentCount != 3 || len(v.Records) != 3 {
		t.Fatalf("PresentCount = %d, records = %d, want 3", v.PresentCount, len(v.Records))
	}
	if v.TotalStudents != 30 {
		t.Fatalf("TotalStudents = %d", v.TotalStudents)
	}
	if math.Abs(v.Percentage-10) > 1e-9 {
		t.Fatalf("Percentage = %f, want 10", v.Percentage)
	}
	for _, e := range v.Records {
		if e.StudentName == "" {
			t.Fatalf("entry %d missing student name", e.ID)
		}
		if e.MarkedByTeacher {
			t.Fatal("manual row leaked into the real session view")
		}
	}

	manual, err := r.SessionView(ctx, "manual-T1-CS101")
	if err != nil {
		t.Fatalf("SessionView manual: %v", err)
	}
	if manual.PresentCount != 1 || manual.Records[0].StudentName != "Ravi" {
		t.Fatalf("manual view = %+v", manual)
	}
}

func TestSessionViewZeroDenominator(t *testing.T) {
	f := newFixture(t)
	v, err := NewReporter(f.dir, f.ledger, 0).SessionView(context.Background(), "anything")
	if err != nil {
		t.Fatalf("SessionView: %v", err)
	}
	if v.Percentage != 0 || v.PresentCount != 0 {
		t.Fatalf("view = %+v", v)
	}
}
