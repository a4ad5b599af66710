package archive

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	// Missing record is nil, nil.
	rec, err := s.Find(ctx, "cube222", "3,0")
	if err != nil || rec != nil {
		t.Fatalf("Find(missing) = %v, %v; want nil, nil", rec, err)
	}

	in := &Record{PuzzleID: "cube222", TargetKey: "3,0", Notation: "U R U' R'", Length: 4, Score: 14}
	if err := s.Save(ctx, in); err != nil {
		t.Fatal(err)
	}
	if in.ID == "" || in.CreatedAt.IsZero() {
		t.Error("Save should fill ID and CreatedAt")
	}

	rec, err = s.Find(ctx, "cube222", "3,0")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.Notation != "U R U' R'" || rec.ID != in.ID {
		t.Errorf("Find = %+v, want saved record", rec)
	}
}

func TestMemoryStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	if err := s.Save(ctx, &Record{PuzzleID: "p", TargetKey: "t", Notation: "U"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, &Record{PuzzleID: "p", TargetKey: "t", Notation: "U'"}); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Find(ctx, "p", "t")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Notation != "U'" {
		t.Errorf("Notation = %s, want the replacement", rec.Notation)
	}
	recs, err := s.List(ctx, "p", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("List returned %d records, want 1", len(recs))
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, key := range []string{"a", "b", "c"} {
		rec := &Record{PuzzleID: "p", TargetKey: key, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Save(ctx, &Record{PuzzleID: "other", TargetKey: "x", CreatedAt: base}); err != nil {
		t.Fatal(err)
	}

	recs, err := s.List(ctx, "p", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("List returned %d records, want 2", len(recs))
	}
	if recs[0].TargetKey != "c" || recs[1].TargetKey != "b" {
		t.Errorf("List order = [%s %s], want newest first", recs[0].TargetKey, recs[1].TargetKey)
	}
}
