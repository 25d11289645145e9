package session

import (
	"errors"
	"testing"
	"time"

	"github.com/kalambet/personaforge/internal/persona"
	"github.com/kalambet/personaforge/internal/questionnaire"
)

func testDoc() *questionnaire.Document {
	return &questionnaire.Document{
		Metadata: map[string]string{"Client Name": "Acme"},
		Records:  []questionnaire.QA{{Section: "A", Question: "Q", Answer: "R"}},
		Headers:  []string{"Section", "Question", "Answer"},
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	m := NewManager()
	s := m.Create("raw,csv")

	if s.State != StateUploaded {
		t.Fatalf("new session state %q", s.State)
	}

	if err := m.SetParsed(s.ID, testDoc()); err != nil {
		t.Fatalf("SetParsed: %v", err)
	}

	cols := questionnaire.Columns{Question: "Prompt", Answer: "Response"}
	if err := m.SetColumns(s.ID, cols, testDoc()); err != nil {
		t.Fatalf("SetColumns: %v", err)
	}

	got, err := m.BeginGeneration(s.ID)
	if err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	if got.State != StateGenerating {
		t.Errorf("state after begin: %q", got.State)
	}
	if got.Doc == nil {
		t.Error("snapshot should carry the parsed document")
	}

	personas := []persona.Persona{{Name: "P", Type: persona.TypePrimary}}
	if err := m.CompleteGeneration(s.ID, personas); err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}

	final, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.State != StateGenerated || len(final.Personas) != 1 {
		t.Errorf("final session: state=%q personas=%d", final.State, len(final.Personas))
	}
}

func TestBeginGenerationGuards(t *testing.T) {
	m := NewManager()
	s := m.Create("raw")

	// Uploaded (not yet parsed) cannot generate.
	if _, err := m.BeginGeneration(s.ID); err == nil {
		t.Error("expected error generating from uploaded state")
	}

	if err := m.SetParsed(s.ID, testDoc()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.BeginGeneration(s.ID); err != nil {
		t.Fatalf("BeginGeneration from parsed: %v", err)
	}
	// Second concurrent begin is rejected.
	if _, err := m.BeginGeneration(s.ID); !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("second begin: %v", err)
	}
}

func TestNoReparseWhileGenerating(t *testing.T) {
	m := NewManager()
	s := m.Create("raw")
	doc := testDoc()
	if err := m.SetParsed(s.ID, doc); err != nil {
		t.Fatal(err)
	}
	if _, err := m.BeginGeneration(s.ID); err != nil {
		t.Fatal(err)
	}

	// Re-parsing out of Generating would re-arm BeginGeneration and allow
	// a second generation in flight for the same session.
	cols := questionnaire.Columns{Question: "Prompt", Answer: "Response"}
	if err := m.SetColumns(s.ID, cols, doc); !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("SetColumns during generation: %v", err)
	}
	if err := m.SetParsed(s.ID, doc); !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("SetParsed during generation: %v", err)
	}
	if _, err := m.BeginGeneration(s.ID); !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("second begin after rejected re-parse: %v", err)
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != StateGenerating {
		t.Errorf("state %q", got.State)
	}
}

func TestFailureKeepsParsedData(t *testing.T) {
	m := NewManager()
	s := m.Create("raw")
	doc := testDoc()
	if err := m.SetParsed(s.ID, doc); err != nil {
		t.Fatal(err)
	}
	if _, err := m.BeginGeneration(s.ID); err != nil {
		t.Fatal(err)
	}

	if err := m.Fail(s.ID, FailUpstream, "503 from upstream"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != StateFailed || got.FailKind != FailUpstream {
		t.Errorf("failure not recorded: state=%q kind=%q", got.State, got.FailKind)
	}
	if got.Doc == nil || len(got.Doc.Records) != 1 {
		t.Error("parsed document must survive a generation failure")
	}

	// The failed session can start over.
	if _, err := m.BeginGeneration(s.ID); err == nil {
		t.Error("failed state should not directly generate")
	}
	if err := m.SetParsed(s.ID, doc); err != nil {
		t.Fatalf("re-parse after failure: %v", err)
	}
	if _, err := m.BeginGeneration(s.ID); err != nil {
		t.Errorf("generation after recovery: %v", err)
	}
}

func TestGetAndDeleteUnknown(t *testing.T) {
	m := NewManager()
	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown: %v", err)
	}
	if err := m.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete unknown: %v", err)
	}
}

func TestDelete(t *testing.T) {
	m := NewManager()
	s := m.Create("raw")
	if err := m.Delete(s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Error("session should be gone after delete")
	}
}

func TestPurgeExpired(t *testing.T) {
	m := NewManager()
	current := time.Now()
	m.now = func() time.Time { return current }

	old := m.Create("old")
	current = current.Add(2 * time.Hour)
	fresh := m.Create("fresh")

	if n := m.PurgeExpired(time.Hour); n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if _, err := m.Get(old.ID); !errors.Is(err, ErrNotFound) {
		t.Error("stale session should be purged")
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	m := NewManager()
	s := m.Create("raw")
	if err := m.SetParsed(s.ID, testDoc()); err != nil {
		t.Fatal(err)
	}

	snap, err := m.Get(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	snap.State = StateFailed

	again, err := m.Get(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.State != StateParsed {
		t.Error("mutating a snapshot must not affect the stored session")
	}
}
