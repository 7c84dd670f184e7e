package slotstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sampleState() *SlotState {
	state := NewSlotState()
	state.Variables["SCORE"] = 42.0
	state.Variables["NAME$"] = "Ada"
	state.TurtleX = 120
	state.TurtleY = 80
	state.TurtleHeading = 45
	state.PenDown = false
	state.PenColor = "red"
	state.PenWidth = 3
	return state
}

func checkState(t *testing.T, got *SlotState) {
	t.Helper()
	if got.Variables["SCORE"] != 42.0 {
		t.Errorf("SCORE = %v", got.Variables["SCORE"])
	}
	if got.Variables["NAME$"] != "Ada" {
		t.Errorf("NAME$ = %v", got.Variables["NAME$"])
	}
	if got.TurtleX != 120 || got.TurtleY != 80 || got.TurtleHeading != 45 {
		t.Errorf("turtle pose = (%g, %g, %g)", got.TurtleX, got.TurtleY, got.TurtleHeading)
	}
	if got.PenDown || got.PenColor != "red" || got.PenWidth != 3 {
		t.Errorf("pen state = %v/%q/%g", got.PenDown, got.PenColor, got.PenWidth)
	}
}

func TestFileStoreRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 10)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Save(3, sampleState()); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(3)
	if err != nil {
		t.Fatal(err)
	}
	checkState(t, got)
}

func TestFileStoreMissingSlot(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 10)
	if err != nil {
		t.Fatal(err)
	}
	_, err = store.Load(5)
	if !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("missing slot: %v, want ErrSlotNotFound", err)
	}
}

func TestFileStoreInvalidSlot(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(-1, NewSlotState()); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("slot -1: %v, want ErrInvalidSlot", err)
	}
	if err := store.Save(10, NewSlotState()); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("slot 10 with maxSlots 10: %v, want ErrInvalidSlot", err)
	}
	if err := store.Save(9, NewSlotState()); err != nil {
		t.Errorf("slot 9 must be allowed: %v", err)
	}
}

func TestFileStoreList(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, slot := range []int{7, 2, 4} {
		if err := store.Save(slot, NewSlotState()); err != nil {
			t.Fatal(err)
		}
	}
	slots, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 4, 7}
	if len(slots) != 3 || slots[0] != want[0] || slots[1] != want[1] || slots[2] != want[2] {
		t.Errorf("List() = %v, want %v", slots, want)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(1, NewSlotState()); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(1, sampleState()); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(1)
	if err != nil {
		t.Fatal(err)
	}
	checkState(t, got)

	slots, _ := store.List()
	if len(slots) != 1 {
		t.Errorf("overwrite duplicated the slot: %v", slots)
	}
}

// Snapshots written by older versions may lack pen fields; loading
// fills in the defaults instead of producing invisible strokes.
func TestFileStoreAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, 10)
	if err != nil {
		t.Fatal(err)
	}
	legacy := []byte(`{"variables": {"X": 1}, "turtle_x": 5, "turtle_y": 5}`)
	if err := os.WriteFile(filepath.Join(dir, "slot_0.json"), legacy, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(0)
	if err != nil {
		t.Fatal(err)
	}
	if got.PenColor != DefaultPenColor || got.PenWidth != DefaultPenWidth {
		t.Errorf("defaults not applied: %q/%g", got.PenColor, got.PenWidth)
	}
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "slots.db")
	store, err := NewSQLiteStore(dbPath, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Save(2, sampleState()); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(2)
	if err != nil {
		t.Fatal(err)
	}
	checkState(t, got)

	// Upsert ersetzt den Inhalt
	fresh := NewSlotState()
	fresh.Variables["SCORE"] = 1.0
	if err := store.Save(2, fresh); err != nil {
		t.Fatal(err)
	}
	got, err = store.Load(2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Variables["SCORE"] != 1.0 {
		t.Errorf("upsert did not replace: %v", got.Variables["SCORE"])
	}

	if _, err := store.Load(9); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("missing slot: %v, want ErrSlotNotFound", err)
	}

	slots, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 || slots[0] != 2 {
		t.Errorf("List() = %v, want [2]", slots)
	}
}

func TestOpenBackendSelection(t *testing.T) {
	dir := t.TempDir()
	store, err := Open("file", dir, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Errorf("backend \"file\" opened %T", store)
	}
	store.Close()

	if _, err := Open("cassette", dir, "", 10); err == nil {
		t.Error("unknown backend must fail")
	}
}
