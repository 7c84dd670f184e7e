package slotstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/antibyte/templecode/pkg/logger"
)

// FileStore speichert jeden Slot als eigene JSON-Datei im Verzeichnis.
type FileStore struct {
	dir      string
	maxSlots int
	mu       sync.Mutex
}

// NewFileStore creates a file-backed slot store rooted at dir. The
// directory is created on first use.
func NewFileStore(dir string, maxSlots int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStore{dir: dir, maxSlots: maxSlots}, nil
}

func (f *FileStore) slotPath(slot int) string {
	return filepath.Join(f.dir, fmt.Sprintf("slot_%d.json", slot))
}

// Save schreibt den Snapshot atomar (Temp-Datei plus Rename).
func (f *FileStore) Save(slot int, state *SlotState) error {
	if err := validateSlot(slot, f.maxSlots); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode slot %d: %w", slot, err)
	}

	tmp := f.slotPath(slot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write slot %d: %w", slot, err)
	}
	if err := os.Rename(tmp, f.slotPath(slot)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write slot %d: %w", slot, err)
	}

	logger.Debug(logger.AreaSaveSlot, "slot %d saved (%d variables)", slot, len(state.Variables))
	return nil
}

// Load liest den Snapshot eines Slots.
func (f *FileStore) Load(slot int) (*SlotState, error) {
	if err := validateSlot(slot, f.maxSlots); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.slotPath(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %d", ErrSlotNotFound, slot)
		}
		return nil, fmt.Errorf("failed to read slot %d: %w", slot, err)
	}

	state := &SlotState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode slot %d: %w", slot, err)
	}
	state.applyDefaults()
	return state, nil
}

// List zählt die vorhandenen Slot-Dateien auf.
func (f *FileStore) List() ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	slots := []int{}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "slot_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		num := strings.TrimSuffix(strings.TrimPrefix(name, "slot_"), ".json")
		if slot, err := strconv.Atoi(num); err == nil {
			slots = append(slots, slot)
		}
	}
	sort.Ints(slots)
	return slots, nil
}

// Close ist für den Dateibackend ein No-op.
func (f *FileStore) Close() error {
	return nil
}
