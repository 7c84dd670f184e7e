package slotstore

import "fmt"

// Open creates the slot store selected by the configuration backend
// name: "file" (JSON file per slot) or "sqlite".
func Open(backend, dir, dbPath string, maxSlots int) (SlotStore, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir, maxSlots)
	case "sqlite":
		return NewSQLiteStore(dbPath, maxSlots)
	}
	return nil, fmt.Errorf("unknown slot store backend %q", backend)
}
