package slotstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/antibyte/templecode/pkg/logger"
	_ "modernc.org/sqlite"
)

// SQLiteStore speichert Slots als Zeilen einer SQLite-Tabelle. Der
// Snapshot selbst bleibt JSON, sodass beide Backends dasselbe Format
// teilen.
type SQLiteStore struct {
	db       *sql.DB
	maxSlots int
}

// NewSQLiteStore opens (and if needed initializes) the slot database.
func NewSQLiteStore(dbPath string, maxSlots int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open slot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to slot database: %w", err)
	}

	query := `CREATE TABLE IF NOT EXISTS save_slots (
		slot INTEGER PRIMARY KEY,
		state TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create save_slots table: %w", err)
	}

	logger.Info(logger.AreaSaveSlot, "SQLite slot store opened: %s", dbPath)
	return &SQLiteStore{db: db, maxSlots: maxSlots}, nil
}

// Save persistiert den Snapshot per Upsert.
func (s *SQLiteStore) Save(slot int, state *SlotState) error {
	if err := validateSlot(slot, s.maxSlots); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode slot %d: %w", slot, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO save_slots (slot, state, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET state = excluded.state, saved_at = excluded.saved_at`,
		slot, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write slot %d: %w", slot, err)
	}

	logger.Debug(logger.AreaSaveSlot, "slot %d saved to database (%d variables)", slot, len(state.Variables))
	return nil
}

// Load liest den Snapshot eines Slots.
func (s *SQLiteStore) Load(slot int) (*SlotState, error) {
	if err := validateSlot(slot, s.maxSlots); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRow(`SELECT state FROM save_slots WHERE slot = ?`, slot).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrSlotNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %d: %w", slot, err)
	}

	state := &SlotState{}
	if err := json.Unmarshal([]byte(data), state); err != nil {
		return nil, fmt.Errorf("failed to decode slot %d: %w", slot, err)
	}
	state.applyDefaults()
	return state, nil
}

// List zählt die belegten Slots auf.
func (s *SQLiteStore) List() ([]int, error) {
	rows, err := s.db.Query(`SELECT slot FROM save_slots ORDER BY slot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := []int{}
	for rows.Next() {
		var slot int
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Close schließt die Datenbankverbindung.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
