package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"device_controller/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

var _ StateRepo = (*StateSQLite)(nil)

// ErrUnknownDevice is returned by Load when no snapshot exists for a device.
var ErrUnknownDevice = errors.New("no snapshot for device")

const (
	upsertStateSQL = `
		INSERT INTO device_state (device, kind, state, facts, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(device) DO UPDATE SET
			kind=excluded.kind,
			state=excluded.state,
			facts=excluded.facts,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT device, kind, state, facts, updated_at
		FROM device_state WHERE device=?
	`

	listStatesSQL = `
		SELECT device, kind, state, facts, updated_at
		FROM device_state ORDER BY device ASC
	`

	resetStatesSQL = `DELETE FROM device_state`
)

// marshalFacts converts the facts map to a JSON string.
func marshalFacts(facts map[string]any) (string, error) {
	if len(facts) == 0 {
		return "", nil
	}
	b, err := json.Marshal(facts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalFacts(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var facts map[string]any
	if err := json.Unmarshal([]byte(s), &facts); err != nil {
		return nil, err
	}
	return facts, nil
}

// Save upserts the row for s.Device.
func (r *StateSQLite) Save(ctx context.Context, s models.DeviceSnapshot) error {
	facts, err := marshalFacts(s.Facts)
	if err != nil {
		return fmt.Errorf("marshal facts for %q: %w", s.Device, err)
	}

	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	if _, err := r.db.ExecContext(ctx, upsertStateSQL,
		s.Device,
		s.Kind,
		s.State,
		facts,
		formatTimestamp(ts),
	); err != nil {
		return fmt.Errorf("save state for %q: %w", s.Device, err)
	}
	return nil
}

// Load fetches the snapshot of one device.
func (r *StateSQLite) Load(ctx context.Context, device string) (models.DeviceSnapshot, error) {
	s, err := scanSnapshot(r.db.QueryRowContext(ctx, selectStateSQL, device))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeviceSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownDevice, device)
		}
		return models.DeviceSnapshot{}, fmt.Errorf("load state for %q: %w", device, err)
	}
	return s, nil
}

// List returns every mirrored device ordered by name.
func (r *StateSQLite) List(ctx context.Context) ([]models.DeviceSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, listStatesSQL)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	out := make([]models.DeviceSnapshot, 0, 4)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset drops all mirrored rows. Called at startup: every engine begins
// in its initial state, so a previous run's mirror would be stale.
func (r *StateSQLite) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, resetStatesSQL); err != nil {
		return fmt.Errorf("reset states: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (models.DeviceSnapshot, error) {
	var (
		s     models.DeviceSnapshot
		facts sql.NullString
	)
	if err := row.Scan(&s.Device, &s.Kind, &s.State, &facts, &s.UpdatedAt); err != nil {
		return models.DeviceSnapshot{}, err
	}
	m, err := unmarshalFacts(facts.String)
	if err != nil {
		return models.DeviceSnapshot{}, err
	}
	s.Facts = m
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
