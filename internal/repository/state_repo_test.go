package repository_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"device_controller/internal/models"
	"device_controller/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

type argFunc func(v driver.Value) bool

func (f argFunc) Match(v driver.Value) bool { return f(v) }

var snapshotColumns = []string{"device", "kind", "state", "facts", "updated_at"}

func TestStateSQLite_Save_UpsertsFactsAndUTC(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	at := time.Date(2025, 6, 1, 23, 0, 0, 0, time.FixedZone("X", -3*3600))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_state (device, kind, state, facts, updated_at)")).
		WithArgs("thermostat-1", "thermostat", "Sleep", `{"relay_on":false}`, "2025-06-02 02:00:00.000").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repository.NewStateSQLite(db).Save(context.Background(), models.DeviceSnapshot{
		Device:    "thermostat-1",
		Kind:      "thermostat",
		State:     "Sleep",
		Facts:     map[string]any{"relay_on": false},
		UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Save_ZeroTimeAndNoFacts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	recent := argFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		ts, err := time.Parse("2006-01-02 15:04:05.000", s)
		return err == nil && time.Since(ts) < time.Minute && time.Since(ts) > -time.Minute
	})
	mock.ExpectExec("INSERT INTO device_state").
		WithArgs("panel-1", "access_panel", "AwaitingCredential", "", recent).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repository.NewStateSQLite(db).Save(context.Background(), models.DeviceSnapshot{
		Device: "panel-1",
		Kind:   "access_panel",
		State:  "AwaitingCredential",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Save_ExecErrorIsPropagated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	wantErr := errors.New("disk full")
	mock.ExpectExec("INSERT INTO device_state").WillReturnError(wantErr)

	err = repository.NewStateSQLite(db).Save(context.Background(), models.DeviceSnapshot{Device: "d"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
}

func TestStateSQLite_Load_UnknownDevice(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM device_state WHERE device=?")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(snapshotColumns))

	_, err = repository.NewStateSQLite(db).Load(context.Background(), "nope")
	if !errors.Is(err, repository.ErrUnknownDevice) {
		t.Fatalf("want ErrUnknownDevice, got %v", err)
	}
}

func TestStateSQLite_Load_HappyPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.FixedZone("Y", 3600))
	mock.ExpectQuery("FROM device_state WHERE device=").
		WithArgs("panel-1").
		WillReturnRows(sqlmock.NewRows(snapshotColumns).
			AddRow("panel-1", "access_panel", "Locked", `{"attempts":3}`, at))

	s, err := repository.NewStateSQLite(db).Load(context.Background(), "panel-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State != "Locked" || s.Kind != "access_panel" {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.Facts["attempts"] != float64(3) {
		t.Fatalf("facts not decoded: %#v", s.Facts)
	}
	if s.UpdatedAt.Location() != time.UTC || !s.UpdatedAt.Equal(at) {
		t.Fatalf("updated_at should be UTC and equal: %v", s.UpdatedAt)
	}
}

func TestStateSQLite_Load_InvalidFactsJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM device_state").
		WillReturnRows(sqlmock.NewRows(snapshotColumns).
			AddRow("d", "thermostat", "Normal", "{broken", time.Now()))

	if _, err := repository.NewStateSQLite(db).Load(context.Background(), "d"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestStateSQLite_ListAndReset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()
	repo := repository.NewStateSQLite(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM device_state ORDER BY device ASC")).
		WillReturnRows(sqlmock.NewRows(snapshotColumns).
			AddRow("panel-1", "access_panel", "AwaitingCredential", nil, now).
			AddRow("thermostat-1", "thermostat", "Normal", `{"relay_on":true}`, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM device_state")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Device != "panel-1" || list[1].Facts["relay_on"] != true {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[0].Facts != nil {
		t.Fatalf("null facts should decode to nil, got %#v", list[0].Facts)
	}

	if err := repo.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
