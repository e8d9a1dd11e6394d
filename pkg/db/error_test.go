package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm sentinel", gorm.ErrDuplicatedKey, true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "webhook_events_provider_provider_event_id_key" (SQLSTATE 23505)`), true},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry 'stripe-evt_1' for key 'webhook_events.provider'"), true},
		{"sqlite", errors.New("UNIQUE constraint failed: purchases.provider_intent_id"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicateKeyErr(tc.err); got != tc.want {
				t.Fatalf("IsDuplicateKeyErr(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsDuplicateKeyErrLiveConstraint(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.Exec(`CREATE TABLE purchases (provider_intent_id TEXT PRIMARY KEY)`).Error; err != nil {
		t.Fatalf("prepare schema: %v", err)
	}
	if err := conn.Exec(`INSERT INTO purchases (provider_intent_id) VALUES (?)`, "pi_1").Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}

	dupErr := conn.Exec(`INSERT INTO purchases (provider_intent_id) VALUES (?)`, "pi_1").Error
	if dupErr == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !IsDuplicateKeyErr(dupErr) {
		t.Fatalf("driver duplicate not recognized: %v", dupErr)
	}
}
