package migration

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ledgerline/payflow/internal/config"
)

func TestRunSkipsNonPostgresWithWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	// conn is never touched on the skip path.
	if err := run(nil, config.Config{DBType: "mysql"}, log); err != nil {
		t.Fatalf("skip must not fail: %v", err)
	}

	entries := logs.FilterMessage("skipping migrations for unsupported database type").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["db_type"]; got != "mysql" {
		t.Fatalf("expected db_type mysql, got %v", got)
	}
}
