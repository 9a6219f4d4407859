package postgres

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/certwatch/internal/repo"
)

func TestPostgresStore_SaveLoad(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres test")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("New store: %v", err)
	}
	defer store.Close()

	want := repo.AlertHistory{"a.example": "2025-08-18", "b.example": "2025-08-17"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got["a.example"] != "2025-08-18" {
		t.Fatalf("unexpected history: %+v", got)
	}

	// wholesale replacement
	if err := store.Save(ctx, repo.AlertHistory{}); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty history, got %+v err=%v", got, err)
	}
}
