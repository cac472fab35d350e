//go:build integration

package data

import (
	"context"
	"fmt"
	"go-comments-app/internal/config"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

// TestNewDB_SQLiteThreads runs the thread queries on the driver the server
// ships with, migrated the way the server migrates.
func TestNewDB_SQLiteThreads(t *testing.T) {
	cfg := config.DBConfig{
		Driver:     DriverSQLite,
		DSN:        filepath.Join(t.TempDir(), "comments.db"),
		Migrations: "../../migrations",
	}
	if err := ApplyMigrations(cfg); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	// A second run is a no-op.
	if err := ApplyMigrations(cfg); err != nil {
		t.Fatalf("Failed to re-apply migrations: %v", err)
	}
	db, err := NewDB(cfg)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	f := newCommentFixture(db)
	ctx := context.Background()
	pageID := f.page(t)

	// A chain deeper than MySQL's default recursion limit.
	const depth = 1500
	ids := make([]uuid.UUID, depth)
	var parent *uuid.UUID
	for i := 0; i < depth; i++ {
		ids[i] = f.add(t, pageID, parent, fmt.Sprintf("c%04d", i))
		parent = &ids[i]
	}
	sibling := f.add(t, pageID, &ids[0], "sibling")

	t.Run("created time round trip", func(t *testing.T) {
		row, err := f.repo.GetWithReplies(ctx, pageID, ids[0])
		if err != nil || row == nil {
			t.Fatalf("expected the root, got %v, %v", row, err)
		}
		if want := f.base.Add(1e9); !row.CreatedTime.Equal(want) {
			t.Errorf("expected created time %v, got %v", want, row.CreatedTime)
		}
		if row.CountReplies != 2 {
			t.Errorf("expected 2 replies on the root, got %d", row.CountReplies)
		}
	})

	t.Run("context of deepest comment", func(t *testing.T) {
		n, err := f.repo.CountContext(ctx, pageID, ids[depth-1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != depth {
			t.Errorf("expected closure size %d, got %d", depth, n)
		}

		rows, err := f.repo.ListContext(ctx, pageID, ids[depth-1], 0, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := contents(rows); !equalStrings(got, []string{"c0000", "c0001", "c0002"}) {
			t.Fatalf("unexpected context head: %v", got)
		}
		// Counts cover the whole page, not just the chain.
		if rows[0].CountReplies != 2 || rows[1].CountReplies != 1 {
			t.Errorf("expected reply counts 2 and 1, got %d and %d", rows[0].CountReplies, rows[1].CountReplies)
		}
	})

	t.Run("pages are disjoint and ordered", func(t *testing.T) {
		const perPage = 256
		seen := make(map[uuid.UUID]bool)
		var all []string
		for offset := 0; ; offset += perPage {
			rows, err := f.repo.ListPage(ctx, pageID, offset, perPage)
			if err != nil {
				t.Fatalf("unexpected error at offset %d: %v", offset, err)
			}
			if len(rows) == 0 {
				break
			}
			for _, row := range rows {
				if seen[row.ID] {
					t.Fatalf("comment %q returned twice", row.Content)
				}
				seen[row.ID] = true
				all = append(all, row.Content)
			}
		}
		if len(all) != depth+1 {
			t.Fatalf("expected %d comments, got %d", depth+1, len(all))
		}
		for i := 0; i < depth; i++ {
			if want := fmt.Sprintf("c%04d", i); all[i] != want {
				t.Fatalf("position %d: expected %q, got %q", i, want, all[i])
			}
		}
		if all[depth] != "sibling" || !seen[sibling] {
			t.Errorf("expected the sibling last, got %q", all[depth])
		}
	})
}
