// Package testutil provides shared test helpers for ledgers, output
// directories and small renderers.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/chessboards/internal/ledger"
	"github.com/starford/chessboards/internal/models"
	"github.com/starford/chessboards/internal/render"
	"github.com/starford/chessboards/internal/storage"
)

// TestLedger creates a temporary SQLite ledger that is automatically closed.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	db, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestOutput creates a temporary output directory with a storage.Provider.
func TestOutput(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// SmallRenderer returns a renderer with 16px squares so tests stay fast.
func SmallRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.NewRenderer(render.Options{
		SquareDim:           16,
		BorderSize:          8,
		LineWidth:           1,
		PockmarkProbability: 0.05,
		LabelColor:          models.RGB(255, 255, 255),
		FontSize:            6,
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}
