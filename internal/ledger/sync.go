package ledger

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/starford/chessboards/internal/checksum"
	"github.com/starford/chessboards/internal/metadata"
	"github.com/starford/chessboards/internal/models"
	"github.com/starford/chessboards/internal/render"
	"github.com/starford/chessboards/internal/storage"
)

// ReconcileReport counts what Reconcile changed.
type ReconcileReport struct {
	Restored int // rows rebuilt from files on disk
	Dropped  int // rows whose files were gone or changed
	Removed  int // indices whose files were deleted
}

// Reconcile brings the ledger in line with the output directory, which is
// the source of truth:
//   - rows whose files are gone are deleted
//   - complete items with no row, or whose image changed, are re-recorded
//     from their metadata and decoded image
//   - items that cannot be restored and half-written items are removed
func Reconcile(db *DB, store storage.Provider, logger *slog.Logger) (ReconcileReport, error) {
	var rep ReconcileReport

	entries, err := store.List()
	if err != nil {
		return rep, err
	}
	indices, err := db.Indices()
	if err != nil {
		return rep, err
	}

	disk := make(map[int]storage.Entry, len(entries))
	for _, e := range entries {
		disk[e.Index] = e
	}

	// Stale or changed rows.
	for idx := range indices {
		e, onDisk := disk[idx]
		if onDisk {
			item, err := db.Get(idx)
			if err != nil {
				return rep, err
			}
			if item.ImageChecksum == "" || item.ImageChecksum == e.ImageChecksum {
				continue
			}
			logger.Warn("reconcile: image changed on disk", slog.Int("index", idx))
		}
		if err := db.Delete(idx); err != nil {
			return rep, err
		}
		delete(indices, idx)
		rep.Dropped++
		logger.Debug("reconcile: dropped stale row", slog.Int("index", idx))
	}

	// Items on disk the ledger does not know about.
	for _, e := range entries {
		if _, ok := indices[e.Index]; ok {
			continue
		}
		if err := restoreItem(db, store, e); err != nil {
			logger.Warn("reconcile: restore failed", slog.Int("index", e.Index), slog.String("error", err.Error()))
			removeItem(store, e.Index, logger)
			rep.Removed++
			continue
		}
		rep.Restored++
		logger.Debug("reconcile: restored", slog.Int("index", e.Index))
	}

	partial, err := store.Incomplete()
	if err != nil {
		return rep, err
	}
	for _, idx := range partial {
		removeItem(store, idx, logger)
		rep.Removed++
		logger.Debug("reconcile: removed half-written item", slog.Int("index", idx))
	}
	return rep, nil
}

// restoreItem rebuilds a ledger row from the metadata and image of e.
func restoreItem(db *DB, store storage.Provider, e storage.Entry) error {
	meta, err := store.Read(models.MetadataName(e.Index))
	if err != nil {
		return err
	}
	traits, err := metadata.ParseTraits(meta)
	if err != nil {
		return err
	}
	data, err := store.Read(models.ImageName(e.Index))
	if err != nil {
		return err
	}
	img, err := render.DecodePNG(bytes.NewReader(data))
	if err != nil {
		return err
	}
	fp := models.Fingerprint(checksum.Pixels(img))
	if err := db.Record(models.Item{
		Index:         e.Index,
		Traits:        traits,
		Fingerprint:   fp,
		ImageChecksum: checksum.Sum(data),
		CreatedAt:     e.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return nil
}

func removeItem(store storage.Provider, idx int, logger *slog.Logger) {
	for _, name := range []string{models.ImageName(idx), models.MetadataName(idx)} {
		if err := store.Delete(name); err != nil {
			logger.Warn("reconcile: delete failed", slog.String("path", name), slog.String("error", err.Error()))
		}
	}
}
