// Package collection runs the sample → render → dedupe loop that produces
// a collection in which no two boards share a pixel fingerprint.
package collection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/starford/chessboards/internal/checksum"
	"github.com/starford/chessboards/internal/metadata"
	"github.com/starford/chessboards/internal/models"
	"github.com/starford/chessboards/internal/render"
	"github.com/starford/chessboards/internal/storage"
)

// TraitSource draws trait sets.
type TraitSource interface {
	Sample(rng *rand.Rand) models.TraitSet
}

// BoardRenderer draws one board for a trait set.
type BoardRenderer interface {
	Render(ts models.TraitSet, rng *rand.Rand) (*render.Board, error)
}

// RecordBuilder produces the metadata record of an item.
type RecordBuilder interface {
	Build(index int, ts models.TraitSet) (metadata.Record, error)
}

// Ledger is the subset of ledger operations the builder depends on.
type Ledger interface {
	Record(item models.Item) error
	Indices() (map[int]struct{}, error)
	Fingerprints() (map[models.Fingerprint]struct{}, error)
}

// Deps wires a Builder.
type Deps struct {
	Sampler  TraitSource
	Renderer BoardRenderer
	Records  RecordBuilder
	Store    storage.Provider
	Ledger   Ledger
	Logger   *slog.Logger
}

// Report summarises one Build call.
type Report struct {
	Accepted   int
	Skipped    int
	Duplicates int
}

// Builder generates collection items [0, size).
type Builder struct {
	deps Deps
	size int
	now  func() time.Time
}

// New creates a builder for a collection of size items.
func New(size int, deps Deps) (*Builder, error) {
	if size <= 0 {
		return nil, fmt.Errorf("collection: size must be positive, got %d", size)
	}
	if deps.Sampler == nil || deps.Renderer == nil || deps.Records == nil || deps.Store == nil || deps.Ledger == nil {
		return nil, errors.New("collection: missing dependency")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Builder{deps: deps, size: size, now: time.Now}, nil
}

// Build fills every index not yet in the ledger. For each index it
// samples and renders until the fingerprint is new, then persists the
// image and metadata and records the item. Duplicates are resampled
// without limit, so a trait space smaller than the collection never
// terminates. ctx is checked before every attempt.
func (b *Builder) Build(ctx context.Context, rng *rand.Rand) (Report, error) {
	var rep Report
	log := b.deps.Logger

	accepted, err := b.deps.Ledger.Fingerprints()
	if err != nil {
		return rep, fmt.Errorf("collection: load fingerprints: %w", err)
	}
	accepted[models.EmptyFingerprint] = struct{}{}

	done, err := b.deps.Ledger.Indices()
	if err != nil {
		return rep, fmt.Errorf("collection: load indices: %w", err)
	}

	for i := 0; i < b.size; i++ {
		if _, ok := done[i]; ok {
			rep.Skipped++
			continue
		}

		for attempt := 1; ; attempt++ {
			if err := ctx.Err(); err != nil {
				return rep, err
			}

			ts := b.deps.Sampler.Sample(rng)
			board, err := b.deps.Renderer.Render(ts, rng)
			if err != nil {
				return rep, fmt.Errorf("collection: render %d: %w", i, err)
			}
			if _, dup := accepted[board.Fingerprint]; dup {
				rep.Duplicates++
				log.Debug("duplicate board, resampling",
					slog.Int("index", i),
					slog.Int("attempt", attempt),
					slog.String("fingerprint", string(board.Fingerprint)))
				continue
			}

			if err := b.persist(i, ts, board); err != nil {
				return rep, err
			}
			accepted[board.Fingerprint] = struct{}{}
			rep.Accepted++
			log.Info("board accepted",
				slog.Int("index", i),
				slog.Int("attempts", attempt),
				slog.String("fingerprint", string(board.Fingerprint)))
			break
		}
	}
	return rep, nil
}

// persist writes the image and metadata together, then records the item.
func (b *Builder) persist(index int, ts models.TraitSet, board *render.Board) error {
	var img bytes.Buffer
	if err := render.EncodePNG(&img, board.Image); err != nil {
		return fmt.Errorf("collection: item %d: %w", index, err)
	}
	rec, err := b.deps.Records.Build(index, ts)
	if err != nil {
		return fmt.Errorf("collection: item %d: %w", index, err)
	}
	meta, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("collection: item %d: %w", index, err)
	}
	if err := b.deps.Store.WriteItem(index, img.Bytes(), meta); err != nil {
		return fmt.Errorf("collection: write item %d: %w", index, err)
	}
	return b.deps.Ledger.Record(models.Item{
		Index:         index,
		Traits:        ts,
		Fingerprint:   board.Fingerprint,
		ImageChecksum: checksum.Sum(img.Bytes()),
		CreatedAt:     b.now().UTC(),
	})
}
