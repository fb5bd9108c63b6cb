package ledger

import "github.com/starford/chessboards/internal/models"

// Ledger is the set of operations the collection builder needs.
// Consumers should depend on this interface rather than *DB.
type Ledger interface {
	Record(item models.Item) error
	Get(index int) (*models.Item, error)
	Indices() (map[int]struct{}, error)
	Fingerprints() (map[models.Fingerprint]struct{}, error)
	Count() (int, error)
	TraitCounts(trait string) ([]TraitCount, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)
