package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/starford/chessboards/internal/apperr"
	"github.com/starford/chessboards/internal/metadata"
	"github.com/starford/chessboards/internal/models"
)

// TraitCount is one row of a frequency table.
type TraitCount struct {
	Value string
	Count int
}

// traitColumns whitelists the columns TraitCounts may group by, keyed by
// the attribute names used in metadata.
var traitColumns = map[string]string{
	metadata.TraitBorderColor:  "border_color",
	metadata.TraitDarkColor:    "dark_color",
	metadata.TraitLightColor:   "light_color",
	metadata.TraitDarkLine:     "dark_line",
	metadata.TraitLightLine:    "light_line",
	metadata.TraitNodesPerSide: "nodes_per_side",
	metadata.TraitEdge:         "edge_probability",
	metadata.TraitBorderStyle:  "border_style",
}

// Traits returns the trait names accepted by TraitCounts, in metadata order.
func Traits() []string {
	out := make([]string, 0, len(traitColumns))
	for _, a := range metadata.Attributes(models.TraitSet{}) {
		out = append(out, a.TraitType)
	}
	return out
}

// Record inserts an accepted item. A second item with the same index or
// fingerprint yields apperr.ErrAlreadyExists.
func (db *DB) Record(item models.Item) error {
	if item.Fingerprint == models.EmptyFingerprint {
		return errors.New("ledger: empty fingerprint")
	}
	created := item.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	ts := item.Traits
	_, err := db.conn.Exec(`
		INSERT INTO items (idx, fingerprint, border_color, dark_color, light_color,
			dark_line, light_line, nodes_per_side, edge_probability, border_style,
			image_checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.Index, string(item.Fingerprint),
		ts.BorderColor.String(), ts.DarkColor.String(), ts.LightColor.String(),
		ts.DarkLine.String(), ts.LightLine.String(),
		ts.NodesPerSide, ts.EdgeProbability, ts.BorderStyle.String(),
		item.ImageChecksum, created)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("ledger: item %d: %w", item.Index, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("ledger: record item %d: %w", item.Index, err)
	}
	return nil
}

// Get returns the item stored at index.
func (db *DB) Get(index int) (*models.Item, error) {
	var item models.Item
	var fp, border, dark, light, darkLn, lightLn, style string
	err := db.conn.QueryRow(`
		SELECT idx, fingerprint, border_color, dark_color, light_color, dark_line,
			light_line, nodes_per_side, edge_probability, border_style,
			image_checksum, created_at
		FROM items WHERE idx = ?
	`, index).Scan(&item.Index, &fp, &border, &dark, &light, &darkLn, &lightLn,
		&item.Traits.NodesPerSide, &item.Traits.EdgeProbability, &style,
		&item.ImageChecksum, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger: item %d: %w", index, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get item %d: %w", index, err)
	}

	item.Fingerprint = models.Fingerprint(fp)
	colors := []struct {
		src string
		dst *models.ColorRGB
	}{
		{border, &item.Traits.BorderColor},
		{dark, &item.Traits.DarkColor},
		{light, &item.Traits.LightColor},
		{darkLn, &item.Traits.DarkLine},
		{lightLn, &item.Traits.LightLine},
	}
	for _, c := range colors {
		if *c.dst, err = parseColor(c.src); err != nil {
			return nil, fmt.Errorf("ledger: item %d: %w", index, err)
		}
	}
	if item.Traits.BorderStyle, err = models.ParseBorderStyle(style); err != nil {
		return nil, fmt.Errorf("ledger: item %d: %w", index, err)
	}
	return &item, nil
}

func parseColor(s string) (models.ColorRGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return models.ColorRGB{}, fmt.Errorf("bad color %q", s)
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return models.ColorRGB{}, fmt.Errorf("bad color %q: %w", s, err)
		}
		ch[i] = uint8(v)
	}
	return models.RGB(ch[0], ch[1], ch[2]), nil
}

// Delete removes the item at index. Missing rows are not an error.
func (db *DB) Delete(index int) error {
	if _, err := db.conn.Exec(`DELETE FROM items WHERE idx = ?`, index); err != nil {
		return fmt.Errorf("ledger: delete item %d: %w", index, err)
	}
	return nil
}

// Indices returns every recorded collection index.
func (db *DB) Indices() (map[int]struct{}, error) {
	rows, err := db.conn.Query(`SELECT idx FROM items`)
	if err != nil {
		return nil, fmt.Errorf("ledger: indices: %w", err)
	}
	defer rows.Close()
	out := make(map[int]struct{})
	for rows.Next() {
		var i int
		if err := rows.Scan(&i); err != nil {
			return nil, err
		}
		out[i] = struct{}{}
	}
	return out, rows.Err()
}

// Fingerprints returns every recorded fingerprint.
func (db *DB) Fingerprints() (map[models.Fingerprint]struct{}, error) {
	rows, err := db.conn.Query(`SELECT fingerprint FROM items`)
	if err != nil {
		return nil, fmt.Errorf("ledger: fingerprints: %w", err)
	}
	defer rows.Close()
	out := make(map[models.Fingerprint]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		out[models.Fingerprint(fp)] = struct{}{}
	}
	return out, rows.Err()
}

// Count returns the number of recorded items.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger: count: %w", err)
	}
	return n, nil
}

// TraitCounts groups items by one trait, most frequent first.
func (db *DB) TraitCounts(trait string) ([]TraitCount, error) {
	col, ok := traitColumns[trait]
	if !ok {
		return nil, fmt.Errorf("ledger: unknown trait %q", trait)
	}
	rows, err := db.conn.Query(`SELECT CAST(` + col + ` AS TEXT), count(*) AS n FROM items GROUP BY ` + col + ` ORDER BY n DESC, ` + col)
	if err != nil {
		return nil, fmt.Errorf("ledger: trait counts: %w", err)
	}
	defer rows.Close()

	var out []TraitCount
	for rows.Next() {
		var tc TraitCount
		if err := rows.Scan(&tc.Value, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
