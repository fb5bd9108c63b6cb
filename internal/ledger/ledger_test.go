package ledger

import (
	"bytes"
	"errors"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/chessboards/internal/apperr"
	"github.com/starford/chessboards/internal/checksum"
	"github.com/starford/chessboards/internal/metadata"
	"github.com/starford/chessboards/internal/models"
	"github.com/starford/chessboards/internal/render"
	"github.com/starford/chessboards/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testItem(idx int, fp string) models.Item {
	return models.Item{
		Index: idx,
		Traits: models.TraitSet{
			BorderColor:     models.RGB(120, 80, 50),
			DarkColor:       models.RGB(180, 140, 100),
			LightColor:      models.RGB(240, 215, 180),
			DarkLine:        models.RGB(198, 162, 124),
			LightLine:       models.RGB(222, 192, 156),
			NodesPerSide:    2,
			EdgeProbability: 0.15,
			BorderStyle:     models.BorderPockmarked,
		},
		Fingerprint:   models.Fingerprint(fp),
		ImageChecksum: "img-" + fp,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM items`).Scan(&count); err != nil {
		t.Fatalf("items table missing: %v", err)
	}
}

func TestRecordAndGet(t *testing.T) {
	db := testDB(t)
	want := testItem(7, "abc")
	if err := db.Record(want); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := db.Get(7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Traits != want.Traits {
		t.Errorf("traits = %+v, want %+v", got.Traits, want.Traits)
	}
	if got.Fingerprint != want.Fingerprint || got.ImageChecksum != want.ImageChecksum {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestGetMissing(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get(3); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordDuplicates(t *testing.T) {
	db := testDB(t)
	if err := db.Record(testItem(0, "same")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := db.Record(testItem(1, "same")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate fingerprint err = %v, want ErrAlreadyExists", err)
	}
	if err := db.Record(testItem(0, "other")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate index err = %v, want ErrAlreadyExists", err)
	}
}

func TestRecordRejectsSentinel(t *testing.T) {
	db := testDB(t)
	if err := db.Record(testItem(0, "")); err == nil {
		t.Error("empty fingerprint should be rejected")
	}
}

func TestIndicesFingerprintsCount(t *testing.T) {
	db := testDB(t)
	for i, fp := range []string{"a", "b", "c"} {
		if err := db.Record(testItem(i*2, fp)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	n, err := db.Count()
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	idx, err := db.Indices()
	if err != nil {
		t.Fatalf("Indices: %v", err)
	}
	for _, i := range []int{0, 2, 4} {
		if _, ok := idx[i]; !ok {
			t.Errorf("index %d missing", i)
		}
	}
	fps, err := db.Fingerprints()
	if err != nil {
		t.Fatalf("Fingerprints: %v", err)
	}
	if _, ok := fps["b"]; !ok || len(fps) != 3 {
		t.Errorf("fingerprints = %v", fps)
	}
}

func TestTraitCounts(t *testing.T) {
	db := testDB(t)
	a, b, c := testItem(0, "a"), testItem(1, "b"), testItem(2, "c")
	c.Traits.BorderStyle = models.BorderGradient
	c.Traits.NodesPerSide = 4
	for _, it := range []models.Item{a, b, c} {
		if err := db.Record(it); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	styles, err := db.TraitCounts(metadata.TraitBorderStyle)
	if err != nil {
		t.Fatalf("TraitCounts: %v", err)
	}
	if len(styles) != 2 || styles[0] != (TraitCount{"pockmarked", 2}) || styles[1] != (TraitCount{"gradient", 1}) {
		t.Errorf("styles = %+v", styles)
	}

	nodes, err := db.TraitCounts(metadata.TraitNodesPerSide)
	if err != nil {
		t.Fatalf("TraitCounts: %v", err)
	}
	if len(nodes) != 2 || nodes[0] != (TraitCount{"2", 2}) {
		t.Errorf("nodes = %+v", nodes)
	}

	edges, err := db.TraitCounts(metadata.TraitEdge)
	if err != nil {
		t.Fatalf("TraitCounts: %v", err)
	}
	if len(edges) != 1 || edges[0] != (TraitCount{"0.15", 3}) {
		t.Errorf("edges = %+v", edges)
	}

	if _, err := db.TraitCounts("idx; DROP TABLE items"); err == nil {
		t.Error("unknown trait should be rejected")
	}
}

func TestTraitsOrder(t *testing.T) {
	traits := Traits()
	if len(traits) != 8 || traits[0] != metadata.TraitBorderColor || traits[7] != metadata.TraitBorderStyle {
		t.Errorf("Traits = %v", traits)
	}
	for _, tr := range traits {
		if _, ok := traitColumns[tr]; !ok {
			t.Errorf("trait %s has no column", tr)
		}
	}
}

// boardFiles encodes a small solid image and the metadata record for it.
func boardFiles(t *testing.T, idx int, shade uint8) (png, meta []byte, fp models.Fingerprint) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for p := 0; p < len(img.Pix); p += 4 {
		img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = shade, 255-shade, 7, 255
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		t.Fatal(err)
	}
	b, err := metadata.NewBuilder(metadata.Settings{CollectionName: "Test", DescriptionTemplate: "board {{.Number}}"})
	if err != nil {
		t.Fatal(err)
	}
	rec, err := b.Build(idx, testItem(idx, "").Traits)
	if err != nil {
		t.Fatal(err)
	}
	meta, err = rec.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), meta, models.Fingerprint(checksum.Pixels(img))
}

func testStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReconcileRestoresLostLedger(t *testing.T) {
	dir, store := testStore(t)
	fps := make(map[int]models.Fingerprint)
	sums := make(map[int]string)
	for i := 0; i < 3; i++ {
		png, meta, fp := boardFiles(t, i, uint8(40*i))
		if err := store.WriteItem(i, png, meta); err != nil {
			t.Fatal(err)
		}
		fps[i] = fp
		sums[i] = checksum.Sum(png)
	}

	db := testDB(t)
	rep, err := Reconcile(db, store, quietLogger())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if rep != (ReconcileReport{Restored: 3}) {
		t.Errorf("report = %+v, want 3 restored", rep)
	}
	for i := 0; i < 3; i++ {
		got, err := db.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got.Traits != testItem(i, "").Traits {
			t.Errorf("item %d traits = %+v", i, got.Traits)
		}
		if got.Fingerprint != fps[i] || got.ImageChecksum != sums[i] {
			t.Errorf("item %d fingerprint/checksum = %s/%s", i, got.Fingerprint, got.ImageChecksum)
		}
		for _, name := range []string{models.ImageName(i), models.MetadataName(i)} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("%s should be kept: %v", name, err)
			}
		}
	}

	// A second pass finds nothing to do.
	rep, err = Reconcile(db, store, quietLogger())
	if err != nil || rep != (ReconcileReport{}) {
		t.Errorf("second Reconcile = %+v, %v", rep, err)
	}
}

func TestReconcile(t *testing.T) {
	dir, store := testStore(t)
	db := testDB(t)

	// 0: consistent, 1: files deleted, 2: unreadable pair,
	// 3: image replaced, 4: image only, 5: metadata only
	png0, meta0, fp0 := boardFiles(t, 0, 10)
	if err := store.WriteItem(0, png0, meta0); err != nil {
		t.Fatal(err)
	}
	it := testItem(0, string(fp0))
	it.ImageChecksum = checksum.Sum(png0)
	if err := db.Record(it); err != nil {
		t.Fatal(err)
	}

	if err := db.Record(testItem(1, "gone")); err != nil {
		t.Fatal(err)
	}

	if err := store.WriteItem(2, []byte("not a png"), []byte("{}")); err != nil {
		t.Fatal(err)
	}

	png3, meta3, fp3 := boardFiles(t, 3, 30)
	if err := store.WriteItem(3, png3, meta3); err != nil {
		t.Fatal(err)
	}
	it = testItem(3, string(fp3))
	it.ImageChecksum = checksum.Sum(png3)
	if err := db.Record(it); err != nil {
		t.Fatal(err)
	}
	replaced, _, fpReplaced := boardFiles(t, 3, 200)
	if err := os.WriteFile(filepath.Join(dir, "3.png"), replaced, 0o644); err != nil {
		t.Fatal(err)
	}

	png4, _, _ := boardFiles(t, 4, 90)
	if err := store.Write(models.ImageName(4), png4); err != nil {
		t.Fatal(err)
	}
	_, meta5, _ := boardFiles(t, 5, 120)
	if err := store.Write(models.MetadataName(5), meta5); err != nil {
		t.Fatal(err)
	}

	rep, err := Reconcile(db, store, quietLogger())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if want := (ReconcileReport{Restored: 1, Dropped: 2, Removed: 3}); rep != want {
		t.Errorf("report = %+v, want %+v", rep, want)
	}

	idx, _ := db.Indices()
	if len(idx) != 2 {
		t.Errorf("remaining indices = %v, want 0 and 3", idx)
	}
	got, err := db.Get(3)
	if err != nil {
		t.Fatalf("Get(3): %v", err)
	}
	if got.Fingerprint != fpReplaced || got.ImageChecksum != checksum.Sum(replaced) {
		t.Errorf("replaced image not re-recorded: %+v", got)
	}
	for _, name := range []string{"2.png", "2.json", "4.png", "5.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", name)
		}
	}
	for _, name := range []string{"0.png", "0.json", "3.png", "3.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should be kept: %v", name, err)
		}
	}
}
