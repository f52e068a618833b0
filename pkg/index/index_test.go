package index

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/inkwell/pkg/adapters/fs"
	"github.com/aretw0/inkwell/pkg/core"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time                 { return c.t }
func (c *fixedClock) SetTime(hour, minute int) error { return nil }

func setup(t *testing.T) (*FileIndex, *fs.Storage, *fixedClock) {
	t.Helper()
	s := fs.NewStorage(fs.Config{Path: t.TempDir()})
	require.NoError(t, s.Initialize(context.Background()))
	clock := &fixedClock{t: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)}
	return New(Config{Storage: s, Clock: clock}), s, clock
}

func readIndex(t *testing.T, s *fs.Storage) string {
	t.Helper()
	data, err := s.Read(context.Background(), DefaultPath)
	require.NoError(t, err)
	return string(data)
}

func document(visible int, extra string) []byte {
	return []byte(strings.Repeat("a", visible) + extra)
}

func TestUpsertWritesRecord(t *testing.T) {
	ctx := context.Background()
	idx, s, _ := setup(t)

	// 100 printable characters plus 20 line breaks.
	require.NoError(t, s.Write(ctx, "/notes.txt", document(100, strings.Repeat("\n", 20))))

	rec, err := idx.Upsert(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, core.MetadataRecord{
		Path:             "/notes.txt",
		Timestamp:        "20240102-0304",
		SizeBytes:        120,
		VisibleCharCount: 100,
	}, rec)
	assert.Equal(t, "/notes.txt|20240102-0304|120 Bytes|100 Char\n", readIndex(t, s))
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx, s, _ := setup(t)
	require.NoError(t, s.Write(ctx, "/a.txt", document(3, "")))
	require.NoError(t, s.Write(ctx, "/b.txt", document(5, "")))

	_, err := idx.Upsert(ctx, "/a.txt")
	require.NoError(t, err)
	_, err = idx.Upsert(ctx, "/b.txt")
	require.NoError(t, err)
	first := readIndex(t, s)

	_, err = idx.Upsert(ctx, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, first, readIndex(t, s))
	assert.Equal(t, "/a.txt|20240102-0304|3 Bytes|3 Char\n/b.txt|20240102-0304|5 Bytes|5 Char\n", first)
}

func TestUpsertReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	idx, s, clock := setup(t)
	require.NoError(t, s.Write(ctx, "/a.txt", document(3, "")))
	require.NoError(t, s.Write(ctx, "/b.txt", document(5, "")))
	_, _ = idx.Upsert(ctx, "/a.txt")
	_, _ = idx.Upsert(ctx, "/b.txt")

	clock.t = clock.t.Add(time.Hour)
	require.NoError(t, s.Write(ctx, "/a.txt", document(7, "\t")))
	_, err := idx.Upsert(ctx, "/a.txt")
	require.NoError(t, err)

	assert.Equal(t, "/a.txt|20240102-0404|8 Bytes|7 Char\n/b.txt|20240102-0304|5 Bytes|5 Char\n", readIndex(t, s))
}

func TestUpsertMissingDocument(t *testing.T) {
	idx, _, _ := setup(t)
	_, err := idx.Upsert(context.Background(), "/ghost.txt")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpsertDropsShortLines(t *testing.T) {
	ctx := context.Background()
	idx, s, _ := setup(t)
	require.NoError(t, s.Write(ctx, DefaultPath, []byte("\nx\n/old.txt|20230101-0000|1 Bytes|1 Char\n\n")))
	require.NoError(t, s.Write(ctx, "/new.txt", document(2, "")))

	_, err := idx.Upsert(ctx, "/new.txt")
	require.NoError(t, err)
	assert.Equal(t, "/old.txt|20230101-0000|1 Bytes|1 Char\n/new.txt|20240102-0304|2 Bytes|2 Char\n", readIndex(t, s))
}

func TestDeleteDropsShortLines(t *testing.T) {
	ctx := context.Background()
	idx, s, _ := setup(t)
	require.NoError(t, s.Write(ctx, DefaultPath, []byte(
		"/a.txt|20240102-0304|1 Bytes|1 Char\n\nx\n   \n/b.txt|20240102-0304|2 Bytes|2 Char\n")))

	require.NoError(t, idx.Delete(ctx, "/b.txt"))
	assert.Equal(t, "/a.txt|20240102-0304|1 Bytes|1 Char\n", readIndex(t, s))
}

func TestRenameDropsShortLines(t *testing.T) {
	ctx := context.Background()
	idx, s, _ := setup(t)
	require.NoError(t, s.Write(ctx, DefaultPath, []byte(
		"/a.txt|20240102-0304|1 Bytes|1 Char\n\nx\n \t \n")))

	require.NoError(t, idx.Rename(ctx, "/a.txt", "/c.txt"))
	assert.Equal(t, "/c.txt|20240102-0304|1 Bytes|1 Char\n", readIndex(t, s))
}

func TestDeleteThenUpsert(t *testing.T) {
	ctx := context.Background()
	idx, s, _ := setup(t)
	require.NoError(t, s.Write(ctx, "/a.txt", document(3, "")))
	require.NoError(t, s.Write(ctx, "/b.txt", document(4, "")))
	_, _ = idx.Upsert(ctx, "/a.txt")
	_, _ = idx.Upsert(ctx, "/b.txt")

	require.NoError(t, idx.Delete(ctx, "/a.txt"))
	assert.Equal(t, "/b.txt|20240102-0304|4 Bytes|4 Char\n", readIndex(t, s))

	_, err := idx.Upsert(ctx, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "/b.txt|20240102-0304|4 Bytes|4 Char\n/a.txt|20240102-0304|3 Bytes|3 Char\n", readIndex(t, s))
}

func TestDeleteWithoutIndex(t *testing.T) {
	idx, s, _ := setup(t)
	require.NoError(t, idx.Delete(context.Background(), "/a.txt"))
	_, err := s.Read(context.Background(), DefaultPath)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRenamePreservesFields(t *testing.T) {
	ctx := context.Background()
	idx, s, clock := setup(t)
	require.NoError(t, s.Write(ctx, "/draft.txt", document(10, "")))
	_, err := idx.Upsert(ctx, "/draft.txt")
	require.NoError(t, err)

	clock.t = clock.t.Add(24 * time.Hour)
	require.NoError(t, idx.Rename(ctx, "/draft.txt", "final.txt"))
	assert.Equal(t, "/final.txt|20240102-0304|10 Bytes|10 Char\n", readIndex(t, s))

	rec, err := idx.Get(ctx, "/final.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), rec.SizeBytes)

	_, err = idx.Get(ctx, "/draft.txt")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRenameLineWithoutDelimiter(t *testing.T) {
	ctx := context.Background()
	idx, s, _ := setup(t)
	require.NoError(t, s.Write(ctx, DefaultPath, []byte("/bare.txt\n/other.txt|20240101-0000|1 Bytes|1 Char\n")))

	require.NoError(t, idx.Rename(ctx, "/bare.txt", "/moved.txt"))
	assert.Equal(t, "/moved.txt\n/other.txt|20240101-0000|1 Bytes|1 Char\n", readIndex(t, s))
}

func TestListKeepsMalformedPaths(t *testing.T) {
	ctx := context.Background()
	idx, s, _ := setup(t)
	require.NoError(t, s.Write(ctx, DefaultPath, []byte("/ok.txt|20240101-0000|12 Bytes|10 Char\n/broken.txt|garbage\n\n")))

	records, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, core.MetadataRecord{Path: "/ok.txt", Timestamp: "20240101-0000", SizeBytes: 12, VisibleCharCount: 10}, records[0])
	assert.Equal(t, core.MetadataRecord{Path: "/broken.txt"}, records[1])
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("/a.txt|20240102-0304|120 Bytes|100 Char")
	require.NoError(t, err)
	assert.Equal(t, "/a.txt|20240102-0304|120 Bytes|100 Char", FormatRecord(rec))

	for _, line := range []string{
		"/a.txt",
		"/a.txt|20240102-0304|120|100 Char",
		"/a.txt|20240102-0304|x Bytes|100 Char",
		"/a.txt|20240102-0304|120 Bytes|100 Char|extra",
	} {
		_, err := ParseRecord(line)
		assert.Error(t, err, line)
	}
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()
	idx, s, _ := setup(t)
	require.NoError(t, s.Write(ctx, DefaultPath, []byte("/gone.txt|20200101-0000|1 Bytes|1 Char\n")))
	require.NoError(t, s.Write(ctx, "/a.txt", document(1, "")))
	require.NoError(t, s.Write(ctx, "/journal/b.txt", document(2, "")))
	require.NoError(t, s.Write(ctx, "/assets/logo.bin", []byte{0, 1}))

	n, err := idx.Rebuild(ctx, "**/*.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "/a.txt|20240102-0304|1 Bytes|1 Char\n/journal/b.txt|20240102-0304|2 Bytes|2 Char\n", readIndex(t, s))

	state := idx.State().(IndexState)
	assert.Equal(t, 2, state.Records)
	assert.Equal(t, uint64(1), state.Writes)
}

type recordingCPU struct{ freqs []int }

func (c *recordingCPU) FrequencyMHz() int {
	if len(c.freqs) == 0 {
		return 0
	}
	return c.freqs[len(c.freqs)-1]
}
func (c *recordingCPU) SetFrequencyMHz(mhz int) { c.freqs = append(c.freqs, mhz) }

func TestRewriteBoostsCPU(t *testing.T) {
	ctx := context.Background()
	s := fs.NewStorage(fs.Config{Path: t.TempDir()})
	require.NoError(t, s.Initialize(ctx))
	require.NoError(t, s.Write(ctx, "/a.txt", document(1, "")))

	cpu := &recordingCPU{}
	idx := New(Config{Storage: s, Guard: core.NewStorageGuard(cpu, true)})
	_, err := idx.Upsert(ctx, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []int{core.StorageFrequencyMHz, core.PowerSaveFrequencyMHz}, cpu.freqs)
}
