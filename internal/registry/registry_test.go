package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func testDocument(ingestedAt time.Time) *Document {
	return &Document{
		DocID:      uuid.New().String(),
		Filename:   "report.pdf",
		StoredPath: "/data/uploads/abc__report.pdf",
		SizeBytes:  2048,
		PageCount:  3,
		ChunkCount: 7,
		IngestedAt: ingestedAt,
	}
}

func TestRecordAndGet(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	doc := testDocument(now)
	require.NoError(t, reg.Record(ctx, doc))

	got, err := reg.Get(ctx, doc.DocID)
	require.NoError(t, err)
	assert.Equal(t, doc.DocID, got.DocID)
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, "/data/uploads/abc__report.pdf", got.StoredPath)
	assert.Equal(t, int64(2048), got.SizeBytes)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, 7, got.ChunkCount)
	assert.True(t, got.IngestedAt.Equal(now))
}

func TestGet_NotFound(t *testing.T) {
	reg := openTestRegistry(t)

	_, err := reg.Get(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	oldest := testDocument(base.Add(-2 * time.Hour))
	middle := testDocument(base.Add(-1 * time.Hour))
	newest := testDocument(base)

	// Insert out of order; List must sort by ingestion time.
	require.NoError(t, reg.Record(ctx, middle))
	require.NoError(t, reg.Record(ctx, newest))
	require.NoError(t, reg.Record(ctx, oldest))

	docs, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, newest.DocID, docs[0].DocID)
	assert.Equal(t, middle.DocID, docs[1].DocID)
	assert.Equal(t, oldest.DocID, docs[2].DocID)
}

func TestList_Empty(t *testing.T) {
	reg := openTestRegistry(t)

	docs, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRecord_DuplicateDocID(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	doc := testDocument(time.Now().UTC())
	require.NoError(t, reg.Record(ctx, doc))
	assert.Error(t, reg.Record(ctx, doc), "entries are write-once")
}

func TestReopen_Durable(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	reg, err := Open(dir)
	require.NoError(t, err)
	doc := testDocument(time.Now().UTC().Truncate(time.Second))
	require.NoError(t, reg.Record(ctx, doc))

	// The database file lives where Path reports it.
	assert.Equal(t, filepath.Join(dir, "registry.db"), reg.Path())
	_, err = os.Stat(reg.Path())
	require.NoError(t, err)

	require.NoError(t, reg.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, doc.DocID)
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
}
