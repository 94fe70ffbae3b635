package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *DatabaseStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	store := NewDatabaseStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func TestDatabaseStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	payload := []byte("\x89PNG fake image bytes")

	require.NoError(t, store.Put(ctx, "img-1", "image/png", bytes.NewReader(payload), int64(len(payload))))

	rc, obj, err := store.Get(ctx, "img-1")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(len(payload)), obj.Size)

	require.NoError(t, store.Delete(ctx, "img-1"))

	_, _, err = store.Get(ctx, "img-1")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "img-1"), ErrObjectNotFound)
}

func TestDatabaseStore_SizeMismatch(t *testing.T) {
	store := newTestStore(t)

	err := store.Put(context.Background(), "img-2", "image/png", strings.NewReader("abc"), 10)
	assert.Error(t, err)

	_, _, err = store.Get(context.Background(), "img-2")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestDatabaseStore_UnknownSize(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put(context.Background(), "img-3", "image/webp", strings.NewReader("abcd"), -1))

	_, obj, err := store.Get(context.Background(), "img-3")
	require.NoError(t, err)
	assert.Equal(t, int64(4), obj.Size)
}
