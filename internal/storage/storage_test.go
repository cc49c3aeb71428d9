package storage

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func TestGormKV(t *testing.T) {
	ctx := context.Background()
	kv := NewGormKV(openTestDB(t))

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := kv.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("put then overwrite", func(t *testing.T) {
		require.NoError(t, kv.Put(ctx, KeyOrderCounter, "1"))
		require.NoError(t, kv.Put(ctx, KeyOrderCounter, "2"))
		v, ok, err := kv.Get(ctx, KeyOrderCounter)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "2", v)
	})

	t.Run("keys and delete", func(t *testing.T) {
		require.NoError(t, kv.Put(ctx, KeyDarkMode, "true"))
		keys, err := kv.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{KeyDarkMode, KeyOrderCounter}, keys)

		require.NoError(t, kv.Delete(ctx, KeyDarkMode))
		_, ok, err := kv.Get(ctx, KeyDarkMode)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGormBlobs(t *testing.T) {
	ctx := context.Background()
	blobs := NewGormBlobs(openTestDB(t))

	require.NoError(t, blobs.PutBlob(ctx, 7, Blob{ContentType: "image/jpeg", Data: []byte{1, 2, 3}}))
	require.NoError(t, blobs.PutBlob(ctx, 7, Blob{ContentType: "image/jpeg", Data: []byte{4, 5}}))

	b, ok, err := blobs.GetBlob(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{4, 5}, b.Data)

	require.NoError(t, blobs.DeleteBlob(ctx, 7))
	require.NoError(t, blobs.DeleteBlob(ctx, 7), "deleting an absent blob succeeds")
	_, ok, err = blobs.GetBlob(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, blobs.PutBlob(ctx, 1, Blob{ContentType: "image/jpeg", Data: []byte{9}}))
	require.NoError(t, blobs.ClearBlobs(ctx))
	_, ok, _ = blobs.GetBlob(ctx, 1)
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	var dst []int
	found, err := LoadJSON(ctx, kv, KeySales, &dst)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SaveJSON(ctx, kv, KeySales, []int{1, 2}))
	found, err = LoadJSON(ctx, kv, KeySales, &dst)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{1, 2}, dst)

	require.NoError(t, kv.Put(ctx, KeySales, "{not json"))
	_, err = LoadJSON(ctx, kv, KeySales, &dst)
	assert.Error(t, err)

	diskFull := errors.New("disk full")
	kv.FailWrites = diskFull
	err = SaveJSON(ctx, kv, KeySales, []int{3})
	require.Error(t, err)
	assert.True(t, IsWriteError(err))
	assert.True(t, errors.Is(err, diskFull))
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Put(ctx, KeySales, `[{"id":1712345678901,"date":"2024-04-05T10:00:00Z","items":[],"total":89},{"id":"#02","orderType":"Take Out","paymentMethod":"GCash","items":[],"total":0}]`))
	require.NoError(t, kv.Put(ctx, KeyNotifications, `[{"id":5,"message":"m","orderData":{"id":42,"items":[]},"read":false,"extra":"kept"}]`))

	require.NoError(t, Migrate(ctx, kv))

	sales, _, _ := kv.Get(ctx, KeySales)
	assert.JSONEq(t, `[{"id":"1712345678901","date":"2024-04-05T10:00:00Z","items":[],"total":89,"orderType":"Dine In","paymentMethod":"Cash"},{"id":"#02","orderType":"Take Out","paymentMethod":"GCash","items":[],"total":0}]`, sales)

	notes, _, _ := kv.Get(ctx, KeyNotifications)
	assert.JSONEq(t, `[{"id":5,"message":"m","orderData":{"id":"42","items":[],"orderType":"Dine In","paymentMethod":"Cash"},"read":false,"extra":"kept"}]`, notes)

	version, _, _ := kv.Get(ctx, KeySchemaVersion)
	assert.Equal(t, "1", version)

	t.Run("second run is a no-op", func(t *testing.T) {
		require.NoError(t, kv.Put(ctx, KeySales, `[{"id":3}]`))
		require.NoError(t, Migrate(ctx, kv))
		sales, _, _ := kv.Get(ctx, KeySales)
		assert.Equal(t, `[{"id":3}]`, sales)
	})

	t.Run("corrupt data is left alone", func(t *testing.T) {
		kv := NewMemoryKV()
		require.NoError(t, kv.Put(ctx, KeySales, "garbage"))
		require.NoError(t, Migrate(ctx, kv))
		sales, _, _ := kv.Get(ctx, KeySales)
		assert.Equal(t, "garbage", sales)
	})
}
