package bucket

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := NewLocal(filepath.Join(t.TempDir(), "bucket"))
	require.NoError(t, err)

	n, err := b.Put(ctx, "trips/t1/p1.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("jpeg-bytes")), n)

	data, err := b.Get(ctx, "trips/t1/p1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	entries, err := os.ReadDir(filepath.Join(b.Root(), "trips", "t1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, b.Delete(ctx, "trips/t1/p1.jpg"))
	_, err = b.Get(ctx, "trips/t1/p1.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, b.Delete(ctx, "trips/t1/p1.jpg"), ErrObjectNotFound)
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	b, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", ".", "..", "../outside", "a/../../outside", "/etc/passwd"} {
		_, err := b.Put(ctx, key, strings.NewReader("x"))
		assert.Error(t, err, key)
	}
}

func TestLocalCanceledContext(t *testing.T) {
	b, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Put(ctx, "k", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLocalEmptyRoot(t *testing.T) {
	_, err := NewLocal("")
	assert.Error(t, err)
}
