package flatlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RingBuffer(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir(), 3)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Append(ctx, "42", fmt.Sprintf("line %d", i)))
	}

	lines, err := s.Tail(ctx, "42", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, lines)

	lines, err = s.Tail(ctx, "42", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"line 4", "line 5"}, lines)
}

func TestStore_MissingConversation(t *testing.T) {
	s, err := NewStore(t.TempDir(), 10)
	require.NoError(t, err)

	lines, err := s.Tail(context.Background(), "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestStore_FlattensNewlines(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir(), 10)
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, "1", "first\nsecond"))

	lines, err := s.Tail(ctx, "1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"first second"}, lines)
}

func TestStore_SanitizesFileNames(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewStore(dir, 10)
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, "../../etc/passwd", "x"))
	require.NoError(t, s.Append(ctx, "-100123", "y"))

	_, err = os.Stat(filepath.Join(dir, "chat__etc_passwd.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "chat_-100123.txt"))
	assert.NoError(t, err)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir(), 1000)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, "7", fmt.Sprintf("msg %d", i)))
		}(i)
	}
	wg.Wait()

	lines, err := s.Tail(ctx, "7", 1000)
	require.NoError(t, err)
	assert.Len(t, lines, 50)
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir(), 10)
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, "1", "a"))
	require.NoError(t, s.Append(ctx, "1", "b"))
	require.NoError(t, s.Append(ctx, "2", "c"))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Conversations)
	assert.Equal(t, 3, st.Lines)
	assert.Equal(t, int64(6), st.Bytes)
}

func TestNewStore_RejectsZeroSize(t *testing.T) {
	_, err := NewStore(t.TempDir(), 0)
	assert.Error(t, err)
}
