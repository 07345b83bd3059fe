package command

import (
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/internal/service/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdmin struct {
	stats    memory.Stats
	state    memory.ConnState
	lastErr  string
	resetErr error
	resets   int
}

func (f *fakeAdmin) Stats(context.Context) memory.Stats {
	st := f.stats
	st.State = f.state
	return st
}

func (f *fakeAdmin) ResetConnection(context.Context) error {
	f.resets++
	if f.resetErr != nil {
		return f.resetErr
	}
	f.state = memory.StateConnected
	return nil
}

func (f *fakeAdmin) State() memory.ConnState { return f.state }
func (f *fakeAdmin) LastError() string        { return f.lastErr }

type adminIDs []int64

func (a adminIDs) IsAdmin(id int64) bool {
	if len(a) == 0 {
		return true
	}
	for _, x := range a {
		if x == id {
			return true
		}
	}
	return false
}

var privateChat = core.Chat{ID: "1", Type: "private"}

func newTestRouter(mem *fakeAdmin, admins adminIDs) *Router {
	return New(NewCommands("You are Mimi.\nMore text.", mem, admins))
}

func TestRouter_NotACommand(t *testing.T) {
	r := newTestRouter(&fakeAdmin{}, nil)

	out, ok := r.Execute(context.Background(), privateChat, 1, "hello there")
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestRouter_UnknownCommand(t *testing.T) {
	r := newTestRouter(&fakeAdmin{}, nil)

	out, ok := r.Execute(context.Background(), privateChat, 1, "/nope")
	assert.True(t, ok)
	assert.Equal(t, "Unknown command: /nope", out)
}

func TestRouter_BotSuffixStripped(t *testing.T) {
	r := newTestRouter(&fakeAdmin{}, nil)

	out, ok := r.Execute(context.Background(), core.Chat{ID: "-5", Type: "supergroup"}, 1, "/help@mimi_bot")
	assert.True(t, ok)
	assert.Contains(t, out, "/reset")
}

func TestRouter_ListCommandsSorted(t *testing.T) {
	r := newTestRouter(&fakeAdmin{}, nil)

	var names []string
	for _, c := range r.ListCommands() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"help", "reset", "start", "stats", "status"}, names)
}

func TestStartCommand(t *testing.T) {
	r := newTestRouter(&fakeAdmin{}, nil)

	out, _ := r.Execute(context.Background(), privateChat, 1, "/start")
	assert.Contains(t, out, core.AppName)
	assert.Contains(t, out, "You are Mimi.")
	assert.NotContains(t, out, "More text.")

	group, _ := r.Execute(context.Background(), core.Chat{ID: "-1", Type: "group"}, 1, "/start")
	assert.Contains(t, group, "Mention me")
}

func TestStatusCommand(t *testing.T) {
	mem := &fakeAdmin{
		stats:   memory.Stats{StoreEnabled: true, Backend: "qdrant", EmbeddingMode: "semantic"},
		state:   memory.StateDisconnected,
		lastErr: "connection refused",
	}
	r := newTestRouter(mem, nil)

	out, _ := r.Execute(context.Background(), privateChat, 1, "/status")
	assert.Contains(t, out, "disconnected (qdrant)")
	assert.Contains(t, out, "connection refused")

	mem.state = memory.StateConnected
	out, _ = r.Execute(context.Background(), privateChat, 1, "/status")
	assert.Contains(t, out, "🟢 connected")
	assert.NotContains(t, out, "Last error")
}

func TestStatsCommand(t *testing.T) {
	mem := &fakeAdmin{
		stats: memory.Stats{RecordCount: 12, ConversationCount: 3, Backend: "sqlite", FlatLines: 40, FlatBytes: 2048},
		state: memory.StateConnected,
	}
	r := newTestRouter(mem, nil)

	out, _ := r.Execute(context.Background(), privateChat, 1, "/stats")
	assert.Contains(t, out, "`12`")
	assert.Contains(t, out, "`3`")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "sqlite, connected")
}

func TestResetCommand(t *testing.T) {
	t.Run("admin resets", func(t *testing.T) {
		mem := &fakeAdmin{}
		r := newTestRouter(mem, adminIDs{7})

		out, ok := r.Execute(context.Background(), privateChat, 7, "/reset")
		require.True(t, ok)
		assert.Equal(t, 1, mem.resets)
		assert.Contains(t, out, "connected")
	})

	t.Run("non admin refused", func(t *testing.T) {
		mem := &fakeAdmin{}
		r := newTestRouter(mem, adminIDs{7})

		out, _ := r.Execute(context.Background(), privateChat, 8, "/reset")
		assert.Equal(t, 0, mem.resets)
		assert.Contains(t, out, "restricted")
	})

	t.Run("no admins configured", func(t *testing.T) {
		mem := &fakeAdmin{}
		r := newTestRouter(mem, nil)

		_, _ = r.Execute(context.Background(), privateChat, 8, "/reset")
		assert.Equal(t, 1, mem.resets)
	})

	t.Run("reconnect failure reported", func(t *testing.T) {
		mem := &fakeAdmin{resetErr: errors.New("still down")}
		r := newTestRouter(mem, nil)

		out, _ := r.Execute(context.Background(), privateChat, 8, "/reset")
		assert.Contains(t, out, "still down")
	})
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "3.0 MiB", formatBytes(3*1024*1024))
}
