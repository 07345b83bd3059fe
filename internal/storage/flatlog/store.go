package flatlog

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/pkg/log"
)

const filePrefix = "chat_"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Store keeps the last maxLines lines of every conversation in a text file.
type Store struct {
	dir      string
	maxLines int

	locks sync.Map // conversation file name -> *sync.Mutex
}

func NewStore(dir string, maxLines int) (*Store, error) {
	if maxLines <= 0 {
		return nil, fmt.Errorf("max lines must be positive, got %d", maxLines)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create context directory: %w", err)
	}
	return &Store{dir: dir, maxLines: maxLines}, nil
}

// Append adds a line and trims the file to the newest maxLines lines.
func (s *Store) Append(ctx context.Context, conversationID, line string) error {
	name := fileName(conversationID)
	mu := s.lock(name)
	mu.Lock()
	defer mu.Unlock()

	path := filepath.Join(s.dir, name)
	lines, err := readLines(path)
	if err != nil {
		return err
	}

	lines = append(lines, strings.ReplaceAll(line, "\n", " "))
	if len(lines) > s.maxLines {
		lines = lines[len(lines)-s.maxLines:]
	}

	if err := writeLines(path, lines); err != nil {
		return err
	}

	log.FromCtx(ctx).Debug().Str("conversation", conversationID).Int("lines", len(lines)).Msg("flat log appended")
	return nil
}

// Tail returns the last n lines, oldest first. A missing file yields no lines.
func (s *Store) Tail(_ context.Context, conversationID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	name := fileName(conversationID)
	mu := s.lock(name)
	mu.Lock()
	defer mu.Unlock()

	lines, err := readLines(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

func (s *Store) Stats(_ context.Context) (core.FlatStats, error) {
	var st core.FlatStats

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return st, fmt.Errorf("failed to list context directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		lines, err := readLines(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		st.Conversations++
		st.Lines += len(lines)
		st.Bytes += info.Size()
	}
	return st, nil
}

func (s *Store) lock(name string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func fileName(conversationID string) string {
	id := unsafeChars.ReplaceAllString(conversationID, "_")
	if id == "" {
		id = "_"
	}
	return filePrefix + id + ".txt"
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read flat log: %w", err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan flat log: %w", err)
	}
	return lines, nil
}

func writeLines(path string, lines []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		_, _ = w.WriteString(line)
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write flat log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace flat log: %w", err)
	}
	return nil
}
