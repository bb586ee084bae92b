// Package file stores audit records as JSON lines in a single append-only
// file. Each record is one line; positions are byte offsets.
package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/sentinel"
)

// maxLine bounds a single record. Larger lines are treated as corrupt.
const maxLine = 4 << 20

// ErrReadOnly is returned by Append on a store opened with OpenReadOnly.
var ErrReadOnly = errors.New("audit file is open read-only")

// Store is an audit.Store over a JSONL file. Every append is fsynced before
// it is acknowledged.
type Store struct {
	path string

	mu     sync.Mutex
	f      *os.File
	offset   int64
	fsync    bool
	readOnly bool
}

type Option func(*Store)

// WithoutSync skips fsync after each append. Acknowledged records may be
// lost on a crash.
func WithoutSync() Option {
	return func(s *Store) {
		s.fsync = false
	}
}

// Open opens or creates the log at path. A trailing partial line left by an
// interrupted write is truncated so the next append starts on a clean line.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	s := &Store{path: path, f: f, fsync: true}
	for _, opt := range opts {
		opt(s)
	}

	end, err := completeLength(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Truncate(end); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("truncate partial record: %w", err)
	}
	s.offset = end
	return s, nil
}

// OpenReadOnly opens an existing log for inspection. The file is never
// written: a trailing partial line is left in place and skipped by reads.
func OpenReadOnly(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	end, err := completeLength(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Store{path: path, f: f, offset: end, readOnly: true}, nil
}

// completeLength returns the length of the prefix of f made of whole lines.
func completeLength(f *os.File) (int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek audit file: %w", err)
	}
	r := bufio.NewReader(f)
	var end int64
	for {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			return end, nil
		}
		if err != nil {
			return 0, fmt.Errorf("read audit file: %w", err)
		}
		end += int64(len(line))
	}
}

func (s *Store) Append(_ context.Context, env audit.Envelope) (int64, error) {
	if bytes.IndexByte(env.Payload, '\n') >= 0 {
		return 0, fmt.Errorf("record %d contains a newline", env.Sequence)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return 0, sentinel.ErrClosed
	}
	if s.readOnly {
		return 0, ErrReadOnly
	}

	line := make([]byte, 0, len(env.Payload)+1)
	line = append(line, env.Payload...)
	line = append(line, '\n')

	pos := s.offset
	n, err := s.f.WriteAt(line, pos)
	if err != nil {
		// Drop whatever part of the line made it to disk.
		_ = s.f.Truncate(pos)
		return 0, fmt.Errorf("write record %d: %w", env.Sequence, err)
	}
	if s.fsync {
		if err := s.f.Sync(); err != nil {
			_ = s.f.Truncate(pos)
			return 0, fmt.Errorf("sync record %d: %w", env.Sequence, err)
		}
	}
	s.offset += int64(n)
	return pos, nil
}

func (s *Store) ReadAt(_ context.Context, pos int64) ([]byte, error) {
	s.mu.Lock()
	f, end := s.f, s.offset
	s.mu.Unlock()
	if f == nil {
		return nil, sentinel.ErrClosed
	}
	if pos < 0 || pos >= end {
		return nil, fmt.Errorf("offset %d: %w", pos, sentinel.ErrNotFound)
	}

	r := bufio.NewReader(io.NewSectionReader(f, pos, end-pos))
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("offset %d: %w", pos, sentinel.ErrCorrupt)
	}
	return bytes.TrimSuffix(line, []byte{'\n'}), nil
}

// Scan reads the records that were complete when it started.
func (s *Store) Scan(ctx context.Context, fn func(pos int64, payload []byte) bool) error {
	s.mu.Lock()
	f, end := s.f, s.offset
	s.mu.Unlock()
	if f == nil {
		return sentinel.ErrClosed
	}

	sc := bufio.NewScanner(io.NewSectionReader(f, 0, end))
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	var pos int64
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		next := pos + int64(len(line)) + 1
		if len(bytes.TrimSpace(line)) > 0 {
			if !fn(pos, bytes.Clone(line)) {
				return nil
			}
		}
		pos = next
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
