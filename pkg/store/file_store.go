package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lucid-vigil/decoynet/pkg/event"
)

// FileStore persists each stream as one newline-delimited JSON file
// under dir (auth_attempts.json, web_visits.json, ftp_commands.json).
// Appends are serialized per stream and fsynced before returning, so
// concurrent sessions never interleave bytes of two records and a
// returned Append means the record survived the process.
type FileStore struct {
	dir    string
	logger zerolog.Logger

	mu    sync.Mutex
	files map[event.Stream]*streamFile
}

type streamFile struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileStore creates the data directory if needed. Stream files are
// opened lazily on first append.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With().Str("component", "store").Logger(),
		files:  make(map[event.Stream]*streamFile),
	}, nil
}

func (s *FileStore) path(stream event.Stream) string {
	return filepath.Join(s.dir, string(stream)+".json")
}

func (s *FileStore) streamFile(stream event.Stream) (*streamFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sf, ok := s.files[stream]; ok {
		return sf, nil
	}
	f, err := os.OpenFile(s.path(stream), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	sf := &streamFile{file: f, enc: json.NewEncoder(f)}
	s.files[stream] = sf
	return sf, nil
}

// Append durably records one event on the named stream. Failures come
// back as *AppendError so callers can tell a lost capture from peer
// noise.
func (s *FileStore) Append(ctx context.Context, stream event.Stream, ev event.Event) error {
	if err := ctx.Err(); err != nil {
		return &AppendError{Stream: stream, Err: err}
	}
	if ev.Kind == "" {
		ev.Kind = event.InferKind(ev)
	}

	sf, err := s.streamFile(stream)
	if err != nil {
		return &AppendError{Stream: stream, Err: err}
	}

	sf.mu.Lock()
	defer sf.mu.Unlock()
	if err := sf.enc.Encode(ev); err != nil {
		return &AppendError{Stream: stream, Err: err}
	}
	if err := sf.file.Sync(); err != nil {
		return &AppendError{Stream: stream, Err: err}
	}
	return nil
}

// ReadAll returns every parseable record on the stream, in append
// order. Lines that fail to parse (a crash mid-write leaves at most
// one) are logged and skipped rather than aborting the read. A stream
// that was never written reads as empty.
func (s *FileStore) ReadAll(stream event.Stream) ([]event.Event, error) {
	f, err := os.Open(s.path(stream))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []event.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev event.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.logger.Warn().
				Str("stream", string(stream)).
				Int("line", line).
				Err(err).
				Msg("Skipping malformed record")
			continue
		}
		if ev.Kind == "" {
			ev.Kind = event.InferKind(ev)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, err
	}
	return events, nil
}

// Close flushes and closes every open stream file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for stream, sf := range s.files {
		sf.mu.Lock()
		if err := sf.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		sf.mu.Unlock()
		delete(s.files, stream)
	}
	return firstErr
}
