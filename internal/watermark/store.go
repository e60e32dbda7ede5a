package watermark

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"NewsDispatch/internal/ports"
)

// Sentinel is the beginning-of-time watermark every category starts from.
// Anything published after it qualifies for delivery on first run.
var Sentinel = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Store tracks, per category, the publish instant of the most recently
// delivered article and persists the mapping as a small JSON file
// (category → RFC 3339 instant), kept human-inspectable on purpose.
type Store struct {
	mu     sync.Mutex
	path   string
	marks  map[string]time.Time
	logger *slog.Logger
}

var _ ports.WatermarkStore = (*Store)(nil)

// Open initializes every known category to the sentinel and overlays
// whatever the file holds. An unreadable, missing, or corrupt file degrades
// to all-sentinel: the worst case is one round of re-delivery, never a
// silently lost store.
func Open(path string, categories []string, logger *slog.Logger) *Store {
	s := &Store{
		path:   path,
		marks:  make(map[string]time.Time, len(categories)),
		logger: logger,
	}
	for _, cat := range categories {
		s.marks[cat] = Sentinel
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.warn("watermark file unreadable, starting from sentinel", "path", path, "error", err)
		}
		return s
	}

	var persisted map[string]string
	if err := json.Unmarshal(raw, &persisted); err != nil {
		s.warn("watermark file corrupt, starting from sentinel", "path", path, "error", err)
		return s
	}

	for cat, stamp := range persisted {
		instant, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			s.warn("skipping malformed watermark entry", "category", cat, "value", stamp)
			continue
		}
		s.marks[cat] = instant
	}

	return s
}

// Get returns the stored watermark, or the sentinel for an unknown category.
func (s *Store) Get(category string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mark, ok := s.marks[category]; ok {
		return mark
	}
	return Sentinel
}

// IsNew reports whether publishedAt is strictly after the category's
// watermark. The strict comparison treats the boundary item as already
// delivered, so it is not reprocessed every cycle.
func (s *Store) IsNew(category string, publishedAt time.Time) bool {
	return publishedAt.After(s.Get(category))
}

// Advance raises the category's watermark to publishedAt if that is later
// than the current value. It never regresses.
func (s *Store) Advance(category string, publishedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.marks[category]
	if !ok {
		current = Sentinel
	}
	if publishedAt.After(current) {
		s.marks[category] = publishedAt
	}
}

// Flush durably persists the full mapping via write-temp-then-rename, so a
// crash mid-write can never leave a truncated store behind.
func (s *Store) Flush() error {
	s.mu.Lock()
	persisted := make(map[string]string, len(s.marks))
	for cat, mark := range s.marks {
		persisted[cat] = mark.UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal watermarks: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create watermark directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp watermark file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename watermark file: %w", err)
	}

	return nil
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
