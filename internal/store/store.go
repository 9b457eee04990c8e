// Package store supplies base events to the scheduling core. It reads a
// YAML events file and imports single events from ICS files or feeds, validating
// everything before it reaches expansion or layout. The core never writes
// back.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	appLog "calcore/internal/log"
	"calcore/internal/model"
)

// Source is anything that can hand out the current base event set.
// version changes whenever the set changes.
type Source interface {
	Snapshot() (events []model.Event, version uint64)
}

// Store holds the last successfully loaded base events in memory.
type Store struct {
	eventsPath string
	icsSources []string
	fetcher    *Fetcher

	mu      sync.RWMutex
	events  []model.Event
	version uint64
}

// New creates a Store reading eventsPath (YAML) and icsSources, each either
// a local .ics path or an http(s) feed URL cached under cacheDir. Nothing
// is read until Reload is called.
func New(eventsPath string, icsSources []string, cacheDir string) *Store {
	return &Store{
		eventsPath: eventsPath,
		icsSources: append([]string(nil), icsSources...),
		fetcher:    NewFetcher(cacheDir),
	}
}

// NewStatic returns a Store serving a fixed event set.
func NewStatic(events []model.Event) *Store {
	return &Store{
		events:  append([]model.Event(nil), events...),
		version: 1,
	}
}

// Reload reads all files and swaps the in-memory set on success. On error
// the previous set stays in place.
func (s *Store) Reload(ctx context.Context) error {
	events, err := s.load(ctx)
	if err != nil {
		appLog.Error("store reload failed", err, "events_file", s.eventsPath)
		return err
	}

	s.mu.Lock()
	s.events = events
	s.version++
	v := s.version
	s.mu.Unlock()

	appLog.Info("store reloaded", "event_count", len(events), "version", v)
	return nil
}

// Snapshot implements Source. The returned slice must not be modified.
func (s *Store) Snapshot() ([]model.Event, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events, s.version
}

func (s *Store) load(ctx context.Context) ([]model.Event, error) {
	var all []model.Event

	if s.eventsPath != "" {
		events, err := LoadFile(s.eventsPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			appLog.Info("events file not found; starting empty", "path", s.eventsPath)
		case err != nil:
			return nil, err
		default:
			all = append(all, events...)
		}
	}

	for _, src := range s.icsSources {
		events, err := s.loadICS(ctx, src)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}

	seen := make(map[string]bool, len(all))
	for _, ev := range all {
		if seen[ev.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, ev.ID)
		}
		seen[ev.ID] = true
	}
	return all, nil
}

func (s *Store) loadICS(ctx context.Context, src string) ([]model.Event, error) {
	if !isRemote(src) {
		return LoadFile(src)
	}
	body, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", redactURL(src), err)
	}
	events, err := ParseICS(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", redactURL(src), err)
	}
	return events, nil
}

// LoadFile reads events from path, choosing the parser by extension:
// ".ics" is imported as ICS, anything else is read as YAML.
func LoadFile(path string) ([]model.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var events []model.Event
	if strings.EqualFold(filepath.Ext(path), ".ics") {
		events, err = ParseICS(data)
	} else {
		events, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}
