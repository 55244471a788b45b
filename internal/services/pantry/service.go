// Package pantry provides the pantry item store with file watching and persistence.
package pantry

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/validation"
)

const fileVersion = 1

var (
	// ErrItemNotFound is returned when no item has the requested ID.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidItem is returned when an item or mutation fails validation.
	ErrInvalidItem = errors.New("invalid item")
)

// Event represents a pantry service event.
type Event struct {
	Type  EventType
	Error error
	Item  *models.Item
}

// EventType defines the type of pantry event.
type EventType int

const (
	EventItemsLoaded EventType = iota
	EventItemsChanged
	EventItemAdded
	EventItemUpdated
	EventItemDeleted
	EventFileDeleted
	EventError
)

// Service manages pantry items with file watching and change notifications.
type Service struct {
	mu            sync.RWMutex
	items         []models.Item
	filePath      string
	lastWritten   []byte
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	now           func() time.Time
}

// New creates a pantry service for filePath and starts file watching.
// A missing file is created empty.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		return nil, errors.New("pantry path is required")
	}

	s := &Service{
		items:     make([]models.Item, 0),
		filePath:  filePath,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create pantry directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load pantry: %w", err)
		}
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to create pantry file: %w", err)
		}
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventItemsLoaded})
	return s, nil
}

// Events returns the event channel for subscribing to pantry changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the pantry file path.
func (s *Service) Path() string {
	return s.filePath
}

// Items returns a deep copy of all items in file order.
func (s *Service) Items() []models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.Item, len(s.items))
	for i := range s.items {
		items[i] = s.items[i].Clone()
	}
	return items
}

// Item returns a copy of the item with the given ID.
func (s *Service) Item(id string) (models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return s.items[idx].Clone(), nil
}

// Count returns the number of items.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// AddItem validates and adds a new item, assigning an ID when missing.
func (s *Service) AddItem(item models.Item) (models.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := validation.Struct(item); err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if s.indexLocked(item.ID) >= 0 {
		return models.Item{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidItem, item.ID)
	}

	now := s.now()
	if item.AddedAt.IsZero() {
		item.AddedAt = now
	}
	item.UpdatedAt = now

	s.items = append(s.items, item)
	if err := s.saveLocked(); err != nil {
		s.items = s.items[:len(s.items)-1]
		return models.Item{}, fmt.Errorf("failed to save pantry: %w", err)
	}

	added := item.Clone()
	s.sendEvent(Event{Type: EventItemAdded, Item: &added})
	return item.Clone(), nil
}

// UpdateItem replaces an existing item, preserving its AddedAt.
func (s *Service) UpdateItem(item models.Item) error {
	item.Name = strings.TrimSpace(item.Name)
	if err := validation.Struct(item); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	return s.mutate(item.ID, EventItemUpdated, func(existing *models.Item) error {
		addedAt := existing.AddedAt
		*existing = item.Clone()
		if existing.AddedAt.IsZero() {
			existing.AddedAt = addedAt
		}
		return nil
	})
}

// DeleteItem removes an item by ID.
func (s *Service) DeleteItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	previous := s.items
	deleted := s.items[idx].Clone()
	s.items = append(append(make([]models.Item, 0, len(previous)-1), previous[:idx]...), previous[idx+1:]...)

	if err := s.saveLocked(); err != nil {
		s.items = previous
		return fmt.Errorf("failed to save pantry: %w", err)
	}

	s.sendEvent(Event{Type: EventItemDeleted, Item: &deleted})
	return nil
}

// RecordConsumption appends a consumption event dated at and lowers the
// current quantity by the rounded amount, never below zero.
func (s *Service) RecordConsumption(id string, quantity float64, at time.Time, note string) error {
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return fmt.Errorf("%w: consumption quantity must be positive, got %v", ErrInvalidItem, quantity)
	}

	return s.mutate(id, EventItemUpdated, func(item *models.Item) error {
		event := models.NewEvent(at, quantity)
		event.Note = note
		item.Events = append(item.Events, event)
		item.CurrentQuantity = max(item.CurrentQuantity-int(math.Round(quantity)), 0)
		return nil
	})
}

// Restock raises the current quantity of an item.
func (s *Service) Restock(id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: restock quantity must be positive, got %d", ErrInvalidItem, quantity)
	}

	return s.mutate(id, EventItemUpdated, func(item *models.Item) error {
		item.CurrentQuantity += quantity
		return nil
	})
}

// mutate applies fn to the item under the lock, saves, and rolls back on failure.
func (s *Service) mutate(id string, eventType EventType, fn func(*models.Item) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	original := s.items[idx].Clone()
	if err := fn(&s.items[idx]); err != nil {
		s.items[idx] = original
		return err
	}
	s.items[idx].ID = original.ID
	s.items[idx].UpdatedAt = s.now()

	if err := s.saveLocked(); err != nil {
		s.items[idx] = original
		return fmt.Errorf("failed to save pantry: %w", err)
	}

	updated := s.items[idx].Clone()
	s.sendEvent(Event{Type: eventType, Item: &updated})
	return nil
}

func (s *Service) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// parsePantry decodes the pantry document. Items without an ID get a new
// one; changed reports whether any were assigned.
func parsePantry(data []byte) (items []models.Item, changed bool, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Item{}, false, nil
	}

	var doc models.Pantry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to parse pantry file: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []models.Item{}
	}

	for i := range doc.Items {
		if doc.Items[i].ID == "" {
			doc.Items[i].ID = uuid.NewString()
			changed = true
		}
		// Invalid items are kept so the advisor can report them as skipped.
		if err := validation.Struct(doc.Items[i]); err != nil {
			logger.Warn("pantry item failed validation", "id", doc.Items[i].ID, "error", err)
		}
	}
	return doc.Items, changed, nil
}

// load reads the pantry file. It must only be called before the watcher
// starts or while holding the lock.
func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	items, changed, err := parsePantry(data)
	if err != nil {
		return err
	}

	s.items = items
	s.lastWritten = data
	if changed {
		return s.saveLocked()
	}
	return nil
}

// save writes the pantry file (public version).
func (s *Service) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the pantry file atomically (must hold lock).
func (s *Service) saveLocked() error {
	doc := models.Pantry{Version: fileVersion, Items: s.items}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pantry: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.lastWritten = data
	return nil
}

// startWatcher watches the pantry directory so replacements are seen.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// A rename onto the path arrives as Create, so only a
				// missing file counts as deleted.
				if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
					s.sendEvent(Event{Type: EventFileDeleted})
				}
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads items after an external change. Reloads of our
// own writes are ignored.
func (s *Service) handleFileChange() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.sendEvent(Event{Type: EventError, Error: fmt.Errorf("failed to read pantry: %w", err)})
		}
		return
	}

	s.mu.Lock()
	if bytes.Equal(data, s.lastWritten) {
		s.mu.Unlock()
		return
	}
	items, changed, err := parsePantry(data)
	if err != nil {
		s.mu.Unlock()
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	s.items = items
	s.lastWritten = data
	if changed {
		if err := s.saveLocked(); err != nil {
			logger.Warn("failed to persist assigned item ids", "error", err)
		}
	}
	s.mu.Unlock()

	logger.Info("pantry reloaded", "path", s.filePath, "items", len(items))
	s.sendEvent(Event{Type: EventItemsChanged})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
