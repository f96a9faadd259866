package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgeline/qms/common/models"
)

// MemoryRecordStore is an in-memory RecordStore for development and tests.
// Items are cloned through their JSON form on the way in and out, so callers
// never share memory with the store and every write exercises the persisted
// layout.
type MemoryRecordStore struct {
	records map[models.ItemType]map[uuid.UUID]models.Item
	numbers map[models.ItemType]map[string]uuid.UUID
	mu      sync.Mutex
}

// NewMemoryRecordStore creates an empty in-memory record store
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[models.ItemType]map[uuid.UUID]models.Item),
		numbers: make(map[models.ItemType]map[string]uuid.UUID),
	}
}

// Create stores a new record
func (s *MemoryRecordStore) Create(ctx context.Context, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := models.Clone(item)
	if err != nil {
		return err
	}

	itemType := item.GetItemType()
	if s.records[itemType] == nil {
		s.records[itemType] = make(map[uuid.UUID]models.Item)
		s.numbers[itemType] = make(map[string]uuid.UUID)
	}

	s.records[itemType][item.GetID()] = stored
	s.numbers[itemType][item.GetNumber()] = item.GetID()
	return nil
}

// Get retrieves a record by ID
func (s *MemoryRecordStore) Get(ctx context.Context, itemType models.ItemType, id uuid.UUID) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getLocked(itemType, id)
}

func (s *MemoryRecordStore) getLocked(itemType models.ItemType, id uuid.UUID) (models.Item, error) {
	stored, exists := s.records[itemType][id]
	if !exists {
		return nil, NewNotFoundError(itemType, id)
	}
	return models.Clone(stored)
}

// GetByNumber retrieves a record by its human-readable number
func (s *MemoryRecordStore) GetByNumber(ctx context.Context, itemType models.ItemType, number string) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.numbers[itemType][number]
	if !exists {
		return nil, &NotFoundError{ItemType: itemType, Ref: number}
	}
	return s.getLocked(itemType, id)
}

// Update writes a record if its stored version still matches
func (s *MemoryRecordStore) Update(ctx context.Context, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(item)
}

// UpdateAll applies several updates under one lock; if any version check
// fails nothing is written
func (s *MemoryRecordStore) UpdateAll(ctx context.Context, items ...models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Verify every version before touching anything
	for _, item := range items {
		stored, exists := s.records[item.GetItemType()][item.GetID()]
		if !exists {
			return NewNotFoundError(item.GetItemType(), item.GetID())
		}
		if stored.GetVersion() != item.GetVersion() {
			current, err := models.Clone(stored)
			if err != nil {
				return err
			}
			return &StaleWriteError{
				ItemType:        item.GetItemType(),
				ID:              item.GetID(),
				ExpectedVersion: item.GetVersion(),
				CurrentVersion:  stored.GetVersion(),
				Current:         current,
			}
		}
	}

	for _, item := range items {
		if err := s.updateLocked(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryRecordStore) updateLocked(item models.Item) error {
	itemType := item.GetItemType()
	stored, exists := s.records[itemType][item.GetID()]
	if !exists {
		return NewNotFoundError(itemType, item.GetID())
	}

	expected := item.GetVersion()
	if stored.GetVersion() != expected {
		current, err := models.Clone(stored)
		if err != nil {
			return err
		}
		return &StaleWriteError{
			ItemType:        itemType,
			ID:              item.GetID(),
			ExpectedVersion: expected,
			CurrentVersion:  stored.GetVersion(),
			Current:         current,
		}
	}

	item.SetVersion(expected + 1)
	next, err := models.Clone(item)
	if err != nil {
		item.SetVersion(expected)
		return err
	}

	s.records[itemType][item.GetID()] = next
	return nil
}

// List retrieves records of one type, most recently updated first
func (s *MemoryRecordStore) List(ctx context.Context, itemType models.ItemType, limit int) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.Item, 0, len(s.records[itemType]))
	for _, stored := range s.records[itemType] {
		clone, err := models.Clone(stored)
		if err != nil {
			return nil, err
		}
		items = append(items, clone)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].GetUpdatedAt().After(items[j].GetUpdatedAt())
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// MemoryAuditStore is an in-memory AuditStore for development and tests
type MemoryAuditStore struct {
	entries map[uuid.UUID][]*models.AuditEntry
	mu      sync.Mutex
}

// NewMemoryAuditStore creates an empty in-memory audit store
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{
		entries: make(map[uuid.UUID][]*models.AuditEntry),
	}
}

// Append adds an entry, assigning ID and the next per-item sequence number
func (s *MemoryAuditStore) Append(ctx context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Seq = int64(len(s.entries[entry.ItemID])) + 1

	stored := *entry
	s.entries[entry.ItemID] = append(s.entries[entry.ItemID], &stored)
	return nil
}

// List retrieves entries for an item in sequence order
func (s *MemoryAuditStore) List(ctx context.Context, itemID uuid.UUID, filter models.AuditFilter) ([]*models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}

	var result []*models.AuditEntry
	for _, entry := range s.entries[itemID] {
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.ActorID != "" && entry.ActorID != filter.ActorID {
			continue
		}

		copy := *entry
		result = append(result, &copy)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Count returns the number of entries recorded for an item
func (s *MemoryAuditStore) Count(ctx context.Context, itemID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.entries[itemID])), nil
}
