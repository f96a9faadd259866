package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"github.com/forgeline/qms/cmd/qms/audit"
	"github.com/forgeline/qms/cmd/qms/statemachine"
	"github.com/forgeline/qms/common/cache"
	"github.com/forgeline/qms/common/logger"
	"github.com/forgeline/qms/common/models"
	"github.com/forgeline/qms/common/queue"
	"github.com/forgeline/qms/common/repository"
	"github.com/forgeline/qms/common/validation"
)

const recordEventTopic = "qms.records"

// recordEvent is the message published to the queue after every successful
// mutation
type recordEvent struct {
	Action   string          `json:"action"`
	ItemType models.ItemType `json:"itemType"`
	ItemID   uuid.UUID       `json:"itemId"`
	Number   string          `json:"number"`
	Status   models.Status   `json:"status"`
	ActorID  string          `json:"actorId"`
}

// RecordService owns the lifecycle of quality records. It is the only writer
// of status and version fields; handlers and sibling services route every
// mutation through it so the stale-write check, the audit append and the
// event publish happen as one logical unit.
type RecordService struct {
	store            repository.RecordStore
	recorder         *audit.Recorder
	machine          *statemachine.Machine
	validator        *validation.Validator
	numbers          *NumberGenerator
	cache            cache.Cache
	queue            queue.Queue
	logger           *logger.Logger
	cacheTTL         time.Duration
	defaultMRBQuorum int
}

// NewRecordService creates the record lifecycle service
func NewRecordService(
	store repository.RecordStore,
	recorder *audit.Recorder,
	machine *statemachine.Machine,
	validator *validation.Validator,
	numbers *NumberGenerator,
	recordCache cache.Cache,
	eventQueue queue.Queue,
	log *logger.Logger,
	cacheTTL time.Duration,
	defaultMRBQuorum int,
) *RecordService {
	return &RecordService{
		store:            store,
		recorder:         recorder,
		machine:          machine,
		validator:        validator,
		numbers:          numbers,
		cache:            recordCache,
		queue:            eventQueue,
		logger:           log,
		cacheTTL:         cacheTTL,
		defaultMRBQuorum: defaultMRBQuorum,
	}
}

// Create validates a new record, assigns its identity and initial status,
// persists it and writes the creation audit entry
func (s *RecordService) Create(ctx context.Context, item models.Item, actor string) (models.Item, error) {
	now := time.Now()

	header := headerOf(item)
	header.ID = uuid.New()
	header.Status = models.InitialStatus(item.GetItemType())
	header.Version = 1
	header.CreatedBy = actor
	header.CreatedAt = now
	header.UpdatedAt = now

	if mrb, ok := item.(*models.MRB); ok && mrb.QuorumRequired == 0 {
		mrb.QuorumRequired = s.defaultMRBQuorum
	}

	number, err := s.numbers.Next(ctx, item.GetItemType())
	if err != nil {
		return nil, err
	}
	header.Number = number

	if err := s.validator.ValidateItem(item); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}

	if _, err := s.recorder.Record(ctx, models.ActionCreate, actor, "", nil, item); err != nil {
		return nil, err
	}

	s.cacheSet(ctx, item)
	s.publishEvent(ctx, models.ActionCreate, item, actor)

	s.logger.Info("record created",
		"item_type", item.GetItemType(),
		"number", number,
		"actor", actor)

	return item, nil
}

// Get retrieves a record by ID, reading through the cache
func (s *RecordService) Get(ctx context.Context, itemType models.ItemType, id uuid.UUID) (models.Item, error) {
	if cached := s.cacheGet(ctx, itemType, id); cached != nil {
		return cached, nil
	}

	item, err := s.store.Get(ctx, itemType, id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, item)
	return item, nil
}

// GetByNumber retrieves a record by its human-readable number
func (s *RecordService) GetByNumber(ctx context.Context, itemType models.ItemType, number string) (models.Item, error) {
	return s.store.GetByNumber(ctx, itemType, number)
}

// List retrieves records of one type, most recently updated first
func (s *RecordService) List(ctx context.Context, itemType models.ItemType, limit int) ([]models.Item, error) {
	return s.store.List(ctx, itemType, limit)
}

// Transition moves a record to a target status. expectedVersion is the
// version the caller last observed; a mismatch fails with a StaleWriteError
// carrying the current record, and the caller re-fetches and retries. The
// status change, the audit entry and the event publish form one logical
// unit: the audit trail gains exactly one entry per successful transition.
func (s *RecordService) Transition(ctx context.Context, itemType models.ItemType, id uuid.UUID, target models.Status, actor, reason string, expectedVersion int64) (models.Item, error) {
	item, err := s.store.Get(ctx, itemType, id)
	if err != nil {
		return nil, err
	}

	if expectedVersion > 0 && item.GetVersion() != expectedVersion {
		return nil, &repository.StaleWriteError{
			ItemType:        itemType,
			ID:              id,
			ExpectedVersion: expectedVersion,
			CurrentVersion:  item.GetVersion(),
			Current:         item,
		}
	}

	before, err := models.Clone(item)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Transition(item, target, actor, time.Now()); err != nil {
		return nil, err
	}

	return s.commit(ctx, models.ActionTransition, actor, reason, before, item)
}

// Mutate loads a record, pre-checks the caller's observed version, applies a
// domain mutation and commits it with the given audit action. Sibling
// services (disposition, linkage, attachments) use this so every mutation
// path shares the same concurrency and audit discipline.
func (s *RecordService) Mutate(ctx context.Context, itemType models.ItemType, id uuid.UUID, expectedVersion int64, action, actor, reason string, mutate func(models.Item) error) (models.Item, error) {
	item, err := s.store.Get(ctx, itemType, id)
	if err != nil {
		return nil, err
	}

	if expectedVersion > 0 && item.GetVersion() != expectedVersion {
		return nil, &repository.StaleWriteError{
			ItemType:        itemType,
			ID:              id,
			ExpectedVersion: expectedVersion,
			CurrentVersion:  item.GetVersion(),
			Current:         item,
		}
	}

	// Closed records accept no core-field mutations; only the linkage
	// service may still touch them, and it does not come through here.
	if models.IsTerminal(itemType, item.GetStatus()) {
		return nil, &statemachine.TerminalStateError{
			ItemType: itemType,
			Number:   item.GetNumber(),
			Status:   item.GetStatus(),
		}
	}

	before, err := models.Clone(item)
	if err != nil {
		return nil, err
	}

	if err := mutate(item); err != nil {
		return nil, err
	}
	item.Touch(time.Now())

	return s.commit(ctx, action, actor, reason, before, item)
}

// Update applies a JSON merge patch to a record's editable fields and
// re-validates the result. Identity, status and version fields are restored
// after the merge, as are the fields only the engine's subsystems may write:
// dispositions, votes, sign-offs, 8D steps, supplier responses, closure
// stamps, linkage references and attachments. Those move only through
// Transition, the disposition service, the linkage service and the
// attachment service.
func (s *RecordService) Update(ctx context.Context, itemType models.ItemType, id uuid.UUID, patch []byte, actor string, expectedVersion int64) (models.Item, error) {
	return s.Mutate(ctx, itemType, id, expectedVersion, models.ActionUpdate, actor, "", func(item models.Item) error {
		current, err := json.Marshal(item)
		if err != nil {
			return err
		}

		snapshot, err := models.Clone(item)
		if err != nil {
			return err
		}

		merged, err := jsonpatch.MergePatch(current, patch)
		if err != nil {
			return &validation.ValidationError{
				ItemType: itemType,
				Fields:   []validation.FieldError{{Field: "body", Constraint: "merge patch"}},
			}
		}

		header := *headerOf(item)
		resetItem(item)
		if err := json.Unmarshal(merged, item); err != nil {
			return &validation.ValidationError{
				ItemType: itemType,
				Fields:   []validation.FieldError{{Field: "body", Constraint: "decodes as " + string(itemType)}},
			}
		}
		*headerOf(item) = header
		restoreEngineFields(item, snapshot)

		return s.validator.ValidateItem(item)
	})
}

// restoreEngineFields copies the engine-owned fields from the pre-merge
// snapshot back onto the merged record, so a patch cannot bypass the quorum,
// sign-off and step-order rules that govern them.
func restoreEngineFields(merged, snapshot models.Item) {
	switch record := merged.(type) {
	case *models.NCR:
		prev := snapshot.(*models.NCR)
		record.Disposition = prev.Disposition
		record.CAPANumber = prev.CAPANumber
		record.MRBNumber = prev.MRBNumber
		record.ClosedBy = prev.ClosedBy
		record.ClosedDate = prev.ClosedDate
		record.Attachments = prev.Attachments
	case *models.MRB:
		prev := snapshot.(*models.MRB)
		record.Members = prev.Members
		record.QuorumRequired = prev.QuorumRequired
		record.Disposition = prev.Disposition
		record.SourceNCRNumber = prev.SourceNCRNumber
		record.LinkedNCRNumbers = prev.LinkedNCRNumbers
		record.ClosedBy = prev.ClosedBy
		record.ClosedDate = prev.ClosedDate
		record.Attachments = prev.Attachments
	case *models.CAPA:
		prev := snapshot.(*models.CAPA)
		for _, key := range models.StepKeys {
			record.SetStep(key, prev.Step(key))
		}
		record.SourceNCRID = prev.SourceNCRID
		record.ClosedBy = prev.ClosedBy
		record.ClosedDate = prev.ClosedDate
		record.Attachments = prev.Attachments
	case *models.SCAR:
		prev := snapshot.(*models.SCAR)
		record.SupplierResponse = prev.SupplierResponse
		record.ReviewStatus = prev.ReviewStatus
		record.SourceNCRNumber = prev.SourceNCRNumber
		record.ClosedBy = prev.ClosedBy
		record.ClosedDate = prev.ClosedDate
		record.Attachments = prev.Attachments
	}
}

// resetItem zeroes the record in place so a merge result fully replaces it
func resetItem(item models.Item) {
	switch record := item.(type) {
	case *models.NCR:
		*record = models.NCR{}
	case *models.MRB:
		*record = models.MRB{}
	case *models.CAPA:
		*record = models.CAPA{}
	case *models.SCAR:
		*record = models.SCAR{}
	}
}

// commit persists an already-mutated record and records the audit entry
func (s *RecordService) commit(ctx context.Context, action, actor, reason string, before, item models.Item) (models.Item, error) {
	if err := s.store.Update(ctx, item); err != nil {
		return nil, err
	}

	if _, err := s.recorder.Record(ctx, action, actor, reason, before, item); err != nil {
		return nil, err
	}

	s.cacheSet(ctx, item)
	s.publishEvent(ctx, action, item, actor)

	return item, nil
}

func cacheKey(itemType models.ItemType, id uuid.UUID) string {
	return fmt.Sprintf("record:%s:%s", itemType, id)
}

func (s *RecordService) cacheGet(ctx context.Context, itemType models.ItemType, id uuid.UUID) models.Item {
	if s.cache == nil {
		return nil
	}

	data, found, err := s.cache.Get(ctx, cacheKey(itemType, id))
	if err != nil || !found {
		return nil
	}

	item, err := models.NewItem(itemType)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, item); err != nil {
		s.logger.Warn("failed to decode cached record", "item_type", itemType, "id", id, "error", err)
		return nil
	}
	return item
}

func (s *RecordService) cacheSet(ctx context.Context, item models.Item) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(item.GetItemType(), item.GetID()), data, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache record", "item_type", item.GetItemType(), "id", item.GetID(), "error", err)
	}
}

func (s *RecordService) publishEvent(ctx context.Context, action string, item models.Item, actor string) {
	if s.queue == nil {
		return
	}

	event := recordEvent{
		Action:   action,
		ItemType: item.GetItemType(),
		ItemID:   item.GetID(),
		Number:   item.GetNumber(),
		Status:   item.GetStatus(),
		ActorID:  actor,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.queue.Publish(ctx, recordEventTopic, item.GetID().String(), payload); err != nil {
		s.logger.Warn("failed to publish record event", "item_type", item.GetItemType(), "id", item.GetID(), "error", err)
	}
}

// headerOf exposes the embedded header for identity assignment on create
func headerOf(item models.Item) *models.RecordHeader {
	switch record := item.(type) {
	case *models.NCR:
		return &record.RecordHeader
	case *models.MRB:
		return &record.RecordHeader
	case *models.CAPA:
		return &record.RecordHeader
	case *models.SCAR:
		return &record.RecordHeader
	}
	return nil
}
