// Package safety stores scheduled and conducted safety talks as a single flat
// list, independent of the report date key space.
package safety

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/kvstore"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/logging"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/reports"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/svcerr"
	"go.uber.org/zap"
)

// StorageKey is the key the talk list is persisted under.
const StorageKey = "safety_talks"

const (
	opServiceNew         = "safety.service.new"
	opList               = "safety.list"
	opAdd                = "safety.add"
	opUpdate             = "safety.update"
	opDelete             = "safety.delete"
	opMarkConducted      = "safety.mark_conducted"
	fieldStorageKey      = "storage_key"
	fieldTalkID          = "talk_id"
	reasonMissingStore   = "missing_store"
	reasonIDGeneration   = "id_generation_failed"
	reasonReadFailed     = "read_failed"
	reasonPayloadCorrupt = "payload_corrupt"
	reasonWriteFailed    = "write_failed"
	reasonUnavailable    = "storage_unavailable"
)

var (
	errMissingStore = errors.New("key-value store is required")
	errTalkNotFound = errors.New("safety: talk not found")
	noOpLogger      = zap.NewNop()
)

// ServiceError is the coded error returned by the safety talk store.
type ServiceError = svcerr.ServiceError

// ServiceConfig describes the dependencies of the safety talk store.
type ServiceConfig struct {
	Store      kvstore.Store
	Clock      func() time.Time
	Location   *time.Location
	IDProvider reports.IDProvider
	Logger     *zap.Logger
}

// Service is the Safety Talk Store.
type Service struct {
	store      kvstore.Store
	clock      func() time.Time
	location   *time.Location
	idProvider reports.IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and returns a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, svcerr.New(opServiceNew, reasonMissingStore, errMissingStore)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	idProvider := cfg.IDProvider
	if idProvider == nil {
		idProvider = reports.NewUUIDProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		store:      cfg.Store,
		clock:      clock,
		location:   location,
		idProvider: idProvider,
		logger:     logger,
	}, nil
}

// Today returns the key of the current local calendar day.
func (service *Service) Today() reports.DateKey {
	return reports.GetDateKey(service.clock().In(service.location))
}

// List returns every stored talk in stored order. It never fails.
func (service *Service) List(ctx context.Context) []Talk {
	raw, found, err := service.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrUnavailable) {
			service.logWarn(opList, reasonReadFailed, err)
		}
		return []Talk{}
	}
	if !found || raw == "" {
		return []Talk{}
	}
	talks, err := decodeTalks(raw)
	if err != nil {
		service.logWarn(opList, reasonPayloadCorrupt, err)
		return []Talk{}
	}
	return talks
}

// GetByID looks up a talk by id.
func (service *Service) GetByID(ctx context.Context, id string) (Talk, bool) {
	for _, talk := range service.List(ctx) {
		if talk.ID == id {
			return talk, true
		}
	}
	return Talk{}, false
}

// Grouped classifies the stored talks against today.
func (service *Service) Grouped(ctx context.Context) Grouped {
	return Group(service.List(ctx), service.Today())
}

// Add schedules a new upcoming talk. The date key is stored as given.
func (service *Service) Add(ctx context.Context, dateKey reports.DateKey, templateID, templateName string) (Talk, error) {
	id, err := service.idProvider.NewID()
	if err != nil {
		service.logError(opAdd, reasonIDGeneration, err)
		return Talk{}, svcerr.New(opAdd, reasonIDGeneration, err)
	}
	talk := Talk{
		ID:           id,
		TemplateID:   templateID,
		TemplateName: templateName,
		Date:         dateKey,
		Status:       StatusUpcoming,
		CreatedAt:    reports.FormatTimestamp(service.clock()),
	}
	err = service.mutate(ctx, func(talks []Talk) ([]Talk, error) {
		return append(talks, talk), nil
	})
	if err := service.writeOutcome(opAdd, talk.ID, err); err != nil {
		return Talk{}, err
	}
	return talk, nil
}

// Update reschedules an existing talk in place. An unknown id is a no-op.
func (service *Service) Update(ctx context.Context, id string, dateKey reports.DateKey, templateID, templateName string) error {
	err := service.mutate(ctx, func(talks []Talk) ([]Talk, error) {
		index := indexOf(talks, id)
		if index < 0 {
			return nil, errTalkNotFound
		}
		talks[index].Date = dateKey
		talks[index].TemplateID = templateID
		talks[index].TemplateName = templateName
		return talks, nil
	})
	return service.writeOutcome(opUpdate, id, err)
}

// Delete removes a talk. An unknown id is a no-op.
func (service *Service) Delete(ctx context.Context, id string) error {
	err := service.mutate(ctx, func(talks []Talk) ([]Talk, error) {
		index := indexOf(talks, id)
		if index < 0 {
			return nil, errTalkNotFound
		}
		return append(talks[:index], talks[index+1:]...), nil
	})
	return service.writeOutcome(opDelete, id, err)
}

// MarkConducted records that the talk took place. An unknown id is a no-op.
func (service *Service) MarkConducted(ctx context.Context, id string) error {
	err := service.mutate(ctx, func(talks []Talk) ([]Talk, error) {
		index := indexOf(talks, id)
		if index < 0 {
			return nil, errTalkNotFound
		}
		talks[index].Status = StatusConducted
		return talks, nil
	})
	return service.writeOutcome(opMarkConducted, id, err)
}

// mutate applies fn to the stored list as a single read-modify-write step.
// An unreadable list is treated as empty.
func (service *Service) mutate(ctx context.Context, fn func([]Talk) ([]Talk, error)) error {
	return service.store.Update(ctx, StorageKey, func(current string, found bool) (string, error) {
		talks := []Talk{}
		if found && current != "" {
			decoded, err := decodeTalks(current)
			if err != nil {
				service.logWarn(opList, reasonPayloadCorrupt, err)
			} else {
				talks = decoded
			}
		}
		next, err := fn(talks)
		if err != nil {
			return "", err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	})
}

func (service *Service) writeOutcome(operation, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errTalkNotFound):
		service.loggerOrDefault().Debug("safety talk not found", zap.String("operation", operation), zap.String(fieldTalkID, id))
		return nil
	case errors.Is(err, kvstore.ErrUnavailable):
		service.logWarn(operation, reasonUnavailable, err, zap.String(fieldTalkID, id))
		return nil
	default:
		service.logError(operation, reasonWriteFailed, err, zap.String(fieldTalkID, id))
		return svcerr.New(operation, reasonWriteFailed, err)
	}
}

func decodeTalks(raw string) ([]Talk, error) {
	var talks []Talk
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &talks); err != nil {
		return nil, err
	}
	if talks == nil {
		return []Talk{}, nil
	}
	return talks, nil
}

func indexOf(talks []Talk, id string) int {
	for index := range talks {
		if talks[index].ID == id {
			return index
		}
	}
	return -1
}

func (service *Service) loggerOrDefault() *zap.Logger {
	if service == nil || service.logger == nil {
		return noOpLogger
	}
	return service.logger
}

func (service *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	service.loggerOrDefault().Error("safety service error", logging.OperationFields(operation, reason, err, append(fields, zap.String(fieldStorageKey, StorageKey))...)...)
}

func (service *Service) logWarn(operation, reason string, err error, fields ...zap.Field) {
	service.loggerOrDefault().Warn("safety service degraded", logging.OperationFields(operation, reason, err, append(fields, zap.String(fieldStorageKey, StorageKey))...)...)
}
