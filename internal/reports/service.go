// Package reports persists the per-day field report collections and assembles
// them into a signable daily report.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/kvstore"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/logging"
	"go.uber.org/zap"
)

// DefaultProjectName is used when neither the caller nor the configuration names a project.
const DefaultProjectName = "North Valley Solar Farm"

const (
	opServiceNew         = "reports.service.new"
	opSaveEntry          = "reports.save_entry"
	opSaveSigned         = "reports.save_signed_report"
	opSign               = "reports.sign"
	opReadCollection     = "reports.read_collection"
	opReportDate         = "reports.report_date"
	opSetReportDate      = "reports.set_report_date"
	fieldStorageKey      = "storage_key"
	fieldDateKey         = "date_key"
	fieldCategory        = "category"
	fieldElementIndex    = "element_index"
	reasonMissingStore   = "missing_store"
	reasonReadFailed     = "read_failed"
	reasonPayloadCorrupt = "payload_corrupt"
	reasonElementCorrupt = "element_corrupt"
	reasonEncodeFailed   = "encode_failed"
	reasonWriteFailed    = "write_failed"
	reasonUnavailable    = "storage_unavailable"
	reasonAlreadySigned  = "already_signed"
	reasonInvalidDate    = "invalid_date"
)

var noOpLogger = zap.NewNop()

// ServiceConfig describes the dependencies of the report store.
type ServiceConfig struct {
	Store              kvstore.Store
	Clock              func() time.Time
	Location           *time.Location
	DefaultProjectName string
	Logger             *zap.Logger
}

// Service is the Report Store.
type Service struct {
	store          kvstore.Store
	clock          func() time.Time
	location       *time.Location
	defaultProject string
	logger         *zap.Logger
}

// NewService validates the configuration and returns a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, reasonMissingStore, errMissingStore)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	defaultProject := strings.TrimSpace(cfg.DefaultProjectName)
	if defaultProject == "" {
		defaultProject = DefaultProjectName
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		store:          cfg.Store,
		clock:          clock,
		location:       location,
		defaultProject: defaultProject,
		logger:         logger,
	}, nil
}

// Now returns the current instant in the service's location.
func (service *Service) Now() time.Time {
	return service.clock().In(service.location)
}

// Location returns the location calendar days are computed in.
func (service *Service) Location() *time.Location {
	return service.location
}

// DefaultProjectName returns the project used when a caller names none.
func (service *Service) DefaultProjectName() string {
	return service.defaultProject
}

// Today returns the key of the current local calendar day.
func (service *Service) Today() DateKey {
	return GetDateKey(service.Now())
}

// ReportDate resolves the date the UI is reporting against from the persisted
// selectedDate setting, falling back to now when it is unset, unreadable or
// storage is unavailable.
func (service *Service) ReportDate(ctx context.Context) time.Time {
	raw, found, err := service.store.Get(ctx, SelectedDateKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrUnavailable) {
			service.logWarn(opReportDate, reasonReadFailed, err)
		}
		return service.Now()
	}
	if !found || strings.TrimSpace(raw) == "" {
		return service.Now()
	}
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		service.logWarn(opReportDate, reasonPayloadCorrupt, err, zap.String(fieldStorageKey, SelectedDateKey))
		return service.Now()
	}
	return parsed.In(service.location)
}

// SetReportDate persists the selected report date as an ISO 8601 string.
func (service *Service) SetReportDate(ctx context.Context, date time.Time) error {
	if date.IsZero() {
		return newServiceError(opSetReportDate, reasonInvalidDate, ErrInvalidDateKey)
	}
	err := service.store.Set(ctx, SelectedDateKey, FormatTimestamp(date))
	return service.writeOutcome(opSetReportDate, SelectedDateKey, err)
}

// SaveNotes appends a note to the day's notes collection.
func (service *Service) SaveNotes(ctx context.Context, dateKey DateKey, entry NoteEntry) error {
	return appendEntry(ctx, service, CategoryNotes, dateKey, entry)
}

// SaveChemicals appends a chemical usage entry.
func (service *Service) SaveChemicals(ctx context.Context, dateKey DateKey, entry ChemicalEntry) error {
	return appendEntry(ctx, service, CategoryChemicals, dateKey, entry)
}

// SaveMetrics appends a metrics entry.
func (service *Service) SaveMetrics(ctx context.Context, dateKey DateKey, entry MetricsEntry) error {
	return appendEntry(ctx, service, CategoryMetrics, dateKey, entry)
}

// SaveSurvey appends a completed survey.
func (service *Service) SaveSurvey(ctx context.Context, dateKey DateKey, entry SurveyEntry) error {
	return appendEntry(ctx, service, CategorySurvey, dateKey, entry)
}

// SaveEquipment appends a usage line to the day's equipment collection.
func (service *Service) SaveEquipment(ctx context.Context, dateKey DateKey, entry EquipmentEntry) error {
	return appendEntry(ctx, service, CategoryEquipment, dateKey, entry)
}

// SaveEquipmentChecklist appends a checklist into the same equipment collection
// as SaveEquipment; readers discriminate on the record kind.
func (service *Service) SaveEquipmentChecklist(ctx context.Context, dateKey DateKey, entry EquipmentChecklistEntry) error {
	return appendEntry(ctx, service, CategoryEquipment, dateKey, entry)
}

// SaveMaterial appends a material entry.
func (service *Service) SaveMaterial(ctx context.Context, dateKey DateKey, entry MaterialEntry) error {
	return appendEntry(ctx, service, CategoryMaterial, dateKey, entry)
}

// SaveAttachments appends an attachment entry.
func (service *Service) SaveAttachments(ctx context.Context, dateKey DateKey, entry AttachmentEntry) error {
	return appendEntry(ctx, service, CategoryAttachments, dateKey, entry)
}

// SaveSignedReport overwrites the day's signature record. Last write wins.
func (service *Service) SaveSignedReport(ctx context.Context, dateKey DateKey, entry SignedReportEntry) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		service.logError(opSaveSigned, reasonEncodeFailed, err, zap.String(fieldDateKey, dateKey.String()))
		return newServiceError(opSaveSigned, reasonEncodeFailed, err)
	}
	key := signedKey(dateKey)
	return service.writeOutcome(opSaveSigned, key, service.store.Set(ctx, key, string(encoded)))
}

// GetSignedReport returns the day's signature record, or nil when the day is
// unsigned or the stored record is unreadable.
func (service *Service) GetSignedReport(ctx context.Context, dateKey DateKey) *SignedReportEntry {
	var entry *SignedReportEntry
	result := service.readJSON(ctx, signedKey(dateKey), &entry)
	if result.state != readPresent {
		return nil
	}
	return entry
}

// Sign records the first signature for the day and refuses later ones with
// ErrAlreadySigned. A blank SignedAt is stamped from the clock.
func (service *Service) Sign(ctx context.Context, dateKey DateKey, entry SignedReportEntry) (SignedReportEntry, error) {
	if strings.TrimSpace(entry.SignedAt) == "" {
		entry.SignedAt = FormatTimestamp(service.clock())
	}
	if strings.TrimSpace(entry.ProjectName) == "" {
		entry.ProjectName = service.defaultProject
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		service.logError(opSign, reasonEncodeFailed, err, zap.String(fieldDateKey, dateKey.String()))
		return SignedReportEntry{}, newServiceError(opSign, reasonEncodeFailed, err)
	}

	key := signedKey(dateKey)
	err = service.store.Update(ctx, key, func(current string, found bool) (string, error) {
		if found && isSignedPayload(current) {
			return "", ErrAlreadySigned
		}
		return string(encoded), nil
	})
	if errors.Is(err, ErrAlreadySigned) {
		return SignedReportEntry{}, newServiceError(opSign, reasonAlreadySigned, err)
	}
	if err := service.writeOutcome(opSign, key, err); err != nil {
		return SignedReportEntry{}, err
	}
	return entry, nil
}

// GetReportForDate assembles every collection for date's calendar day. It never
// fails: an absent or corrupt collection is returned empty. A blank projectName
// falls back to the configured default.
func (service *Service) GetReportForDate(ctx context.Context, date time.Time, projectName string) ReportData {
	dateKey := GetDateKey(date)
	if strings.TrimSpace(projectName) == "" {
		projectName = service.defaultProject
	}
	return ReportData{
		DateKey:     dateKey,
		Date:        date,
		ProjectName: projectName,
		Notes:       readList[NoteEntry](ctx, service, CategoryNotes.Key(dateKey)),
		Chemicals:   readList[ChemicalEntry](ctx, service, CategoryChemicals.Key(dateKey)),
		Material:    readList[MaterialEntry](ctx, service, CategoryMaterial.Key(dateKey)),
		Metrics:     readList[MetricsEntry](ctx, service, CategoryMetrics.Key(dateKey)),
		Survey:      readList[SurveyEntry](ctx, service, CategorySurvey.Key(dateKey)),
		Equipment:   readEquipment(ctx, service, CategoryEquipment.Key(dateKey)),
		Attachments: readList[AttachmentEntry](ctx, service, CategoryAttachments.Key(dateKey)),
		Signed:      service.GetSignedReport(ctx, dateKey),
	}
}

// GetReportForDateKey is GetReportForDate for the local midnight of dateKey.
func (service *Service) GetReportForDateKey(ctx context.Context, dateKey DateKey, projectName string) ReportData {
	return service.GetReportForDate(ctx, dateKey.Time(service.location), projectName)
}

// appendEntry adds one element to the array stored under the category key.
// Existing elements are kept verbatim; an unreadable array is replaced.
func appendEntry[T any](ctx context.Context, service *Service, category Category, dateKey DateKey, entry T) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		service.logError(opSaveEntry, reasonEncodeFailed, err,
			zap.String(fieldCategory, string(category)),
			zap.String(fieldDateKey, dateKey.String()))
		return newServiceError(opSaveEntry, reasonEncodeFailed, err)
	}

	key := category.Key(dateKey)
	err = service.store.Update(ctx, key, func(current string, found bool) (string, error) {
		var items []json.RawMessage
		if found && current != "" {
			if decodeErr := json.Unmarshal([]byte(current), &items); decodeErr != nil {
				service.logWarn(opSaveEntry, reasonPayloadCorrupt, decodeErr, zap.String(fieldStorageKey, key))
				items = nil
			}
		}
		items = append(items, encoded)
		next, marshalErr := json.Marshal(items)
		if marshalErr != nil {
			return "", marshalErr
		}
		return string(next), nil
	})
	return service.writeOutcome(opSaveEntry, key, err)
}

// writeOutcome turns a backend write error into the service contract:
// unavailable storage is a logged no-op, anything else a ServiceError.
func (service *Service) writeOutcome(operation, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kvstore.ErrUnavailable) {
		service.logWarn(operation, reasonUnavailable, err, zap.String(fieldStorageKey, key))
		return nil
	}
	service.logError(operation, reasonWriteFailed, err, zap.String(fieldStorageKey, key))
	return newServiceError(operation, reasonWriteFailed, err)
}

func isSignedPayload(raw string) bool {
	var entry *SignedReportEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return false
	}
	return entry != nil
}

func (service *Service) loggerOrDefault() *zap.Logger {
	if service == nil || service.logger == nil {
		return noOpLogger
	}
	return service.logger
}

func (service *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	service.loggerOrDefault().Error("reports service error", logging.OperationFields(operation, reason, err, fields...)...)
}

func (service *Service) logWarn(operation, reason string, err error, fields ...zap.Field) {
	service.loggerOrDefault().Warn("reports service degraded", logging.OperationFields(operation, reason, err, fields...)...)
}
