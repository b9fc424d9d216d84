package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/kvstore"
	"go.uber.org/zap"
)

// readState distinguishes why a stored payload did or did not yield data.
// Callers only ever see the decoded value; the state feeds logging.
type readState int

const (
	readAbsent readState = iota
	readPresent
	readCorrupt
	readUnavailable
)

func (state readState) String() string {
	switch state {
	case readPresent:
		return "present"
	case readCorrupt:
		return "corrupt"
	case readUnavailable:
		return "unavailable"
	default:
		return "absent"
	}
}

type readResult struct {
	state readState
	err   error
}

// readJSON decodes the value stored under key into target.
func (service *Service) readJSON(ctx context.Context, key string, target any) readResult {
	raw, found, err := service.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrUnavailable) {
			return readResult{state: readUnavailable, err: err}
		}
		service.logWarn(opReadCollection, reasonReadFailed, err, zap.String(fieldStorageKey, key))
		return readResult{state: readCorrupt, err: err}
	}
	if !found || raw == "" {
		return readResult{state: readAbsent}
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		service.logWarn(opReadCollection, reasonPayloadCorrupt, err, zap.String(fieldStorageKey, key))
		return readResult{state: readCorrupt, err: err}
	}
	return readResult{state: readPresent}
}

// readList returns the collection stored under key, or an empty slice when the
// payload is absent, unreadable or not an array. Elements that do not decode as
// T are skipped so that later appends stay visible.
func readList[T any](ctx context.Context, service *Service, key string) []T {
	rawItems, ok := readElements(ctx, service, key)
	if !ok {
		return []T{}
	}
	items := make([]T, 0, len(rawItems))
	for index, rawItem := range rawItems {
		var item T
		err := errNullElement
		if !isJSONNull(rawItem) {
			err = json.Unmarshal(rawItem, &item)
		}
		if err != nil {
			service.logWarn(opReadCollection, reasonElementCorrupt, err,
				zap.String(fieldStorageKey, key),
				zap.Int(fieldElementIndex, index))
			continue
		}
		items = append(items, item)
	}
	return items
}

func readEquipment(ctx context.Context, service *Service, key string) EquipmentRecords {
	rawItems, ok := readElements(ctx, service, key)
	if !ok {
		return EquipmentRecords{}
	}
	records := make(EquipmentRecords, 0, len(rawItems))
	for index, rawItem := range rawItems {
		record, err := decodeEquipmentRecord(rawItem)
		if err != nil {
			service.logWarn(opReadCollection, reasonElementCorrupt, err,
				zap.String(fieldStorageKey, key),
				zap.Int(fieldElementIndex, index))
			continue
		}
		records = append(records, record)
	}
	return records
}

// readElements splits the array stored under key into undecoded elements.
func readElements(ctx context.Context, service *Service, key string) ([]json.RawMessage, bool) {
	var rawItems []json.RawMessage
	result := service.readJSON(ctx, key, &rawItems)
	if result.state != readPresent {
		return nil, false
	}
	return rawItems, true
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
