package reports

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EquipmentKind discriminates the two shapes stored in an equipment collection.
type EquipmentKind string

const (
	EquipmentKindUsage     EquipmentKind = "usage"
	EquipmentKindChecklist EquipmentKind = "checklist"
)

// ErrInvalidEquipmentRecord indicates an equipment collection element that is not a JSON object.
var ErrInvalidEquipmentRecord = errors.New("reports: invalid equipment record")

// EquipmentRecord is one element of an equipment collection. It is implemented
// only by EquipmentEntry and EquipmentChecklistEntry.
type EquipmentRecord interface {
	Kind() EquipmentKind
	EntryID() string
	EntryTimestamp() string
	sealedEquipmentRecord()
}

// EquipmentVisitor handles each equipment variant. Implementations must cover both.
type EquipmentVisitor interface {
	VisitUsage(entry EquipmentEntry)
	VisitChecklist(entry EquipmentChecklistEntry)
}

// VisitEquipment dispatches record to the matching visitor method.
func VisitEquipment(record EquipmentRecord, visitor EquipmentVisitor) {
	switch typed := record.(type) {
	case EquipmentEntry:
		visitor.VisitUsage(typed)
	case *EquipmentEntry:
		visitor.VisitUsage(*typed)
	case EquipmentChecklistEntry:
		visitor.VisitChecklist(typed)
	case *EquipmentChecklistEntry:
		visitor.VisitChecklist(*typed)
	}
}

// EquipmentEntry is a generic hours/usage log line.
type EquipmentEntry struct {
	ID        string   `json:"id"`
	Project   Project  `json:"project"`
	Timestamp string   `json:"timestamp"`
	Value     string   `json:"value,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Photos    []string `json:"photos,omitempty"`
}

func (EquipmentEntry) Kind() EquipmentKind { return EquipmentKindUsage }
func (entry EquipmentEntry) EntryID() string { return entry.ID }
func (entry EquipmentEntry) EntryTimestamp() string { return entry.Timestamp }
func (EquipmentEntry) sealedEquipmentRecord() {}

// EquipmentChecklistEntry is a completed daily equipment checklist. FormData maps
// field names (machine number, VIN, operator, fluid levels) to the captured values.
type EquipmentChecklistEntry struct {
	ID        string            `json:"id"`
	Timestamp string            `json:"timestamp"`
	FormData  map[string]string `json:"formData"`
	Signature string            `json:"signature,omitempty"`
	Photos    []string          `json:"photos,omitempty"`
}

func (EquipmentChecklistEntry) Kind() EquipmentKind { return EquipmentKindChecklist }
func (entry EquipmentChecklistEntry) EntryID() string { return entry.ID }
func (entry EquipmentChecklistEntry) EntryTimestamp() string { return entry.Timestamp }
func (EquipmentChecklistEntry) sealedEquipmentRecord() {}

type checklistWire struct {
	ID        string            `json:"id"`
	Type      EquipmentKind     `json:"type"`
	Timestamp string            `json:"timestamp"`
	FormData  map[string]string `json:"formData"`
	Signature string            `json:"signature,omitempty"`
	Photos    []string          `json:"photos,omitempty"`
}

// MarshalJSON writes the "type":"checklist" discriminant alongside the fields.
func (entry EquipmentChecklistEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(checklistWire{
		ID:        entry.ID,
		Type:      EquipmentKindChecklist,
		Timestamp: entry.Timestamp,
		FormData:  entry.FormData,
		Signature: entry.Signature,
		Photos:    entry.Photos,
	})
}

// EquipmentRecords is an equipment collection in insertion order.
type EquipmentRecords []EquipmentRecord

// UnmarshalJSON decodes each element by its "type" field: "checklist" selects
// EquipmentChecklistEntry, anything else an EquipmentEntry.
func (records *EquipmentRecords) UnmarshalJSON(data []byte) error {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(data, &rawItems); err != nil {
		return err
	}
	if rawItems == nil {
		*records = nil
		return nil
	}
	decoded := make(EquipmentRecords, 0, len(rawItems))
	for index, rawItem := range rawItems {
		record, err := decodeEquipmentRecord(rawItem)
		if err != nil {
			return fmt.Errorf("%w: element %d: %v", ErrInvalidEquipmentRecord, index, err)
		}
		decoded = append(decoded, record)
	}
	*records = decoded
	return nil
}

func decodeEquipmentRecord(rawItem json.RawMessage) (EquipmentRecord, error) {
	if isJSONNull(rawItem) {
		return nil, errNullElement
	}
	var header struct {
		Type EquipmentKind `json:"type"`
	}
	if err := json.Unmarshal(rawItem, &header); err != nil {
		return nil, err
	}
	if header.Type == EquipmentKindChecklist {
		var checklist EquipmentChecklistEntry
		if err := json.Unmarshal(rawItem, &checklist); err != nil {
			return nil, err
		}
		return checklist, nil
	}
	var usage EquipmentEntry
	if err := json.Unmarshal(rawItem, &usage); err != nil {
		return nil, err
	}
	return usage, nil
}
