package reports

// PhotoSource says which part of an entry an image came from.
type PhotoSource string

const (
	PhotoSourcePhoto     PhotoSource = "photo"
	PhotoSourcePreview   PhotoSource = "preview"
	PhotoSourceSignature PhotoSource = "signature"
)

// Photo is one image referenced by a day's report.
type Photo struct {
	Category  Category    `json:"category"`
	EntryID   string      `json:"entryId"`
	Timestamp string      `json:"timestamp"`
	Source    PhotoSource `json:"source"`
	DataURL   string      `json:"dataUrl"`
}

// Photos collects every image data URL of the report in report category order,
// then insertion order within a category. Attachment previews and checklist
// signatures are included.
func (report ReportData) Photos() []Photo {
	collector := &photoCollector{photos: []Photo{}}
	for _, entry := range report.Notes {
		collector.add(CategoryNotes, entry.ID, entry.Timestamp, PhotoSourcePhoto, entry.Photos...)
	}
	for _, entry := range report.Chemicals {
		collector.add(CategoryChemicals, entry.ID, entry.Timestamp, PhotoSourcePhoto, entry.Photos...)
	}
	for _, entry := range report.Material {
		collector.add(CategoryMaterial, entry.ID, entry.Timestamp, PhotoSourcePhoto, entry.Photos...)
	}
	for _, entry := range report.Metrics {
		collector.add(CategoryMetrics, entry.ID, entry.Timestamp, PhotoSourcePhoto, entry.Photos...)
	}
	for _, record := range report.Equipment {
		VisitEquipment(record, collector)
	}
	for _, entry := range report.Attachments {
		collector.add(CategoryAttachments, entry.ID, entry.Timestamp, PhotoSourcePreview, entry.Previews...)
	}
	return collector.photos
}

type photoCollector struct {
	photos []Photo
}

func (collector *photoCollector) add(category Category, entryID, timestamp string, source PhotoSource, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		collector.photos = append(collector.photos, Photo{
			Category:  category,
			EntryID:   entryID,
			Timestamp: timestamp,
			Source:    source,
			DataURL:   url,
		})
	}
}

func (collector *photoCollector) VisitUsage(entry EquipmentEntry) {
	collector.add(CategoryEquipment, entry.ID, entry.Timestamp, PhotoSourcePhoto, entry.Photos...)
}

func (collector *photoCollector) VisitChecklist(entry EquipmentChecklistEntry) {
	collector.add(CategoryEquipment, entry.ID, entry.Timestamp, PhotoSourcePhoto, entry.Photos...)
	collector.add(CategoryEquipment, entry.ID, entry.Timestamp, PhotoSourceSignature, entry.Signature)
}
