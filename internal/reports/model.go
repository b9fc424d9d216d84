package reports

import "time"

// Category names one date-partitioned entry collection.
type Category string

const (
	CategoryNotes       Category = "notes"
	CategoryChemicals   Category = "chemicals"
	CategoryMetrics     Category = "metrics"
	CategorySurvey      Category = "survey"
	CategoryEquipment   Category = "equipment"
	CategoryMaterial    Category = "material"
	CategoryAttachments Category = "attachments"
)

const (
	signedKeyPrefix = "report_signed_"
	// SelectedDateKey stores the report date the UI is currently working against.
	SelectedDateKey = "selectedDate"
)

// Categories lists every entry collection in report order.
func Categories() []Category {
	return []Category{
		CategoryNotes,
		CategoryChemicals,
		CategoryMaterial,
		CategoryMetrics,
		CategorySurvey,
		CategoryEquipment,
		CategoryAttachments,
	}
}

// Key returns the storage key of the category's collection for the day.
func (category Category) Key(dateKey DateKey) string {
	return string(category) + "_" + dateKey.String()
}

func signedKey(dateKey DateKey) string {
	return signedKeyPrefix + dateKey.String()
}

// NoteCategory classifies a note.
type NoteCategory string

const (
	NoteCategoryGeneral   NoteCategory = "general"
	NoteCategoryWeather   NoteCategory = "weather"
	NoteCategoryEquipment NoteCategory = "equipment"
	NoteCategorySafety    NoteCategory = "safety"
	NoteCategoryProgress  NoteCategory = "progress"
)

// SurveyAnswer is the answer recorded for a survey question.
type SurveyAnswer string

const (
	SurveyAnswerNotApplicable SurveyAnswer = "N/A"
	SurveyAnswerNo            SurveyAnswer = "No"
	SurveyAnswerYes           SurveyAnswer = "Yes"
	SurveyAnswerUnanswered    SurveyAnswer = ""
)

// Project references the project an entry was logged against.
type Project struct {
	Name string `json:"name"`
}

type NoteEntry struct {
	ID        string       `json:"id"`
	Project   Project      `json:"project"`
	Timestamp string       `json:"timestamp"`
	Category  NoteCategory `json:"category"`
	Notes     string       `json:"notes"`
	Photos    []string     `json:"photos,omitempty"`
}

type ChemicalUsage struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

type ChemicalEntry struct {
	ID        string          `json:"id"`
	Project   Project         `json:"project"`
	Timestamp string          `json:"timestamp"`
	Chemicals []ChemicalUsage `json:"chemicals"`
	Notes     string          `json:"notes,omitempty"`
	Photos    []string        `json:"photos,omitempty"`
}

// MetricsEntry keeps numeric values as the strings the form captured.
type MetricsEntry struct {
	ID                string   `json:"id"`
	Project           Project  `json:"project"`
	Timestamp         string   `json:"timestamp"`
	WaterUsage        string   `json:"waterUsage,omitempty"`
	AcresCompleted    string   `json:"acresCompleted,omitempty"`
	NumberOfOperators string   `json:"numberOfOperators,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	Photos            []string `json:"photos,omitempty"`
}

type SurveyQuestionEntry struct {
	ID          int          `json:"id"`
	Question    string       `json:"question"`
	Answer      SurveyAnswer `json:"answer"`
	Description string       `json:"description"`
}

type SurveyEntry struct {
	ID        string                `json:"id"`
	Project   Project               `json:"project"`
	Timestamp string                `json:"timestamp"`
	Questions []SurveyQuestionEntry `json:"questions"`
}

type MaterialEntry struct {
	ID        string   `json:"id"`
	Project   Project  `json:"project"`
	Timestamp string   `json:"timestamp"`
	Value     string   `json:"value"`
	Unit      string   `json:"unit"`
	Notes     string   `json:"notes,omitempty"`
	Photos    []string `json:"photos,omitempty"`
}

// AttachmentEntry keeps previews for image files only; other files keep their name.
type AttachmentEntry struct {
	ID        string   `json:"id"`
	Project   Project  `json:"project"`
	Timestamp string   `json:"timestamp"`
	FileNames []string `json:"fileNames"`
	Notes     string   `json:"notes,omitempty"`
	Previews  []string `json:"previews,omitempty"`
}

// SignedReportEntry marks a day's report as reviewed and signed off.
type SignedReportEntry struct {
	SignedAt         string `json:"signedAt"`
	PreparedBy       string `json:"preparedBy"`
	SignatureDataURL string `json:"signatureDataUrl"`
	ProjectName      string `json:"projectName"`
}

// ReportData is the complete snapshot of one day. Collections are never nil.
type ReportData struct {
	DateKey     DateKey            `json:"dateKey"`
	Date        time.Time          `json:"date"`
	ProjectName string             `json:"projectName"`
	Notes       []NoteEntry        `json:"notes"`
	Chemicals   []ChemicalEntry    `json:"chemicals"`
	Material    []MaterialEntry    `json:"material"`
	Metrics     []MetricsEntry     `json:"metrics"`
	Survey      []SurveyEntry      `json:"survey"`
	Equipment   EquipmentRecords   `json:"equipment"`
	Attachments []AttachmentEntry  `json:"attachments"`
	Signed      *SignedReportEntry `json:"signed"`
}

// IsSigned reports whether a signature record exists for the day.
func (report ReportData) IsSigned() bool {
	return report.Signed != nil
}

// HasData reports whether any entry was logged for the day.
func (report ReportData) HasData() bool {
	return len(report.Notes) > 0 ||
		len(report.Chemicals) > 0 ||
		len(report.Material) > 0 ||
		len(report.Metrics) > 0 ||
		len(report.Survey) > 0 ||
		len(report.Equipment) > 0 ||
		len(report.Attachments) > 0
}
