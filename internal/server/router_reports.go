package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/reports"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// entryStamp carries the values filled into a submitted entry that left them blank.
type entryStamp struct {
	id        string
	timestamp string
	project   string
}

func (stamp entryStamp) fill(id, timestamp *string, project *reports.Project) {
	if strings.TrimSpace(*id) == "" {
		*id = stamp.id
	}
	if strings.TrimSpace(*timestamp) == "" {
		*timestamp = stamp.timestamp
	}
	if project != nil && strings.TrimSpace(project.Name) == "" {
		project.Name = stamp.project
	}
}

func stampNote(entry *reports.NoteEntry, stamp entryStamp) {
	stamp.fill(&entry.ID, &entry.Timestamp, &entry.Project)
}

func stampChemical(entry *reports.ChemicalEntry, stamp entryStamp) {
	stamp.fill(&entry.ID, &entry.Timestamp, &entry.Project)
}

func stampMetrics(entry *reports.MetricsEntry, stamp entryStamp) {
	stamp.fill(&entry.ID, &entry.Timestamp, &entry.Project)
}

func stampSurvey(entry *reports.SurveyEntry, stamp entryStamp) {
	stamp.fill(&entry.ID, &entry.Timestamp, &entry.Project)
}

func stampEquipment(entry *reports.EquipmentEntry, stamp entryStamp) {
	stamp.fill(&entry.ID, &entry.Timestamp, &entry.Project)
}

func stampChecklist(entry *reports.EquipmentChecklistEntry, stamp entryStamp) {
	stamp.fill(&entry.ID, &entry.Timestamp, nil)
}

func stampMaterial(entry *reports.MaterialEntry, stamp entryStamp) {
	stamp.fill(&entry.ID, &entry.Timestamp, &entry.Project)
}

func stampAttachment(entry *reports.AttachmentEntry, stamp entryStamp) {
	stamp.fill(&entry.ID, &entry.Timestamp, &entry.Project)
}

func (h *httpHandler) newEntryStamp() (entryStamp, error) {
	id, err := h.ids.NewID()
	if err != nil {
		return entryStamp{}, err
	}
	return entryStamp{
		id:        id,
		timestamp: reports.FormatTimestamp(h.reports.Now()),
		project:   h.reports.DefaultProjectName(),
	}, nil
}

// saveEntryHandler binds one entry of type T, fills its blank id, timestamp and
// project, and appends it to the day's collection.
func saveEntryHandler[T any](h *httpHandler, category reports.Category, stamp func(*T, entryStamp), save func(context.Context, reports.DateKey, T) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		dateKey, ok := h.parseDate(c)
		if !ok {
			return
		}
		var entry T
		if err := c.ShouldBindJSON(&entry); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
			return
		}
		defaults, err := h.newEntryStamp()
		if err != nil {
			h.logger.Error("failed to generate entry id", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": errorIDGeneration})
			return
		}
		stamp(&entry, defaults)
		if err := save(c.Request.Context(), dateKey, entry); err != nil {
			h.respondServiceError(c, err)
			return
		}
		h.publish(RealtimeMessage{
			Topic:     RealtimeTopicReports,
			EventType: RealtimeEventReportChanged,
			DateKey:   dateKey.String(),
			Category:  string(category),
		})
		c.JSON(http.StatusCreated, entry)
	}
}

type reportResponsePayload struct {
	reports.ReportData
	DateLabel string `json:"dateLabel"`
	HasData   bool   `json:"hasData"`
}

func (h *httpHandler) handleGetReport(c *gin.Context) {
	dateKey, ok := h.parseDate(c)
	if !ok {
		return
	}
	report := h.reports.GetReportForDateKey(c.Request.Context(), dateKey, c.Query("project"))
	c.JSON(http.StatusOK, reportResponsePayload{
		ReportData: report,
		DateLabel:  reports.FormatDateLabel(report.Date),
		HasData:    report.HasData(),
	})
}

type photosResponsePayload struct {
	DateKey reports.DateKey `json:"dateKey"`
	Photos  []reports.Photo `json:"photos"`
}

func (h *httpHandler) handleGetPhotos(c *gin.Context) {
	dateKey, ok := h.parseDate(c)
	if !ok {
		return
	}
	report := h.reports.GetReportForDateKey(c.Request.Context(), dateKey, "")
	c.JSON(http.StatusOK, photosResponsePayload{DateKey: dateKey, Photos: report.Photos()})
}

func (h *httpHandler) handleGetSignature(c *gin.Context) {
	dateKey, ok := h.parseDate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.reports.GetSignedReport(c.Request.Context(), dateKey))
}

func (h *httpHandler) handleSign(c *gin.Context) {
	dateKey, ok := h.parseDate(c)
	if !ok {
		return
	}
	var entry reports.SignedReportEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
		return
	}
	signed, err := h.reports.Sign(c.Request.Context(), dateKey, entry)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.publishSignature(dateKey)
	c.JSON(http.StatusCreated, signed)
}

// handleOverwriteSignature replaces the day's signature record unconditionally.
func (h *httpHandler) handleOverwriteSignature(c *gin.Context) {
	dateKey, ok := h.parseDate(c)
	if !ok {
		return
	}
	var entry reports.SignedReportEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
		return
	}
	if err := h.reports.SaveSignedReport(c.Request.Context(), dateKey, entry); err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.publishSignature(dateKey)
	c.JSON(http.StatusOK, entry)
}

func (h *httpHandler) publishSignature(dateKey reports.DateKey) {
	h.publish(RealtimeMessage{
		Topic:     RealtimeTopicReports,
		EventType: RealtimeEventReportChanged,
		DateKey:   dateKey.String(),
		Category:  "signature",
	})
}

type calendarResponsePayload struct {
	Year  int                    `json:"year"`
	Month int                    `json:"month"`
	Today reports.DateKey        `json:"today"`
	Days  []reports.DayIndicator `json:"days"`
}

func (h *httpHandler) handleCalendar(c *gin.Context) {
	year, yearErr := strconv.Atoi(c.Param("year"))
	month, monthErr := strconv.Atoi(c.Param("month"))
	if yearErr != nil || monthErr != nil || year < 1 || year > 9999 || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidDate})
		return
	}
	now := h.reports.Now()
	c.JSON(http.StatusOK, calendarResponsePayload{
		Year:  year,
		Month: month,
		Today: reports.GetDateKey(now),
		Days:  h.reports.MonthStatuses(c.Request.Context(), year, time.Month(month), now),
	})
}

type selectedDateRequestPayload struct {
	SelectedDate string `json:"selectedDate"`
	DateKey      string `json:"dateKey"`
}

type selectedDateResponsePayload struct {
	SelectedDate string          `json:"selectedDate"`
	DateKey      reports.DateKey `json:"dateKey"`
	Label        string          `json:"label"`
}

func newSelectedDateResponse(date time.Time) selectedDateResponsePayload {
	return selectedDateResponsePayload{
		SelectedDate: reports.FormatTimestamp(date),
		DateKey:      reports.GetDateKey(date),
		Label:        reports.FormatDateLabel(date),
	}
}

func (h *httpHandler) handleGetSelectedDate(c *gin.Context) {
	c.JSON(http.StatusOK, newSelectedDateResponse(h.reports.ReportDate(c.Request.Context())))
}

func (h *httpHandler) handlePutSelectedDate(c *gin.Context) {
	var request selectedDateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
		return
	}
	date, ok := h.resolveSelectedDate(request)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidDate})
		return
	}
	if err := h.reports.SetReportDate(c.Request.Context(), date); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSelectedDateResponse(date.In(h.reports.Location())))
}

func (h *httpHandler) resolveSelectedDate(request selectedDateRequestPayload) (time.Time, bool) {
	if strings.TrimSpace(request.DateKey) != "" {
		dateKey, err := reports.ParseDateKey(request.DateKey)
		if err != nil {
			return time.Time{}, false
		}
		return dateKey.Time(h.reports.Location()), true
	}
	if strings.TrimSpace(request.SelectedDate) == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(request.SelectedDate))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
