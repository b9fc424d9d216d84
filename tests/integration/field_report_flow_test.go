package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/database"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/kvstore"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/reports"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/safety"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/server"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	jsonContentType = "application/json"
	reportDateKey   = "2026-02-05"
)

var siteLocation = time.FixedZone("site", -7*60*60)

func siteClock() time.Time {
	return time.Date(2026, time.February, 10, 9, 30, 0, 0, siteLocation)
}

func startServer(testContext *testing.T, databasePath string) *httptest.Server {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		testContext.Fatalf("failed to access sql handle: %v", err)
	}
	store := kvstore.NewSQLiteStore(db, siteClock)

	reportService, err := reports.NewService(reports.ServiceConfig{
		Store:    store,
		Clock:    siteClock,
		Location: siteLocation,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build report service: %v", err)
	}
	safetyService, err := safety.NewService(safety.ServiceConfig{
		Store:    store,
		Clock:    siteClock,
		Location: siteLocation,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build safety service: %v", err)
	}
	handler, err := server.NewHTTPHandler(server.Dependencies{
		ReportService: reportService,
		SafetyService: safetyService,
		Logger:        zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build handler: %v", err)
	}

	testServer := httptest.NewServer(handler)
	testContext.Cleanup(func() {
		testServer.Close()
		_ = sqlDB.Close()
	})
	return testServer
}

func send(testContext *testing.T, method, url string, body any, wantStatus int, target any) {
	testContext.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			testContext.Fatalf("failed to encode body: %v", err)
		}
	}
	request, err := http.NewRequest(method, url, &payload)
	if err != nil {
		testContext.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", jsonContentType)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		testContext.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer response.Body.Close()
	if response.StatusCode != wantStatus {
		testContext.Fatalf("%s %s: expected status %d, got %d", method, url, wantStatus, response.StatusCode)
	}
	if target != nil {
		if err := json.NewDecoder(response.Body).Decode(target); err != nil {
			testContext.Fatalf("failed to decode response: %v", err)
		}
	}
}

type reportView struct {
	DateKey     string                     `json:"dateKey"`
	HasData     bool                       `json:"hasData"`
	Notes       []reports.NoteEntry        `json:"notes"`
	Material    []reports.MaterialEntry    `json:"material"`
	Equipment   []map[string]any           `json:"equipment"`
	Attachments []reports.AttachmentEntry  `json:"attachments"`
	Signed      *reports.SignedReportEntry `json:"signed"`
}

func TestFieldReportFlowSurvivesRestart(testContext *testing.T) {
	databasePath := filepath.Join(testContext.TempDir(), "fieldreport.db")
	first := startServer(testContext, databasePath)
	reportURL := first.URL + "/reports/" + reportDateKey

	send(testContext, http.MethodPost, reportURL+"/notes", map[string]any{"category": "safety", "notes": "Tailgate meeting held"}, http.StatusCreated, nil)
	send(testContext, http.MethodPost, reportURL+"/material", map[string]any{"value": "12", "unit": "pallets"}, http.StatusCreated, nil)
	send(testContext, http.MethodPost, reportURL+"/equipment", map[string]any{"value": "6", "unit": "hours"}, http.StatusCreated, nil)
	send(testContext, http.MethodPost, reportURL+"/equipment-checklist", map[string]any{"formData": map[string]string{"operator": "Lee"}}, http.StatusCreated, nil)
	send(testContext, http.MethodPost, reportURL+"/attachments", map[string]any{"fileNames": []string{"layout.pdf"}}, http.StatusCreated, nil)
	send(testContext, http.MethodPost, reportURL+"/signature", map[string]any{"preparedBy": "Dana", "signatureDataUrl": "data:image/png;base64,AA"}, http.StatusCreated, nil)
	send(testContext, http.MethodPost, reportURL+"/signature", map[string]any{"preparedBy": "Sam"}, http.StatusConflict, nil)

	var talk struct {
		ID  string `json:"id"`
		Tab string `json:"tab"`
	}
	send(testContext, http.MethodPost, first.URL+"/safety/talks", map[string]any{"date": "2026-02-01", "templateId": "ppe", "templateName": "PPE Talk"}, http.StatusCreated, &talk)
	if talk.ID == "" || talk.Tab != string(safety.TabMissed) {
		testContext.Fatalf("unexpected talk %#v", talk)
	}
	send(testContext, http.MethodPut, first.URL+"/settings/selected-date", map[string]any{"dateKey": reportDateKey}, http.StatusOK, nil)
	first.Close()

	second := startServer(testContext, databasePath)

	var report reportView
	send(testContext, http.MethodGet, second.URL+"/reports/"+reportDateKey, nil, http.StatusOK, &report)
	if report.DateKey != reportDateKey || !report.HasData {
		testContext.Fatalf("unexpected report %#v", report)
	}
	if len(report.Notes) != 1 || len(report.Material) != 1 || len(report.Attachments) != 1 {
		testContext.Fatalf("unexpected collections %#v", report)
	}
	if len(report.Equipment) != 2 || report.Equipment[1]["type"] != "checklist" {
		testContext.Fatalf("unexpected equipment %#v", report.Equipment)
	}
	if report.Signed == nil || report.Signed.PreparedBy != "Dana" {
		testContext.Fatalf("expected first signature to persist, got %#v", report.Signed)
	}

	var calendar struct {
		Days []reports.DayIndicator `json:"days"`
	}
	send(testContext, http.MethodGet, second.URL+"/calendar/2026/2", nil, http.StatusOK, &calendar)
	if calendar.Days[4].Status != reports.DayStatusSigned {
		testContext.Fatalf("expected Feb 5 to be signed, got %s", calendar.Days[4].Status)
	}

	var selected struct {
		DateKey string `json:"dateKey"`
	}
	send(testContext, http.MethodGet, second.URL+"/settings/selected-date", nil, http.StatusOK, &selected)
	if selected.DateKey != reportDateKey {
		testContext.Fatalf("expected persisted selected date, got %q", selected.DateKey)
	}

	send(testContext, http.MethodPost, second.URL+"/safety/talks/"+talk.ID+"/conducted", nil, http.StatusOK, &talk)
	if talk.Tab != string(safety.TabCompleted) {
		testContext.Fatalf("expected completed talk, got %#v", talk)
	}
	send(testContext, http.MethodDelete, second.URL+"/safety/talks/"+talk.ID, nil, http.StatusNoContent, nil)

	var listing struct {
		Talks []any `json:"talks"`
	}
	send(testContext, http.MethodGet, second.URL+"/safety/talks", nil, http.StatusOK, &listing)
	if len(listing.Talks) != 0 {
		testContext.Fatalf("expected no talks, got %#v", listing.Talks)
	}
}
