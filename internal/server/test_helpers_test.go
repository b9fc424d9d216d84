package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/kvstore"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/reports"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/safety"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var siteLocation = time.FixedZone("site", -7*60*60)

type sequenceIDProvider struct {
	prefix string
	next   int
}

func (provider *sequenceIDProvider) NewID() (string, error) {
	provider.next++
	return fmt.Sprintf("%s-%d", provider.prefix, provider.next), nil
}

type testHarness struct {
	handler  http.Handler
	reports  *reports.Service
	safety   *safety.Service
	realtime *RealtimeDispatcher
}

func newTestHarness(t *testing.T, store kvstore.Store) testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := func() time.Time {
		return time.Date(2026, time.February, 10, 9, 30, 0, 0, siteLocation)
	}
	reportService, err := reports.NewService(reports.ServiceConfig{
		Store:    store,
		Clock:    clock,
		Location: siteLocation,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build report service: %v", err)
	}
	safetyService, err := safety.NewService(safety.ServiceConfig{
		Store:      store,
		Clock:      clock,
		Location:   siteLocation,
		IDProvider: &sequenceIDProvider{prefix: "talk"},
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build safety service: %v", err)
	}

	realtime := NewRealtimeDispatcher()
	handler, err := NewHTTPHandler(Dependencies{
		ReportService:     reportService,
		SafetyService:     safetyService,
		IDProvider:        &sequenceIDProvider{prefix: "entry"},
		Realtime:          realtime,
		HeartbeatInterval: time.Hour,
		Logger:            zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return testHarness{handler: handler, reports: reportService, safety: safetyService, realtime: realtime}
}

func (harness testHarness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	harness.handler.ServeHTTP(recorder, request)
	return recorder
}
