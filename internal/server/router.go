package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/reports"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/safety"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/svcerr"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultHeartbeatInterval = 25 * time.Second
	errorInvalidDate         = "invalid_date"
	errorInvalidRequest      = "invalid_request"
	errorAlreadySigned       = "already_signed"
	errorTalkNotFound        = "talk_not_found"
	errorStorageFailed       = "storage_failed"
	errorIDGeneration        = "id_generation_failed"
)

var (
	errMissingReportService = errors.New("report service dependency required")
	errMissingSafetyService = errors.New("safety service dependency required")
)

type Dependencies struct {
	ReportService     *reports.Service
	SafetyService     *safety.Service
	IDProvider        reports.IDProvider
	Realtime          *RealtimeDispatcher
	AllowedOrigins    []string
	HeartbeatInterval time.Duration
	Logger            *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.ReportService == nil {
		return nil, errMissingReportService
	}
	if deps.SafetyService == nil {
		return nil, errMissingSafetyService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idProvider := deps.IDProvider
	if idProvider == nil {
		idProvider = reports.NewUUIDProvider()
	}
	realtime := deps.Realtime
	if realtime == nil {
		realtime = NewRealtimeDispatcher()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins))

	handler := &httpHandler{
		reports:           deps.ReportService,
		safety:            deps.SafetyService,
		ids:               idProvider,
		realtime:          realtime,
		heartbeatInterval: heartbeat,
		logger:            logger,
	}

	router.GET("/healthz", handler.handleHealth)

	reportRoutes := router.Group("/reports/:date")
	reportRoutes.GET("", handler.handleGetReport)
	reportRoutes.GET("/photos", handler.handleGetPhotos)
	reportRoutes.POST("/notes", saveEntryHandler(handler, reports.CategoryNotes, stampNote, handler.reports.SaveNotes))
	reportRoutes.POST("/chemicals", saveEntryHandler(handler, reports.CategoryChemicals, stampChemical, handler.reports.SaveChemicals))
	reportRoutes.POST("/metrics", saveEntryHandler(handler, reports.CategoryMetrics, stampMetrics, handler.reports.SaveMetrics))
	reportRoutes.POST("/survey", saveEntryHandler(handler, reports.CategorySurvey, stampSurvey, handler.reports.SaveSurvey))
	reportRoutes.POST("/equipment", saveEntryHandler(handler, reports.CategoryEquipment, stampEquipment, handler.reports.SaveEquipment))
	reportRoutes.POST("/equipment-checklist", saveEntryHandler(handler, reports.CategoryEquipment, stampChecklist, handler.reports.SaveEquipmentChecklist))
	reportRoutes.POST("/material", saveEntryHandler(handler, reports.CategoryMaterial, stampMaterial, handler.reports.SaveMaterial))
	reportRoutes.POST("/attachments", saveEntryHandler(handler, reports.CategoryAttachments, stampAttachment, handler.reports.SaveAttachments))
	reportRoutes.GET("/signature", handler.handleGetSignature)
	reportRoutes.POST("/signature", handler.handleSign)
	reportRoutes.PUT("/signature", handler.handleOverwriteSignature)

	router.GET("/calendar/:year/:month", handler.handleCalendar)
	router.GET("/settings/selected-date", handler.handleGetSelectedDate)
	router.PUT("/settings/selected-date", handler.handlePutSelectedDate)

	router.GET("/safety/templates", handler.handleListTemplates)
	router.GET("/safety/talks", handler.handleListTalks)
	router.POST("/safety/talks", handler.handleAddTalk)
	router.GET("/safety/talks/:id", handler.handleGetTalk)
	router.PUT("/safety/talks/:id", handler.handleUpdateTalk)
	router.DELETE("/safety/talks/:id", handler.handleDeleteTalk)
	router.POST("/safety/talks/:id/conducted", handler.handleMarkConducted)

	router.GET("/events", handler.handleEvents)

	return router, nil
}

type httpHandler struct {
	reports           *reports.Service
	safety            *safety.Service
	ids               reports.IDProvider
	realtime          *RealtimeDispatcher
	heartbeatInterval time.Duration
	logger            *zap.Logger
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Last-Event-ID"},
		MaxAge:       12 * time.Hour,
	})
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) parseDate(c *gin.Context) (reports.DateKey, bool) {
	dateKey, err := reports.ParseDateKey(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidDate})
		return "", false
	}
	return dateKey, true
}

// respondServiceError maps a store error onto a JSON error response carrying
// the service error code.
func (h *httpHandler) respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := errorStorageFailed
	switch {
	case errors.Is(err, reports.ErrInvalidDateKey):
		status = http.StatusBadRequest
		message = errorInvalidDate
	case errors.Is(err, reports.ErrAlreadySigned):
		status = http.StatusConflict
		message = errorAlreadySigned
	default:
		h.logger.Error("store operation failed", zap.Error(err), zap.String("path", c.FullPath()))
	}
	body := gin.H{"error": message}
	if code, ok := svcerr.CodeOf(err); ok {
		body["code"] = code
	}
	c.JSON(status, body)
}

func (h *httpHandler) publish(message RealtimeMessage) {
	message.Timestamp = time.Now().UTC()
	h.realtime.Publish(message)
}
