package server

import (
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/reports"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/safety"
	"github.com/gin-gonic/gin"
)

const (
	safetyActionAdded     = "added"
	safetyActionUpdated   = "updated"
	safetyActionDeleted   = "deleted"
	safetyActionConducted = "conducted"
)

type talkRequestPayload struct {
	Date         string `json:"date"`
	TemplateID   string `json:"templateId"`
	TemplateName string `json:"templateName"`
}

// talkPayload is a stored talk annotated with its tab as of today.
type talkPayload struct {
	safety.Talk
	Tab      safety.Tab `json:"tab"`
	Editable bool       `json:"editable"`
}

type talkListResponsePayload struct {
	Today   reports.DateKey `json:"today"`
	Talks   []talkPayload   `json:"talks"`
	Grouped safety.Grouped  `json:"grouped"`
}

func newTalkPayload(talk safety.Talk, today reports.DateKey) talkPayload {
	tab := safety.Classify(talk, today)
	return talkPayload{Talk: talk, Tab: tab, Editable: safety.Editable(tab)}
}

func (h *httpHandler) handleListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": safety.Templates()})
}

func (h *httpHandler) handleListTalks(c *gin.Context) {
	talks := h.safety.List(c.Request.Context())
	today := h.safety.Today()
	views := make([]talkPayload, 0, len(talks))
	for _, talk := range talks {
		views = append(views, newTalkPayload(talk, today))
	}
	c.JSON(http.StatusOK, talkListResponsePayload{
		Today:   today,
		Talks:   views,
		Grouped: safety.Group(talks, today),
	})
}

func (h *httpHandler) handleGetTalk(c *gin.Context) {
	talk, found := h.safety.GetByID(c.Request.Context(), c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errorTalkNotFound})
		return
	}
	c.JSON(http.StatusOK, newTalkPayload(talk, h.safety.Today()))
}

func (h *httpHandler) handleAddTalk(c *gin.Context) {
	request, dateKey, ok := h.bindTalkRequest(c)
	if !ok {
		return
	}
	talk, err := h.safety.Add(c.Request.Context(), dateKey, request.TemplateID, request.TemplateName)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.publishSafety(talk.ID, safetyActionAdded)
	c.JSON(http.StatusCreated, newTalkPayload(talk, h.safety.Today()))
}

func (h *httpHandler) handleUpdateTalk(c *gin.Context) {
	request, dateKey, ok := h.bindTalkRequest(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.safety.Update(c.Request.Context(), id, dateKey, request.TemplateID, request.TemplateName); err != nil {
		h.respondServiceError(c, err)
		return
	}
	talk, found := h.safety.GetByID(c.Request.Context(), id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errorTalkNotFound})
		return
	}
	h.publishSafety(id, safetyActionUpdated)
	c.JSON(http.StatusOK, newTalkPayload(talk, h.safety.Today()))
}

func (h *httpHandler) handleDeleteTalk(c *gin.Context) {
	id := c.Param("id")
	if _, found := h.safety.GetByID(c.Request.Context(), id); !found {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.safety.Delete(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.publishSafety(id, safetyActionDeleted)
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleMarkConducted(c *gin.Context) {
	id := c.Param("id")
	if err := h.safety.MarkConducted(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, err)
		return
	}
	talk, found := h.safety.GetByID(c.Request.Context(), id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errorTalkNotFound})
		return
	}
	h.publishSafety(id, safetyActionConducted)
	c.JSON(http.StatusOK, newTalkPayload(talk, h.safety.Today()))
}

// bindTalkRequest decodes a talk body. A blank template name is filled from
// the catalog when the template id is known.
func (h *httpHandler) bindTalkRequest(c *gin.Context) (talkRequestPayload, reports.DateKey, bool) {
	var request talkRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.TemplateID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
		return talkRequestPayload{}, "", false
	}
	dateKey, err := reports.ParseDateKey(request.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidDate})
		return talkRequestPayload{}, "", false
	}
	if strings.TrimSpace(request.TemplateName) == "" {
		if template, found := safety.TemplateByID(request.TemplateID); found {
			request.TemplateName = template.Name
		}
	}
	return request, dateKey, true
}

func (h *httpHandler) publishSafety(talkID, action string) {
	h.publish(RealtimeMessage{
		Topic:     RealtimeTopicSafety,
		EventType: RealtimeEventSafetyChanged,
		TalkID:    talkID,
		Action:    action,
	})
}
