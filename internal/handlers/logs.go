package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"device_controller/internal/models"
	"device_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

var (
	errFromInvalid  = errors.New("invalid 'from' time; use RFC3339 or YYYY-MM-DD")
	errToInvalid    = errors.New("invalid 'to' time; use RFC3339 or YYYY-MM-DD")
	errRangeInverse = errors.New("'from' must be <= 'to'")
	errTypeInvalid  = errors.New("'type' must be one of TRANSITION, REJECTED, NOTICE")
)

// parseLogFilter turns the journal query string into a filter.
// A date-only 'to' covers the whole day.
func parseLogFilter(c *gin.Context) (service.LogFilter, error) {
	f := service.LogFilter{
		Device: strings.TrimSpace(c.Query("device")),
		Type:   strings.ToUpper(strings.TrimSpace(c.Query("type"))),
	}
	switch f.Type {
	case "", models.EventTransition, models.EventRejected, models.EventNotice:
	default:
		return f, errTypeInvalid
	}

	if qs := c.Query("from"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errFromInvalid
		}
		f.From = t
	}
	if qs := c.Query("to"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errToInvalid
		}
		if !strings.ContainsAny(qs, "T ") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, errRangeInverse
	}
	return f, nil
}

// @Summary      List journal entries
// @Description  Transitions, rejections and notices recorded by the devices, oldest first. Times accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' is inclusive of that whole day.
// @Tags         logs
// @Produce      json
// @Param        from    query  string  false  "Start of range"  example(2025-08-01)
// @Param        to      query  string  false  "End of range"  example(2025-08-31)
// @Param        device  query  string  false  "Device name"  example(panel-1)
// @Param        type    query  string  false  "Event type"  Enums(TRANSITION,REJECTED,NOTICE)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	filter, err := parseLogFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), filter)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("logs_list_failed", "operator", operatorID(c), "filter", filter, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// parseQueryTime accepts the supported layouts and returns UTC.
func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time %q", s)
}
