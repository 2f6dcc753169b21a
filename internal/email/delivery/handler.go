package delivery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	emaildomain "mail-assistant-backend/internal/email/domain"
	emaildto "mail-assistant-backend/internal/email/dto"
	"mail-assistant-backend/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	emailUsecase     usecase.EmailUsecase
	searchUsecase    usecase.SearchUsecase
	summaryUsecase   usecase.SummaryUsecase
	attributeUsecase usecase.AttributeUsecase
	lookbackDays     int
}

func NewEmailHandler(
	emailUsecase usecase.EmailUsecase,
	searchUsecase usecase.SearchUsecase,
	summaryUsecase usecase.SummaryUsecase,
	attributeUsecase usecase.AttributeUsecase,
	lookbackDays int,
) *EmailHandler {
	return &EmailHandler{
		emailUsecase:     emailUsecase,
		searchUsecase:    searchUsecase,
		summaryUsecase:   summaryUsecase,
		attributeUsecase: attributeUsecase,
		lookbackDays:     lookbackDays,
	}
}

// Refresh streams the ingest run as server-sent events: one progress
// event per processed message, a final event with the totals, then a
// [DONE] marker.
func (h *EmailHandler) Refresh(c *gin.Context) {
	folder := c.DefaultQuery("folder", "INBOX")
	lookbackDays := h.lookbackDays
	if daysStr := c.Query("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 {
			lookbackDays = parsed
		}
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	events := make(chan string, 16)
	go func() {
		defer close(events)
		// Sends must stay cancellable: once the client is gone nothing
		// drains the channel, and an unconditional send would block this
		// goroutine forever mid-refresh, holding the mail session open.
		emit := func(payload gin.H) {
			select {
			case events <- sseData(payload):
			case <-ctx.Done():
			}
		}
		processed, failed, err := h.emailUsecase.Refresh(ctx, folder, lookbackDays, func(p usecase.RefreshProgress) {
			emit(gin.H{"message": "邮件处理中", "count": p.Processed, "title": p.Subject})
		})
		if err != nil {
			emit(gin.H{"error": err.Error()})
			return
		}
		emit(gin.H{"message": "邮件刷新成功", "count": processed, "failed": failed})
	}()

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			fmt.Fprint(w, "data: [DONE]\n\n")
			return false
		}
		fmt.Fprint(w, event)
		return true
	})
}

func (h *EmailHandler) GetEmails(c *gin.Context) {
	folder := c.Query("folder")

	limit := 20
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	emails, err := h.emailUsecase.ListEmails(folder, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.EmailsResponse{
		Emails: emails,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *EmailHandler) Search(c *gin.Context) {
	var req emaildto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.searchUsecase.Search(c.Request.Context(), req.Query, req.Folder, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.SearchResponse{Query: req.Query, Results: results})
}

func (h *EmailHandler) DailySummary(c *gin.Context) {
	date := time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	summary, err := h.summaryUsecase.GenerateDailySummary(c.Request.Context(), date)
	if err != nil {
		switch {
		case errors.Is(err, emaildomain.ErrNoMailData):
			c.JSON(http.StatusNotFound, gin.H{"error": "no mail data for the requested day"})
		case errors.Is(err, emaildomain.ErrSummaryUnavailable):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "summary unavailable for the requested day"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *EmailHandler) Extract(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	stored, failed, err := h.attributeUsecase.ExtractMissing(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stored": stored, "failed": failed})
}

func (h *EmailHandler) SendEmail(c *gin.Context) {
	var req emaildto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.emailUsecase.SendEmail(req.To, req.Subject, req.Body, req.HTML); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email sent"})
}

func sseData(payload gin.H) string {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "data: {}\n\n"
	}
	return fmt.Sprintf("data: %s\n\n", encoded)
}
