package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ledgerlens/internal/domain"
	"ledgerlens/internal/export"
	"ledgerlens/internal/middleware"
	"ledgerlens/internal/service"
	"ledgerlens/internal/validator/receipt"
)

const (
	// Slack on top of the media ceiling for multipart boundaries and the
	// mode field.
	multipartOverheadBytes = 10 << 10

	defaultMaxUploadBytes = 100 << 20
)

// ReceiptHandler handles receipt submission, polling, and export endpoints.
type ReceiptHandler struct {
	tokens         service.TokenService
	maxUploadBytes int64
}

// NewReceiptHandler creates a new ReceiptHandler. maxUploadBytes caps the
// request body at the edge; zero or negative selects the default ceiling.
func NewReceiptHandler(tokens service.TokenService, maxUploadBytes int64) *ReceiptHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &ReceiptHandler{tokens: tokens, maxUploadBytes: maxUploadBytes}
}

// tokenView is the polling snapshot exposed to clients.
type tokenView struct {
	Token     string             `json:"token"`
	Status    domain.TokenStatus `json:"status"`
	Mode      domain.MediaMode   `json:"mode"`
	Attempt   int                `json:"attempt"`
	Progress  domain.Progress    `json:"progress"`
	Error     *domain.TokenError `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

func viewOf(token *domain.ProcessingToken) tokenView {
	return tokenView{
		Token:     token.ID.String(),
		Status:    token.Status,
		Mode:      token.Mode,
		Attempt:   token.Attempt,
		Progress:  token.Progress(),
		Error:     token.Error(),
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	}
}

// Submit handles POST /api/v1/receipts. The multipart form carries the media
// under "media" and the capture mode under "mode" (image by default).
func (h *ReceiptHandler) Submit(c *gin.Context) {
	ownerID, err := middleware.GetOwnerID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing owner context")
		return
	}

	// Oversized bodies are cut off here instead of being buffered in full;
	// the orchestrator still enforces the per-mode ceiling on the media.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverheadBytes)

	file, header, err := c.Request.FormFile("media")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, domain.ErrMediaTooLarge)
			return
		}
		RespondError(c, http.StatusBadRequest, "MISSING_MEDIA", "media field is required")
		return
	}
	defer func() { _ = file.Close() }()

	media, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_MEDIA", "could not read submitted media")
		return
	}

	mode := domain.MediaMode(c.PostForm("mode"))
	if mode == "" {
		mode = domain.MediaModeImage
	}

	token, err := h.tokens.Submit(c.Request.Context(), &service.SubmitInput{
		OwnerID:     ownerID,
		Mode:        mode,
		ContentType: header.Header.Get("Content-Type"),
		Media:       media,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, viewOf(token))
}

// Status handles GET /api/v1/receipts/:token
func (h *ReceiptHandler) Status(c *gin.Context) {
	ownerID, tokenID, ok := h.tokenParams(c)
	if !ok {
		return
	}

	token, err := h.tokens.Poll(c.Request.Context(), ownerID, tokenID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, viewOf(token))
}

// Result handles GET /api/v1/receipts/:token/result
func (h *ReceiptHandler) Result(c *gin.Context) {
	ownerID, tokenID, ok := h.tokenParams(c)
	if !ok {
		return
	}

	token, analysis, err := h.tokens.Result(c.Request.Context(), ownerID, tokenID)
	if err != nil {
		HandleError(c, err)
		return
	}

	view := struct {
		tokenView
		Result *receipt.Analysis `json:"result,omitempty"`
	}{tokenView: viewOf(token), Result: analysis}
	RespondOK(c, view)
}

// Export handles GET /api/v1/receipts/export?format=csv|xlsx&from=...&to=...
// Dates are RFC 3339; the window defaults to the last 30 days.
func (h *ReceiptHandler) Export(c *gin.Context) {
	ownerID, err := middleware.GetOwnerID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing owner context")
		return
	}

	from, to, err := exportWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}

	tokens, err := h.tokens.ListCompleted(c.Request.Context(), ownerID, from, to)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("receipts-%s", time.Now().UTC().Format("2006-01-02"))

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
		c.Status(http.StatusOK)
		_, _ = c.Writer.Write(export.BOM)
		w := export.NewWriter(c.Writer)
		if err := w.WriteHeader(); err == nil {
			_ = w.WriteTokens(tokens)
		}
		w.Flush()
	case "xlsx":
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
		c.Status(http.StatusOK)
		if err := export.WriteXLSX(c.Writer, tokens); err != nil {
			log.Printf("[%s] receiptHandler.Export: xlsx write failed: %v",
				c.GetString(middleware.ContextKeyRequestID), err)
		}
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
	}
}

func (h *ReceiptHandler) tokenParams(c *gin.Context) (ownerID, tokenID uuid.UUID, ok bool) {
	ownerID, err := middleware.GetOwnerID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing owner context")
		return uuid.Nil, uuid.Nil, false
	}
	tokenID, err = uuid.Parse(c.Param("token"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_TOKEN", "token must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return ownerID, tokenID, true
}

func exportWindow(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now.Add(time.Minute)

	var err error
	if fromStr != "" {
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be RFC 3339")
		}
	}
	if toStr != "" {
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be RFC 3339")
		}
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must be after from")
	}
	return from, to, nil
}
