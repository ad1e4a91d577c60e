package handlers

import (
	"encoding/json"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nightjar-records/pressroom/internal/service"
	"github.com/nightjar-records/pressroom/pkg/response"
	"github.com/nightjar-records/pressroom/pkg/svixsig"
)

type WebhookHandler struct {
	service       *service.WebhookService
	signingSecret string
}

func NewWebhookHandler(svc *service.WebhookService, signingSecret string) *WebhookHandler {
	return &WebhookHandler{service: svc, signingSecret: signingSecret}
}

// HandleEmailEvents godoc
// @Summary Receive email delivery events
// @Description Verifies the provider's envelope signature, then records the event and updates delivery status
// @Tags webhooks
// @Accept json
// @Produce json
// @Param svix-id header string true "Envelope id"
// @Param svix-timestamp header string true "Envelope unix timestamp"
// @Param svix-signature header string true "Envelope signature"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /webhooks/email-events [post]
func (h *WebhookHandler) HandleEmailEvents(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BadRequestWithMessage(c, "could not read request body")
	}

	req := c.Request()
	envelopeID := req.Header.Get("svix-id")
	timestamp := req.Header.Get("svix-timestamp")
	signature := req.Header.Get("svix-signature")

	// Nothing is processed on a bad signature, and the rejection carries no
	// detail about which check failed.
	if err := svixsig.Verify(h.signingSecret, envelopeID, timestamp, signature, body, time.Now()); err != nil {
		return response.BadRequestWithMessage(c, "invalid webhook signature")
	}

	var event service.InboundEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return response.BadRequestWithMessage(c, "malformed event payload")
	}

	if err := h.service.Process(req.Context(), envelopeID, body, event); err != nil {
		return writeServiceError(c, err)
	}

	return response.Ok(c, map[string]any{"received": true})
}
