package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/nightjar-records/pressroom/internal/service"
	"github.com/nightjar-records/pressroom/pkg/base"
	"github.com/nightjar-records/pressroom/pkg/mailer"
	"github.com/nightjar-records/pressroom/pkg/response"
	"github.com/nightjar-records/pressroom/pkg/validator"
)

type CampaignHandler struct {
	service *service.CampaignService
}

func NewCampaignHandler(svc *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{service: svc}
}

type EnqueueRequest struct {
	Pitch      string `json:"pitch" validate:"omitempty,max=200"`
	Subject    string `json:"subject" validate:"required,max=500"`
	Body       string `json:"body" validate:"required"`
	SenderKey  string `json:"senderKey" validate:"omitempty,alphanum"`
	Outlet     string `json:"outlet" validate:"omitempty,max=100"`
	Region     string `json:"region" validate:"omitempty,max=100"`
	CampaignID string `json:"campaignId" validate:"omitempty,max=32"`
}

type DrainRequest struct {
	CampaignID string `json:"campaignId" validate:"required,max=32"`
	Limit      int    `json:"limit" validate:"omitempty,min=1,max=100"`
	Force      bool   `json:"force"`
}

type PreviewRequest struct {
	Subject   string `json:"subject" validate:"omitempty,max=500"`
	Body      string `json:"body"`
	ContactID string `json:"contactId" validate:"omitempty,max=32"`
}

// Audience godoc
// @Summary Preview the audience for a filter
// @Description Returns the audience size and a bounded sample of addresses
// @Tags campaigns
// @Produce json
// @Param x-pressroom-key header string true "Internal API key"
// @Param outlet query string false "Outlet type filter"
// @Param region query string false "Region filter"
// @Success 200 {object} response.SuccessResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/campaigns/enqueue [get]
func (h *CampaignHandler) Audience(c echo.Context) error {
	result, err := h.service.Audience(c.Request().Context(), service.AudienceParams{
		Outlet: c.QueryParam("outlet"),
		Region: c.QueryParam("region"),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Ok(c, result)
}

// Enqueue godoc
// @Summary Enqueue a campaign
// @Description Creates or reuses a campaign row and one queued send per recipient not already enqueued
// @Tags campaigns
// @Accept json
// @Produce json
// @Param x-pressroom-key header string true "Internal API key"
// @Param request body EnqueueRequest true "Campaign templates and audience filter"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/campaigns/enqueue [post]
func (h *CampaignHandler) Enqueue(c echo.Context) error {
	var req EnqueueRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	result, err := h.service.Enqueue(c.Request().Context(), service.EnqueueParams{
		Pitch:      req.Pitch,
		Subject:    req.Subject,
		Body:       req.Body,
		SenderKey:  req.SenderKey,
		Outlet:     req.Outlet,
		Region:     req.Region,
		CampaignID: req.CampaignID,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Created(c, "Campaign enqueued", result)
}

// Drain godoc
// @Summary Drain one batch of queued sends
// @Description Claims a bounded batch, submits it as one batch send, writes status back, and reports how many remain
// @Tags campaigns
// @Accept json
// @Produce json
// @Param x-pressroom-key header string true "Internal API key"
// @Param request body DrainRequest true "Campaign id, batch limit and force flag"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/campaigns/drain [post]
func (h *CampaignHandler) Drain(c echo.Context) error {
	var req DrainRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	result, err := h.service.Drain(c.Request().Context(), service.DrainParams{
		CampaignID: req.CampaignID,
		Limit:      req.Limit,
		Force:      req.Force,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Ok(c, result)
}

// Preview godoc
// @Summary Render a merged preview
// @Description Merges the templates against one contact (or placeholder values) and returns subject, text and HTML
// @Tags campaigns
// @Accept json
// @Produce json
// @Param x-pressroom-key header string true "Internal API key"
// @Param request body PreviewRequest true "Templates and optional contact id"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/campaigns/preview [post]
func (h *CampaignHandler) Preview(c echo.Context) error {
	var req PreviewRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	result, err := h.service.Preview(c.Request().Context(), service.PreviewParams{
		Subject:   req.Subject,
		Body:      req.Body,
		ContactID: req.ContactID,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Ok(c, result)
}

// SentCache godoc
// @Summary Recently sent sends for a campaign
// @Description Returns the cached sent sends recorded by recent drains
// @Tags campaigns
// @Produce json
// @Param x-pressroom-key header string true "Internal API key"
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/sent-cache [get]
func (h *CampaignHandler) SentCache(c echo.Context) error {
	cached, err := h.service.SentCache(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Ok(c, cached)
}

// Runs godoc
// @Summary Drain-run history for a campaign
// @Description Returns the audit rows recorded for recent drain invocations
// @Tags campaigns
// @Produce json
// @Param x-pressroom-key header string true "Internal API key"
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/runs [get]
func (h *CampaignHandler) Runs(c echo.Context) error {
	runs, err := h.service.Runs(c.Request().Context(), c.Param("id"), 20)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Ok(c, runs)
}

// writeServiceError maps service errors onto the HTTP surface: validation
// problems are the caller's, locked campaigns conflict, upstream failures
// surface as 502 with the upstream detail embedded.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrCampaignLocked):
		return response.Conflict(c, err)
	case errors.Is(err, service.ErrNotFound):
		return response.NotFound(c, err.Error())
	case service.IsValidation(err):
		return response.BadRequest(c, err)
	}

	var baseErr *base.APIError
	var mailErr *mailer.APIError
	if errors.As(err, &baseErr) || errors.As(err, &mailErr) {
		return response.BadGateway(c, err)
	}

	return response.InternalServerError(c, err)
}
