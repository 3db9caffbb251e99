// Package web provides HTTP handlers and REST API endpoints for legal review
// request management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/counselops/matterflow/pkg/models"
	"github.com/counselops/matterflow/pkg/persistence"
	"github.com/counselops/matterflow/pkg/services"
)

type APIHandlers struct {
	requestService *services.Request
	validator      *validator.Validate
}

func NewAPIHandlers(requestService *services.Request, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		requestService: requestService,
		validator:      validator,
	}
}

func (h *APIHandlers) GetRequests(c fiber.Ctx) error {
	req, err := h.parseListRequestsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.requestService.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"requests":      result.Requests,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListRequestsRequest parses and validates query parameters for listing requests.
func (h *APIHandlers) parseListRequestsRequest(c fiber.Ctx) (*services.ListRequestsRequest, error) {
	req := &services.ListRequestsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.Submitter = c.Query("submitter")

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ReviewStatus(statusStr)
		req.Status = &status
	}

	if typeStr := c.Query("request_type"); typeStr != "" {
		requestType := models.RequestType(typeStr)
		req.RequestType = &requestType
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetRequest(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Request ID is required")
	}

	request, err := h.requestService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsRequestNotFound(err) {
			return notFound(c, "Request not found")
		}

		return internalError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) CreateRequest(c fiber.Ctx) error {
	var req CreateRequestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	request := &models.LegalRequest{
		Title:                    req.Title,
		Description:              req.Description,
		RequestType:              models.RequestType(req.RequestType),
		Audience:                 models.ReviewAudience(req.Audience),
		IsForesideReviewRequired: req.IsForesideReviewRequired,
		Submitter:                req.Submitter,
	}

	created, err := h.requestService.Create(c.Context(), request)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateRequest(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Request ID is required")
	}

	var req UpdateRequestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.requestService.Update(c.Context(), id, req.Actor, req.Title, req.Description)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteRequest(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Request ID is required")
	}

	err := h.requestService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsRequestNotFound(err) {
			return notFound(c, "Request not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// transitionBody binds and validates a transition request body.
func (h *APIHandlers) transitionBody(c fiber.Ctx, body any) error {
	if err := c.Bind().JSON(body); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(body); err != nil {
		return badRequest(c, err.Error())
	}

	return nil
}

func (h *APIHandlers) SubmitRequest(c fiber.Ctx) error {
	var req ActorRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.Submit(c.Context(), c.Params("id"), req.Actor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) AssignAttorney(c fiber.Ctx) error {
	var req AssignAttorneyRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.AssignAttorney(c.Context(), c.Params("id"), req.Actor, req.Attorney)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) StartReview(c fiber.Ctx) error {
	var req ActorRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.StartReview(c.Context(), c.Params("id"), req.Actor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) UpdateReviewTrack(c fiber.Ctx) error {
	var req UpdateReviewTrackRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.UpdateReviewTrack(
		c.Context(),
		c.Params("id"),
		req.Actor,
		models.ReviewAudience(req.Audience),
		models.ReviewTrackStatus(req.Status),
	)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) CompleteReview(c fiber.Ctx) error {
	var req CompleteReviewRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.CompleteReview(
		c.Context(),
		c.Params("id"),
		req.Actor,
		models.ReviewAudience(req.Audience),
		models.ReviewOutcome(req.Outcome),
	)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) CompleteCloseout(c fiber.Ctx) error {
	var req ActorRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.CompleteCloseout(c.Context(), c.Params("id"), req.Actor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) CompleteFINRA(c fiber.Ctx) error {
	var req ActorRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.CompleteFINRA(c.Context(), c.Params("id"), req.Actor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) CancelRequest(c fiber.Ctx) error {
	var req ReasonRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.Cancel(c.Context(), c.Params("id"), req.Actor, req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) HoldRequest(c fiber.Ctx) error {
	var req ReasonRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.Hold(c.Context(), c.Params("id"), req.Actor, req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) ResumeRequest(c fiber.Ctx) error {
	var req ActorRequest
	if err := h.transitionBody(c, &req); err != nil {
		return err
	}

	request, err := h.requestService.Resume(c.Context(), c.Params("id"), req.Actor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

// GetRequestSteps returns the stepper view of a request for the caller named
// in the current_user query parameter.
func (h *APIHandlers) GetRequestSteps(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Request ID is required")
	}

	steps, err := h.requestService.Steps(c.Context(), id, c.Query("current_user"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"steps": steps})
}

// GetRequestTypeSteps previews the process for a request type before any
// request exists.
func (h *APIHandlers) GetRequestTypeSteps(c fiber.Ctx) error {
	requestType := c.Params("type")
	if requestType == "" {
		return badRequest(c, "Request type is required")
	}

	steps, err := h.requestService.StepsForType(models.RequestType(requestType))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"steps": steps})
}

// GetRequestSections reports which workflow sections the request's form
// should still show.
func (h *APIHandlers) GetRequestSections(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Request ID is required")
	}

	visibility, err := h.requestService.SectionVisibility(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"sections": visibility})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.requestService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Matterflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Matterflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
