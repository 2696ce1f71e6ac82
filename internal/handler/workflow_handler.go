package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"lexio/internal/service"
)

// WorkflowHandler exposes the translation lifecycle operations. All routes
// here are mounted behind admin auth.
type WorkflowHandler struct {
	workflow service.WorkflowService
	suggest  service.SuggestService
}

func NewWorkflowHandler(workflow service.WorkflowService, suggest service.SuggestService) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow, suggest: suggest}
}

func (h *WorkflowHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/translations", h.SubmitDraft)
	g.POST("/translations/:id/review", h.SubmitForReview)
	g.POST("/translations/:id/approve", h.Approve)
	g.POST("/translations/:id/reject", h.Reject)
	g.POST("/translations/:id/publish", h.Publish)
	g.POST("/translations/bulk", h.BulkTransition)
	g.POST("/translations/suggest", h.SuggestDraft)
}

type submitDraftRequest struct {
	Key        string  `json:"key"`
	Locale     string  `json:"locale"`
	Value      string  `json:"value"`
	ICUMessage *string `json:"icuMessage,omitempty"`
	ActorID    string  `json:"actorId"`
}

type translationResponse struct {
	ID        string `json:"id"`
	Key       string `json:"key,omitempty"`
	Locale    string `json:"locale"`
	Value     string `json:"value"`
	Status    string `json:"status"`
	WordCount int    `json:"wordCount"`
}

func (h *WorkflowHandler) SubmitDraft(c echo.Context) error {
	var req submitDraftRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid body")
	}

	translation, err := h.workflow.SubmitDraft(c.Request().Context(), service.SubmitDraftParams{
		KeyName:    req.Key,
		Locale:     req.Locale,
		Value:      req.Value,
		ICUMessage: req.ICUMessage,
		ActorID:    req.ActorID,
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, translationResponse{
		ID:        strconv.FormatInt(translation.ID, 10),
		Key:       req.Key,
		Locale:    translation.Locale,
		Value:     translation.Value,
		Status:    translation.Status,
		WordCount: translation.WordCount,
	})
}

type transitionRequest struct {
	ActorID string `json:"actorId"`
	Reason  string `json:"reason,omitempty"`
}

type transitionResponse struct {
	Success bool `json:"success"`
}

func (h *WorkflowHandler) SubmitForReview(c echo.Context) error {
	return h.transition(c, func(id int64, req transitionRequest) error {
		return h.workflow.SubmitForReview(c.Request().Context(), id, req.ActorID)
	})
}

func (h *WorkflowHandler) Approve(c echo.Context) error {
	return h.transition(c, func(id int64, req transitionRequest) error {
		return h.workflow.Approve(c.Request().Context(), id, req.ActorID)
	})
}

func (h *WorkflowHandler) Reject(c echo.Context) error {
	return h.transition(c, func(id int64, req transitionRequest) error {
		return h.workflow.Reject(c.Request().Context(), id, req.ActorID, req.Reason)
	})
}

func (h *WorkflowHandler) Publish(c echo.Context) error {
	return h.transition(c, func(id int64, req transitionRequest) error {
		return h.workflow.Publish(c.Request().Context(), id, req.ActorID)
	})
}

func (h *WorkflowHandler) transition(c echo.Context, apply func(int64, transitionRequest) error) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid id")
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid body")
	}

	if err := apply(id, req); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, transitionResponse{Success: true})
}

type bulkTransitionRequest struct {
	IDs     []string `json:"ids"`
	Status  string   `json:"status"`
	ActorID string   `json:"actorId"`
}

type bulkTransitionResponse struct {
	Applied int `json:"applied"`
}

func (h *WorkflowHandler) BulkTransition(c echo.Context) error {
	var req bulkTransitionRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid body")
	}

	ids := make([]int64, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid id: "+raw)
		}
		ids = append(ids, id)
	}

	applied, err := h.workflow.BulkTransition(c.Request().Context(), ids, req.Status, req.ActorID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, bulkTransitionResponse{Applied: applied})
}

type suggestRequest struct {
	Key          string `json:"key"`
	SourceLocale string `json:"sourceLocale"`
	TargetLocale string `json:"targetLocale"`
	ActorID      string `json:"actorId"`
}

func (h *WorkflowHandler) SuggestDraft(c echo.Context) error {
	var req suggestRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid body")
	}

	draft, err := h.suggest.SuggestDraft(c.Request().Context(), req.Key, req.SourceLocale, req.TargetLocale, req.ActorID)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, translationResponse{
		ID:        strconv.FormatInt(draft.ID, 10),
		Key:       req.Key,
		Locale:    draft.Locale,
		Value:     draft.Value,
		Status:    draft.Status,
		WordCount: draft.WordCount,
	})
}
