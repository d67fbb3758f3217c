package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gofiber/fiber/v2"
)

type GenerationService interface {
	StartAll(ctx context.Context) (*domain.JobStatus, error)
	StartRules(ctx context.Context, ruleIDs []string) (*domain.JobStatus, error)
	Status(ctx context.Context) (*domain.JobStatus, error)
	GetJob(ctx context.Context, id string) (*domain.JobStatus, error)
	Cancel(ctx context.Context, id string) error
}

type GenerationHandler struct {
	service GenerationService
}

func NewGenerationHandler(service GenerationService) (*GenerationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("generation service is required")
	}
	return &GenerationHandler{service: service}, nil
}

func RegisterGenerationRoutes(router fiber.Router, service GenerationService) error {
	h, err := NewGenerationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/generation", h.StartGeneration)
	v1.Get("/generation/status", h.GenerationStatus)
	v1.Get("/generation/:jobId", h.GetJob)
	v1.Post("/generation/:jobId/cancel", h.CancelJob)

	return nil
}

type startGenerationRequest struct {
	RuleIDs []string `json:"ruleIds"`
}

type jobStatusResponse struct {
	ID                    string                       `json:"id"`
	Status                string                       `json:"status"`
	RulesToProcess        []string                     `json:"rulesToProcess"`
	CurrentRuleIndex      int                          `json:"currentRuleIndex"`
	ContactsFoundRule     int                          `json:"contactsFoundRule"`
	ContactsProcessedRule int                          `json:"contactsProcessedRule"`
	TotalQueued           int                          `json:"totalQueued"`
	Results               map[string]domain.RuleResult `json:"results,omitempty"`
	CancelRequested       bool                         `json:"cancelRequested,omitempty"`
	StartedAt             time.Time                    `json:"startedAt"`
	FinishedAt            *time.Time                   `json:"finishedAt,omitempty"`
	LastError             string                       `json:"lastError,omitempty"`
}

func (h *GenerationHandler) StartGeneration(c *fiber.Ctx) error {
	var req startGenerationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	var job *domain.JobStatus
	var err error
	if len(req.RuleIDs) > 0 {
		job, err = h.service.StartRules(c.Context(), req.RuleIDs)
	} else {
		job, err = h.service.StartAll(c.Context())
	}
	if err != nil {
		if errors.Is(err, domain.ErrJobRunning) && job != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "a generation job is already running",
				"job":   toJobResponse(job),
			})
		}
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toJobResponse(job))
}

func (h *GenerationHandler) GenerationStatus(c *fiber.Ctx) error {
	job, err := h.service.Status(c.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "idle"})
		}
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toJobResponse(job))
}

func (h *GenerationHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.service.GetJob(c.Context(), strings.TrimSpace(c.Params("jobId")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toJobResponse(job))
}

func (h *GenerationHandler) CancelJob(c *fiber.Ctx) error {
	jobID := strings.TrimSpace(c.Params("jobId"))
	if err := h.service.Cancel(c.Context(), jobID); err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"jobId":           jobID,
		"cancelRequested": true,
	})
}

func toJobResponse(job *domain.JobStatus) jobStatusResponse {
	if job == nil {
		return jobStatusResponse{}
	}

	return jobStatusResponse{
		ID:                    job.ID,
		Status:                job.Status.String(),
		RulesToProcess:        job.RulesToProcess,
		CurrentRuleIndex:      job.CurrentRuleIndex,
		ContactsFoundRule:     job.ContactsFoundRule,
		ContactsProcessedRule: job.ContactsProcessedRule,
		TotalQueued:           job.TotalQueued,
		Results:               job.Results,
		CancelRequested:       job.CancelRequested,
		StartedAt:             job.StartedAt,
		FinishedAt:            job.FinishedAt,
		LastError:             job.LastError,
	}
}
