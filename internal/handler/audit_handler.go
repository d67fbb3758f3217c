package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"github.com/gdbetancourt/outreach-engine/internal/service"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type AuditService interface {
	List(ctx context.Context, params repository.AuditListParams) (*service.AuditPage, error)
}

type AuditHandler struct {
	service AuditService
}

func NewAuditHandler(service AuditService) (*AuditHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("audit service is required")
	}
	return &AuditHandler{service: service}, nil
}

func RegisterAuditRoutes(router fiber.Router, service AuditService) error {
	h, err := NewAuditHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/audit", h.ListAudit)

	return nil
}

func (h *AuditHandler) ListAudit(c *fiber.Ctx) error {
	params, err := parseAuditParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	page, err := h.service.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

func parseAuditParams(c *fiber.Ctx) (repository.AuditListParams, error) {
	params := repository.AuditListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.AuditListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.AuditListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if ruleID := strings.TrimSpace(c.Query("ruleId")); ruleID != "" {
		params.RuleID = &ruleID
	}
	if contactID := strings.TrimSpace(c.Query("contactId")); contactID != "" {
		params.ContactID = &contactID
	}

	return params, nil
}
