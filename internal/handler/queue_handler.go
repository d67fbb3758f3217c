package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/service"
	"github.com/gofiber/fiber/v2"
)

type GroupingService interface {
	PendingGroups(ctx context.Context, ruleID string) (*domain.PendingGroups, error)
}

type DispatchService interface {
	DispatchItems(ctx context.Context, ruleID, actor string, itemIDs []string) (*service.BatchDispatchResult, error)
	DispatchRule(ctx context.Context, ruleID, actor string) (*service.BatchDispatchResult, error)
	CancelItem(ctx context.Context, itemID string) error
}

type SnoozeService interface {
	Snooze(ctx context.Context, ruleID, contactID string, until time.Time) error
}

type SweeperService interface {
	SweepRule(ctx context.Context, rule *domain.Rule) (*service.SweepResult, error)
}

type QueueHandler struct {
	groups   GroupingService
	dispatch DispatchService
	snooze   SnoozeService
	sweeper  SweeperService
	rules    RuleService
}

func NewQueueHandler(
	groups GroupingService,
	dispatch DispatchService,
	snooze SnoozeService,
	sweeper SweeperService,
	rules RuleService,
) (*QueueHandler, error) {
	if groups == nil || dispatch == nil || snooze == nil || sweeper == nil || rules == nil {
		return nil, fmt.Errorf("grouping, dispatch, snooze, sweeper and rule services are required")
	}

	return &QueueHandler{
		groups:   groups,
		dispatch: dispatch,
		snooze:   snooze,
		sweeper:  sweeper,
		rules:    rules,
	}, nil
}

func RegisterQueueRoutes(
	router fiber.Router,
	groups GroupingService,
	dispatch DispatchService,
	snooze SnoozeService,
	sweeper SweeperService,
	rules RuleService,
) error {
	h, err := NewQueueHandler(groups, dispatch, snooze, sweeper, rules)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/rules/:id/queue", h.GetPendingGroups)
	v1.Post("/rules/:id/dispatch", h.DispatchBatch)
	v1.Post("/rules/:id/sweep", h.SweepRule)
	v1.Post("/rules/:id/snooze", h.SnoozeContact)
	v1.Post("/queue/:itemId/cancel", h.CancelItem)

	return nil
}

type dispatchRequest struct {
	Actor   string   `json:"actor"`
	ItemIDs []string `json:"itemIds"`
}

type snoozeRequest struct {
	ContactID string `json:"contactId"`
	Until     string `json:"until"`
}

func (h *QueueHandler) GetPendingGroups(c *fiber.Ctx) error {
	groups, err := h.groups.PendingGroups(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(groups)
}

func (h *QueueHandler) DispatchBatch(c *fiber.Ctx) error {
	var req dispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ruleID := strings.TrimSpace(c.Params("id"))
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = "operator"
	}

	var result *service.BatchDispatchResult
	var err error
	if len(req.ItemIDs) > 0 {
		result, err = h.dispatch.DispatchItems(c.Context(), ruleID, actor, req.ItemIDs)
	} else {
		result, err = h.dispatch.DispatchRule(c.Context(), ruleID, actor)
	}
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *QueueHandler) SweepRule(c *fiber.Ctx) error {
	rule, err := h.rules.GetRule(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	result, err := h.sweeper.SweepRule(c.Context(), rule)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *QueueHandler) SnoozeContact(c *fiber.Ctx) error {
	var req snoozeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	until, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Until))
	if err != nil {
		return toHTTPError(fmt.Errorf("%w: until must be RFC3339", domain.ErrValidation))
	}

	ruleID := strings.TrimSpace(c.Params("id"))
	if err := h.snooze.Snooze(c.Context(), ruleID, strings.TrimSpace(req.ContactID), until); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ruleId":    ruleID,
		"contactId": strings.TrimSpace(req.ContactID),
		"until":     until.UTC(),
	})
}

func (h *QueueHandler) CancelItem(c *fiber.Ctx) error {
	itemID := strings.TrimSpace(c.Params("itemId"))
	if err := h.dispatch.CancelItem(c.Context(), itemID); err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"itemId": itemID,
		"status": domain.ItemCancelled.String(),
	})
}
