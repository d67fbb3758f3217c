package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gofiber/fiber/v2"
)

type RuleService interface {
	ListRules(ctx context.Context) ([]domain.Rule, error)
	GetRule(ctx context.Context, id string) (*domain.Rule, error)
	UpsertRule(ctx context.Context, id string, patch domain.RulePatch) (*domain.Rule, error)
	ToggleEnabled(ctx context.Context, id string) (*domain.Rule, error)
}

type RuleHandler struct {
	service RuleService
}

func NewRuleHandler(service RuleService) (*RuleHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("rule service is required")
	}
	return &RuleHandler{service: service}, nil
}

func RegisterRuleRoutes(router fiber.Router, service RuleService) error {
	h, err := NewRuleHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/rules", h.ListRules)
	v1.Get("/rules/:id", h.GetRule)
	v1.Patch("/rules/:id", h.PatchRule)
	v1.Post("/rules/:id/toggle", h.ToggleRule)

	return nil
}

type templatePayload struct {
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
	Variables    []string `json:"variables"`
	FollowupBody string   `json:"followupBody,omitempty"`
}

type patchRuleRequest struct {
	CadenceDays   *int             `json:"cadenceDays"`
	LookaheadDays *int             `json:"lookaheadDays"`
	TargetStages  *[]int           `json:"targetStages"`
	TargetRoles   *[]string        `json:"targetRoles"`
	Enabled       *bool            `json:"enabled"`
	Description   *string          `json:"description"`
	Template      *templatePayload `json:"template"`
}

type ruleResponse struct {
	ID            string          `json:"id"`
	Channel       string          `json:"channel"`
	TriggerType   string          `json:"triggerType"`
	CadenceDays   int             `json:"cadenceDays"`
	LookaheadDays int             `json:"lookaheadDays,omitempty"`
	TargetStages  []int           `json:"targetStages,omitempty"`
	TargetRoles   []string        `json:"targetRoles,omitempty"`
	Enabled       bool            `json:"enabled"`
	Description   string          `json:"description,omitempty"`
	Template      templatePayload `json:"template"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt,omitempty"`
}

func (h *RuleHandler) ListRules(c *fiber.Ctx) error {
	rules, err := h.service.ListRules(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]ruleResponse, 0, len(rules))
	for i := range rules {
		responses = append(responses, toRuleResponse(&rules[i]))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func (h *RuleHandler) GetRule(c *fiber.Ctx) error {
	rule, err := h.service.GetRule(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toRuleResponse(rule))
}

func (h *RuleHandler) PatchRule(c *fiber.Ctx) error {
	var req patchRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	patch := domain.RulePatch{
		CadenceDays:   req.CadenceDays,
		LookaheadDays: req.LookaheadDays,
		TargetStages:  req.TargetStages,
		TargetRoles:   req.TargetRoles,
		Enabled:       req.Enabled,
		Description:   req.Description,
	}
	if req.Template != nil {
		patch.Template = &domain.MessageTemplate{
			Subject:      req.Template.Subject,
			Body:         req.Template.Body,
			Variables:    req.Template.Variables,
			FollowupBody: req.Template.FollowupBody,
		}
	}

	rule, err := h.service.UpsertRule(c.Context(), strings.TrimSpace(c.Params("id")), patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toRuleResponse(rule))
}

func (h *RuleHandler) ToggleRule(c *fiber.Ctx) error {
	rule, err := h.service.ToggleEnabled(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toRuleResponse(rule))
}

func toRuleResponse(rule *domain.Rule) ruleResponse {
	if rule == nil {
		return ruleResponse{}
	}

	return ruleResponse{
		ID:            rule.ID,
		Channel:       rule.Channel.String(),
		TriggerType:   rule.TriggerType.String(),
		CadenceDays:   rule.CadenceDays,
		LookaheadDays: rule.LookaheadDays,
		TargetStages:  rule.TargetStages,
		TargetRoles:   rule.TargetRoles,
		Enabled:       rule.Enabled,
		Description:   rule.Description,
		Template: templatePayload{
			Subject:      rule.Template.Subject,
			Body:         rule.Template.Body,
			Variables:    rule.Template.Variables,
			FollowupBody: rule.Template.FollowupBody,
		},
		CreatedAt: rule.CreatedAt,
		UpdatedAt: rule.UpdatedAt,
	}
}
