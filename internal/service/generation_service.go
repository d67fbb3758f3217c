package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/observability"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// enqueueChunkSize bounds how many items are written between progress updates
// and cancellation checks.
const enqueueChunkSize = 500

// GenerationService runs the queue-generation job: sweep, evaluate and
// enqueue for each selected rule in sequence. At most one job runs at a time;
// the conditional insert in the job repository enforces it.
type GenerationService struct {
	jobs    repository.JobRepository
	queue   repository.QueueRepository
	rules   *RuleService
	eval    *Evaluator
	sweeper *SweeperService
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewGenerationService(
	jobs repository.JobRepository,
	queue repository.QueueRepository,
	rules *RuleService,
	eval *Evaluator,
	sweeper *SweeperService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*GenerationService, error) {
	if jobs == nil || queue == nil {
		return nil, fmt.Errorf("job and queue repositories are required")
	}
	if rules == nil || eval == nil || sweeper == nil {
		return nil, fmt.Errorf("rule service, evaluator and sweeper are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GenerationService{
		jobs:    jobs,
		queue:   queue,
		rules:   rules,
		eval:    eval,
		sweeper: sweeper,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// StartAll starts a generation job over every enabled rule.
func (s *GenerationService) StartAll(ctx context.Context) (*domain.JobStatus, error) {
	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rules))
	for _, rule := range rules {
		if rule.Enabled {
			ids = append(ids, rule.ID)
		}
	}

	return s.StartRules(ctx, ids)
}

// StartRules starts a generation job over the given rules. If a job is
// already running it is returned together with ErrJobRunning so the caller
// can point the operator at the live run.
func (s *GenerationService) StartRules(ctx context.Context, ruleIDs []string) (*domain.JobStatus, error) {
	if len(ruleIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one enabled rule is required", domain.ErrValidation)
	}

	for _, id := range ruleIDs {
		if _, err := s.rules.GetRule(ctx, id); err != nil {
			return nil, err
		}
	}

	job := &domain.JobStatus{
		ID:             uuid.NewString(),
		Status:         domain.JobRunning,
		RulesToProcess: ruleIDs,
		Results:        make(map[string]domain.RuleResult, len(ruleIDs)),
		StartedAt:      s.now().UTC(),
	}

	if err := s.jobs.CreateRunning(ctx, job); err != nil {
		if errors.Is(err, domain.ErrJobRunning) {
			if running, getErr := s.jobs.GetRunning(ctx); getErr == nil {
				return running, domain.ErrJobRunning
			}
		}
		return nil, err
	}

	s.logger.Info("generation job started",
		zap.String("jobId", job.ID),
		zap.Int("rules", len(ruleIDs)),
	)

	// The job outlives the HTTP request that triggered it.
	go s.run(context.Background(), job)

	return job, nil
}

// Status returns the running job, or the most recent one when nothing runs.
func (s *GenerationService) Status(ctx context.Context) (*domain.JobStatus, error) {
	job, err := s.jobs.GetRunning(ctx)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.jobs.GetLatest(ctx)
}

func (s *GenerationService) GetJob(ctx context.Context, id string) (*domain.JobStatus, error) {
	return s.jobs.GetByID(ctx, id)
}

// Cancel flags the running job; the run loop honors it at the next rule or
// chunk boundary.
func (s *GenerationService) Cancel(ctx context.Context, id string) error {
	return s.jobs.RequestCancel(ctx, id)
}

func (s *GenerationService) run(ctx context.Context, job *domain.JobStatus) {
	for index, ruleID := range job.RulesToProcess {
		if s.cancelled(ctx, job.ID) {
			s.finish(ctx, job, domain.JobCancelled, "")
			return
		}

		job.CurrentRuleIndex = index
		job.ContactsFoundRule = 0
		job.ContactsProcessedRule = 0

		result := s.processRule(ctx, job, ruleID)
		job.Results[ruleID] = result
		job.TotalQueued += result.Queued

		if err := s.jobs.UpdateProgress(ctx, job); err != nil {
			s.logger.Error("failed to persist job progress",
				zap.String("jobId", job.ID), zap.Error(err))
		}
	}

	if s.cancelled(ctx, job.ID) {
		s.finish(ctx, job, domain.JobCancelled, "")
		return
	}
	s.finish(ctx, job, domain.JobCompleted, "")
}

// processRule runs sweep, evaluation, dedup and enqueue for one rule. Errors
// land in the rule's result so the job carries on with the remaining rules.
func (s *GenerationService) processRule(ctx context.Context, job *domain.JobStatus, ruleID string) domain.RuleResult {
	var result domain.RuleResult

	rule, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		result.Errors++
		result.Error = err.Error()
		return result
	}
	if !rule.Enabled {
		result.Error = "rule is disabled"
		return result
	}

	if _, err := s.sweeper.SweepRule(ctx, rule); err != nil {
		// A failed sweep leaves stale items behind but never blocks generation.
		s.logger.Warn("sweep failed before generation",
			zap.String("jobId", job.ID),
			zap.String("ruleId", ruleID),
			zap.Error(err),
		)
	}

	candidates, warnings, err := s.eval.FindEligible(ctx, rule, 0)
	if err != nil {
		result.Errors++
		result.Error = err.Error()
		return result
	}
	result.Eligible = len(candidates)
	result.Warnings = warnings

	job.ContactsFoundRule = len(candidates)
	if err := s.jobs.UpdateProgress(ctx, job); err != nil {
		s.logger.Error("failed to persist job progress",
			zap.String("jobId", job.ID), zap.Error(err))
	}

	guard, err := NewDedupGuard(ctx, s.queue, rule, s.now())
	if err != nil {
		result.Errors++
		result.Error = err.Error()
		return result
	}

	admitted, skipped := guard.Filter(candidates)
	result.Skipped = skipped
	s.metrics.AddItemsSkipped(ruleID, skipped)

	now := s.now().UTC()
	for start := 0; start < len(admitted); start += enqueueChunkSize {
		if s.cancelled(ctx, job.ID) {
			return result
		}

		end := min(start+enqueueChunkSize, len(admitted))
		chunk := make([]domain.QueueItem, 0, end-start)
		for _, candidate := range admitted[start:end] {
			item := domain.QueueItem{
				ID:          uuid.NewString(),
				RuleID:      rule.ID,
				ContactID:   candidate.Contact.ID,
				Channel:     rule.Channel,
				Status:      domain.ItemPending,
				DedupKey:    guard.KeyFor(candidate),
				Context:     candidate.Context,
				ScheduledAt: now,
				CreatedAt:   now,
			}
			if candidate.Followup {
				if item.Context == nil {
					item.Context = map[string]string{}
				}
				item.Context[domain.ContextFollowup] = "true"
			}
			chunk = append(chunk, item)
		}

		if err := s.queue.BulkEnqueue(ctx, chunk); err != nil {
			result.Errors++
			result.Error = fmt.Sprintf("failed to enqueue items: %v", err)
			return result
		}

		result.Queued += len(chunk)
		job.ContactsProcessedRule += len(chunk)
		if err := s.jobs.UpdateProgress(ctx, job); err != nil {
			s.logger.Error("failed to persist job progress",
				zap.String("jobId", job.ID), zap.Error(err))
		}
	}

	s.metrics.AddItemsQueued(ruleID, result.Queued)
	return result
}

func (s *GenerationService) cancelled(ctx context.Context, jobID string) bool {
	requested, err := s.jobs.IsCancelRequested(ctx, jobID)
	if err != nil {
		s.logger.Error("failed to read cancel flag",
			zap.String("jobId", jobID), zap.Error(err))
		return false
	}
	return requested
}

func (s *GenerationService) finish(ctx context.Context, job *domain.JobStatus, state domain.JobState, lastError string) {
	if err := s.jobs.Finish(ctx, job.ID, state, job.Results, lastError); err != nil {
		s.logger.Error("failed to finish job",
			zap.String("jobId", job.ID),
			zap.String("state", state.String()),
			zap.Error(err),
		)
		return
	}

	s.metrics.IncGenerationRun(state.String())
	s.logger.Info("generation job finished",
		zap.String("jobId", job.ID),
		zap.String("state", state.String()),
		zap.Int("totalQueued", job.TotalQueued),
	)
}
