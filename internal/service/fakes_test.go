package service

import (
	"context"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/events"
	"github.com/gdbetancourt/outreach-engine/internal/provider"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
)

type fakeRuleRepo struct {
	listFn        func(ctx context.Context) ([]domain.Rule, error)
	getFn         func(ctx context.Context, id string) (*domain.Rule, error)
	countFn       func(ctx context.Context) (int64, error)
	createBatchFn func(ctx context.Context, rules []domain.Rule) error
	updateFn      func(ctx context.Context, rule *domain.Rule) error
}

func (f *fakeRuleRepo) List(ctx context.Context) ([]domain.Rule, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeRuleRepo) Get(ctx context.Context, id string) (*domain.Rule, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRuleRepo) Count(ctx context.Context) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx)
	}
	return 1, nil
}

func (f *fakeRuleRepo) CreateBatch(ctx context.Context, rules []domain.Rule) error {
	if f.createBatchFn != nil {
		return f.createBatchFn(ctx, rules)
	}
	return nil
}

func (f *fakeRuleRepo) Update(ctx context.Context, rule *domain.Rule) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, rule)
	}
	return nil
}

type fakeQueueRepo struct {
	enqueueFn            func(ctx context.Context, item *domain.QueueItem) error
	bulkEnqueueFn        func(ctx context.Context, items []domain.QueueItem) error
	getByIDFn            func(ctx context.Context, id string) (*domain.QueueItem, error)
	findPendingFn        func(ctx context.Context, ruleID string) ([]domain.QueueItem, error)
	pendingKeysFn        func(ctx context.Context, ruleID string) (map[string]struct{}, error)
	sentKeysSinceFn      func(ctx context.Context, ruleID string, since time.Time) (map[string]struct{}, error)
	markSentFn           func(ctx context.Context, id string, sentAt time.Time) error
	markCancelledFn      func(ctx context.Context, id string) error
	cancelOtherPendingFn func(ctx context.Context, ruleID, contactID, exceptID string) (int64, error)
	deleteByIDsFn        func(ctx context.Context, ids []string) (int64, error)
}

func (f *fakeQueueRepo) Enqueue(ctx context.Context, item *domain.QueueItem) error {
	if f.enqueueFn != nil {
		return f.enqueueFn(ctx, item)
	}
	return nil
}

func (f *fakeQueueRepo) BulkEnqueue(ctx context.Context, items []domain.QueueItem) error {
	if f.bulkEnqueueFn != nil {
		return f.bulkEnqueueFn(ctx, items)
	}
	return nil
}

func (f *fakeQueueRepo) GetByID(ctx context.Context, id string) (*domain.QueueItem, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeQueueRepo) FindPending(ctx context.Context, ruleID string) ([]domain.QueueItem, error) {
	if f.findPendingFn != nil {
		return f.findPendingFn(ctx, ruleID)
	}
	return nil, nil
}

func (f *fakeQueueRepo) PendingKeys(ctx context.Context, ruleID string) (map[string]struct{}, error) {
	if f.pendingKeysFn != nil {
		return f.pendingKeysFn(ctx, ruleID)
	}
	return map[string]struct{}{}, nil
}

func (f *fakeQueueRepo) SentKeysSince(ctx context.Context, ruleID string, since time.Time) (map[string]struct{}, error) {
	if f.sentKeysSinceFn != nil {
		return f.sentKeysSinceFn(ctx, ruleID, since)
	}
	return map[string]struct{}{}, nil
}

func (f *fakeQueueRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	if f.markSentFn != nil {
		return f.markSentFn(ctx, id, sentAt)
	}
	return nil
}

func (f *fakeQueueRepo) MarkCancelled(ctx context.Context, id string) error {
	if f.markCancelledFn != nil {
		return f.markCancelledFn(ctx, id)
	}
	return nil
}

func (f *fakeQueueRepo) CancelOtherPending(ctx context.Context, ruleID, contactID, exceptID string) (int64, error) {
	if f.cancelOtherPendingFn != nil {
		return f.cancelOtherPendingFn(ctx, ruleID, contactID, exceptID)
	}
	return 0, nil
}

func (f *fakeQueueRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if f.deleteByIDsFn != nil {
		return f.deleteByIDsFn(ctx, ids)
	}
	return int64(len(ids)), nil
}

type fakeCadenceRepo struct {
	getFn              func(ctx context.Context, contactID, ruleID string) (*domain.CadenceState, error)
	statesForRuleFn    func(ctx context.Context, ruleID string) (map[string]domain.CadenceState, error)
	setLastContactedFn func(ctx context.Context, contactID, ruleID string, at time.Time) error
	setSnoozedUntilFn  func(ctx context.Context, contactID, ruleID string, until time.Time) error
}

func (f *fakeCadenceRepo) Get(ctx context.Context, contactID, ruleID string) (*domain.CadenceState, error) {
	if f.getFn != nil {
		return f.getFn(ctx, contactID, ruleID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCadenceRepo) StatesForRule(ctx context.Context, ruleID string) (map[string]domain.CadenceState, error) {
	if f.statesForRuleFn != nil {
		return f.statesForRuleFn(ctx, ruleID)
	}
	return map[string]domain.CadenceState{}, nil
}

func (f *fakeCadenceRepo) SetLastContacted(ctx context.Context, contactID, ruleID string, at time.Time) error {
	if f.setLastContactedFn != nil {
		return f.setLastContactedFn(ctx, contactID, ruleID, at)
	}
	return nil
}

func (f *fakeCadenceRepo) SetSnoozedUntil(ctx context.Context, contactID, ruleID string, until time.Time) error {
	if f.setSnoozedUntilFn != nil {
		return f.setSnoozedUntilFn(ctx, contactID, ruleID, until)
	}
	return nil
}

type fakeJobRepo struct {
	createRunningFn     func(ctx context.Context, job *domain.JobStatus) error
	getRunningFn        func(ctx context.Context) (*domain.JobStatus, error)
	getByIDFn           func(ctx context.Context, id string) (*domain.JobStatus, error)
	getLatestFn         func(ctx context.Context) (*domain.JobStatus, error)
	updateProgressFn    func(ctx context.Context, job *domain.JobStatus) error
	finishFn            func(ctx context.Context, id string, state domain.JobState, results map[string]domain.RuleResult, lastError string) error
	requestCancelFn     func(ctx context.Context, id string) error
	isCancelRequestedFn func(ctx context.Context, id string) (bool, error)
}

func (f *fakeJobRepo) CreateRunning(ctx context.Context, job *domain.JobStatus) error {
	if f.createRunningFn != nil {
		return f.createRunningFn(ctx, job)
	}
	return nil
}

func (f *fakeJobRepo) GetRunning(ctx context.Context) (*domain.JobStatus, error) {
	if f.getRunningFn != nil {
		return f.getRunningFn(ctx)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id string) (*domain.JobStatus, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeJobRepo) GetLatest(ctx context.Context) (*domain.JobStatus, error) {
	if f.getLatestFn != nil {
		return f.getLatestFn(ctx)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeJobRepo) UpdateProgress(ctx context.Context, job *domain.JobStatus) error {
	if f.updateProgressFn != nil {
		return f.updateProgressFn(ctx, job)
	}
	return nil
}

func (f *fakeJobRepo) Finish(ctx context.Context, id string, state domain.JobState, results map[string]domain.RuleResult, lastError string) error {
	if f.finishFn != nil {
		return f.finishFn(ctx, id, state, results, lastError)
	}
	return nil
}

func (f *fakeJobRepo) RequestCancel(ctx context.Context, id string) error {
	if f.requestCancelFn != nil {
		return f.requestCancelFn(ctx, id)
	}
	return nil
}

func (f *fakeJobRepo) IsCancelRequested(ctx context.Context, id string) (bool, error) {
	if f.isCancelRequestedFn != nil {
		return f.isCancelRequestedFn(ctx, id)
	}
	return false, nil
}

type fakeAuditRepo struct {
	createFn func(ctx context.Context, entry *domain.AuditEntry) error
	listFn   func(ctx context.Context, params repository.AuditListParams) ([]domain.AuditEntry, int64, error)
}

func (f *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, params repository.AuditListParams) ([]domain.AuditEntry, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

type fakeContactStore struct {
	listByStageRolesFn func(ctx context.Context, stages []int, roles []string, limit int) ([]crm.Contact, error)
	getByIDsFn         func(ctx context.Context, ids []string) (map[string]crm.Contact, error)
	getFn              func(ctx context.Context, id string) (*crm.Contact, error)
}

func (f *fakeContactStore) ListByStageRoles(ctx context.Context, stages []int, roles []string, limit int) ([]crm.Contact, error) {
	if f.listByStageRolesFn != nil {
		return f.listByStageRolesFn(ctx, stages, roles, limit)
	}
	return nil, nil
}

func (f *fakeContactStore) GetByIDs(ctx context.Context, ids []string) (map[string]crm.Contact, error) {
	if f.getByIDsFn != nil {
		return f.getByIDsFn(ctx, ids)
	}
	return map[string]crm.Contact{}, nil
}

func (f *fakeContactStore) Get(ctx context.Context, id string) (*crm.Contact, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

type fakeQuoteStore struct {
	activeQuoteEmailsFn func(ctx context.Context) (map[string]struct{}, error)
}

func (f *fakeQuoteStore) ActiveQuoteEmails(ctx context.Context) (map[string]struct{}, error) {
	if f.activeQuoteEmailsFn != nil {
		return f.activeQuoteEmailsFn(ctx)
	}
	return map[string]struct{}{}, nil
}

type fakeWebinarStore struct {
	listUpcomingFn func(ctx context.Context, now time.Time) ([]crm.Webinar, error)
}

func (f *fakeWebinarStore) ListUpcoming(ctx context.Context, now time.Time) ([]crm.Webinar, error) {
	if f.listUpcomingFn != nil {
		return f.listUpcomingFn(ctx, now)
	}
	return nil, nil
}

type fakeCaseStore struct {
	listByStageCodesFn func(ctx context.Context, codes []string) ([]crm.CoachingCase, error)
}

func (f *fakeCaseStore) ListByStageCodes(ctx context.Context, codes []string) ([]crm.CoachingCase, error) {
	if f.listByStageCodesFn != nil {
		return f.listByStageCodesFn(ctx, codes)
	}
	return nil, nil
}

type fakeCalendar struct {
	upcomingEventsFn func(ctx context.Context, from, to time.Time) ([]crm.CalendarEvent, error)
}

func (f *fakeCalendar) UpcomingEvents(ctx context.Context, from, to time.Time) ([]crm.CalendarEvent, error) {
	if f.upcomingEventsFn != nil {
		return f.upcomingEventsFn(ctx, from, to)
	}
	return nil, nil
}

type fakeTransport struct {
	sendFn func(ctx context.Context, msg provider.OutboundMessage) (*provider.SendReceipt, error)
}

func (f *fakeTransport) Send(ctx context.Context, msg provider.OutboundMessage) (*provider.SendReceipt, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return &provider.SendReceipt{StatusCode: 200}, nil
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, channel string) (bool, error)
	waitFn  func(ctx context.Context, channel string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, channel)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, channel string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, channel)
	}
	return nil
}

type fakePublisher struct {
	publishDispatchedFn func(ctx context.Context, event events.DispatchedEvent) error
}

func (f *fakePublisher) PublishDispatched(ctx context.Context, event events.DispatchedEvent) error {
	if f.publishDispatchedFn != nil {
		return f.publishDispatchedFn(ctx, event)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// newTestEvaluator wires an evaluator over the given fakes with a fixed clock.
func newTestEvaluator(
	contacts crm.ContactStore,
	quotes crm.QuoteStore,
	webinars crm.WebinarStore,
	cases crm.CaseStore,
	calendar crm.CalendarProvider,
	cadence repository.CadenceRepository,
	now time.Time,
) *Evaluator {
	eval, err := NewEvaluator(contacts, quotes, webinars, cases, calendar, cadence, 0, nil)
	if err != nil {
		panic(err)
	}
	eval.now = func() time.Time { return now }
	return eval
}
