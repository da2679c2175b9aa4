package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dilshand3/SubsFlow/internal/audit"
	"github.com/dilshand3/SubsFlow/internal/cache"
	"github.com/dilshand3/SubsFlow/internal/customer"
	"github.com/dilshand3/SubsFlow/internal/logger"
	"github.com/dilshand3/SubsFlow/internal/metrics"
	"github.com/dilshand3/SubsFlow/internal/plan"
)

// Notifier sends lifecycle emails; failures never affect the operation.
type Notifier interface {
	SendSubscriptionConfirmation(ctx context.Context, to, name, planName string, endDate time.Time) error
	SendCancellationNotice(ctx context.Context, to, name, planName string) error
	SendPlanChangeNotice(ctx context.Context, to, name, planName string, endDate time.Time) error
}

type Service interface {
	Purchase(ctx context.Context, customerID, planID string) (*Subscription, error)
	Cancel(ctx context.Context, customerID, subscriptionID string) (*Subscription, error)
	Switch(ctx context.Context, customerID, currentSubID, newPlanID string) (*Subscription, error)
	// Reconcile replays a failed purchase/change attempt from its audit
	// entry. The bool reports whether the subscription already existed and
	// nothing was granted.
	Reconcile(ctx context.Context, adminID, auditLogID string) (*Subscription, bool, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Subscription, error)
}

type service struct {
	repo         Repository
	auditRepo    audit.Repository
	customerRepo customer.Repository
	planRepo     plan.Repository
	cache        *cache.Cache
	notifier     Notifier
}

func NewService(
	repo Repository,
	auditRepo audit.Repository,
	customerRepo customer.Repository,
	planRepo plan.Repository,
	c *cache.Cache,
	notifier Notifier,
) Service {
	return &service{
		repo:         repo,
		auditRepo:    auditRepo,
		customerRepo: customerRepo,
		planRepo:     planRepo,
		cache:        c,
		notifier:     notifier,
	}
}

func (s *service) Purchase(ctx context.Context, customerID, planID string) (*Subscription, error) {
	active, err := s.repo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		// Cross-plan upgrades go through Switch, never a second purchase.
		return nil, ErrAlreadySubscribed
	}

	key := IdempotencyKey(customerID, planID)
	existing, err := s.repo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicatePurchaseError{Existing: existing}
	}

	// The attempt record is written before the transaction so a crash
	// mid-transaction still leaves a trail for reconciliation.
	entry, err := s.auditRepo.Create(ctx, customerID, audit.PurchaseAttempt,
		"Purchase attempt started",
		audit.AttemptContext{PlanID: planID, IdempotencyKey: key},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record purchase attempt: %w", err)
	}

	sub, err := s.repo.Purchase(ctx, customerID, planID, key, entry.ID)
	if err != nil {
		s.failAttempt(ctx, entry.ID, audit.PurchaseFailed, err)
		metrics.RecordPurchase(purchaseOutcome(err))

		if errors.Is(err, ErrDuplicateKey) {
			if dup, lookupErr := s.repo.GetByIdempotencyKey(ctx, key); lookupErr == nil && dup != nil {
				return nil, &DuplicatePurchaseError{Existing: dup}
			}
		}
		return nil, err
	}

	metrics.RecordPurchase("success")
	s.cache.InvalidateSubscriptionViews(ctx, customerID)
	s.notifyPurchase(ctx, sub)
	logger.Infof("Subscription %s activated: customer=%s plan=%s", sub.ID, customerID, planID)

	return sub, nil
}

func (s *service) Cancel(ctx context.Context, customerID, subscriptionID string) (*Subscription, error) {
	sub, err := s.repo.Cancel(ctx, customerID, subscriptionID)
	if err != nil {
		return nil, err
	}

	metrics.RecordCancellation()
	s.cache.InvalidateSubscriptionViews(ctx, customerID)
	s.notifyCancellation(ctx, sub)
	logger.Infof("Subscription %s cancelled: customer=%s", sub.ID, customerID)

	return sub, nil
}

func (s *service) Switch(ctx context.Context, customerID, currentSubID, newPlanID string) (*Subscription, error) {
	current, err := s.repo.GetByID(ctx, currentSubID)
	if err != nil {
		return nil, err
	}
	if current.CustomerID != customerID {
		return nil, ErrSubscriptionNotFound
	}
	if current.Status != StatusActive {
		return nil, ErrAlreadyCancelled
	}
	if current.PlanID == newPlanID {
		_, auditErr := s.auditRepo.Create(ctx, customerID, audit.PlanChangeSkipped,
			"Plan change skipped: new plan equals current plan",
			audit.AttemptContext{PlanID: newPlanID, CurrentSubID: currentSubID},
		)
		if auditErr != nil {
			logger.Errorf("Failed to record skipped plan change: %v", auditErr)
		}
		return nil, ErrSamePlan
	}

	key := IdempotencyKey(customerID, newPlanID)
	entry, err := s.auditRepo.Create(ctx, customerID, audit.PlanChangeAttempt,
		"Plan change attempt started",
		audit.AttemptContext{PlanID: newPlanID, CurrentSubID: currentSubID, IdempotencyKey: key},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record plan change attempt: %w", err)
	}

	sub, event, err := s.repo.Switch(ctx, customerID, currentSubID, newPlanID, key, entry.ID)
	if err != nil {
		s.failAttempt(ctx, entry.ID, audit.PlanChangeInterrupted, err)

		if errors.Is(err, ErrDuplicateKey) {
			if dup, lookupErr := s.repo.GetByIdempotencyKey(ctx, key); lookupErr == nil && dup != nil {
				return nil, &DuplicatePurchaseError{Existing: dup}
			}
		}
		return nil, err
	}

	direction := "downgrade"
	if event == audit.UpgradeSuccess {
		direction = "upgrade"
	}
	metrics.RecordPlanSwitch(direction)
	s.cache.InvalidateSubscriptionViews(ctx, customerID)
	s.notifyPlanChange(ctx, sub)
	logger.Infof("Subscription switched (%s): customer=%s %s -> %s", direction, customerID, current.PlanID, newPlanID)

	return sub, nil
}

func (s *service) Reconcile(ctx context.Context, adminID, auditLogID string) (*Subscription, bool, error) {
	entry, err := s.auditRepo.GetByID(ctx, auditLogID)
	if err != nil {
		return nil, false, err
	}

	attempt, err := audit.DecodeAttemptContext(entry.Metadata)
	if err != nil {
		return nil, false, err
	}

	key := attempt.IdempotencyKey
	if key == "" {
		key = fmt.Sprintf("ADMIN_FIX_%s_%s_%d", entry.CustomerID, attempt.PlanID, time.Now().UnixMilli())
	}

	// Anti-double-grant check: if any row already bears the key the attempt
	// actually completed, so only the audit entry needs fixing.
	existing, err := s.repo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if err := s.auditRepo.UpdateOutcome(ctx, auditLogID, audit.PurchaseSuccess, "Marked as success (already exists)"); err != nil {
			return nil, false, err
		}
		metrics.RecordReconciliation("already_exists")
		return existing, true, nil
	}

	sub, err := s.repo.Reconcile(ctx, adminID, entry.CustomerID, attempt.PlanID, attempt.CurrentSubID, key, auditLogID)
	if err != nil {
		// On PLAN_FULL the entry stays unresolved for a later retry.
		metrics.RecordReconciliation("failed")
		return nil, false, err
	}

	metrics.RecordReconciliation("resolved")
	s.cache.InvalidateSubscriptionViews(ctx, entry.CustomerID)
	logger.Infof("Audit entry %s reconciled by admin %s: subscription %s", auditLogID, adminID, sub.ID)

	return sub, false, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID string) ([]Subscription, error) {
	var cached []Subscription
	if hit, err := s.cache.GetJSON(ctx, cache.UserSubsKey(customerID), &cached); err == nil && hit {
		return cached, nil
	}

	subs, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, cache.UserSubsKey(customerID), subs, cache.UserSubsTTL); err != nil {
		logger.Errorf("Failed to cache subscriptions for %s: %v", customerID, err)
	}

	return subs, nil
}

// failAttempt records the terminal outcome of a failed attempt outside the
// rolled-back transaction; without it the attempt could never be reconciled.
func (s *service) failAttempt(ctx context.Context, entryID string, event audit.EventType, cause error) {
	if err := s.auditRepo.UpdateOutcome(ctx, entryID, event, "Operation failed: "+cause.Error()); err != nil {
		logger.Errorf("Failed to update audit entry %s to %s: %v", entryID, event, err)
	}
}

func purchaseOutcome(err error) string {
	switch {
	case errors.Is(err, ErrPlanSoldOut):
		return "sold_out"
	case errors.Is(err, ErrPlanNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate"
	case errors.Is(err, ErrAlreadySubscribed):
		return "already_active"
	default:
		return "failed"
	}
}

func (s *service) notifyPurchase(ctx context.Context, sub *Subscription) {
	cust, planName, ok := s.lookupNotifyTargets(ctx, sub)
	if !ok {
		return
	}
	if err := s.notifier.SendSubscriptionConfirmation(ctx, cust.Email, cust.Name, planName, sub.EndDate); err != nil {
		logger.Errorf("Failed to queue confirmation email for %s: %v", sub.ID, err)
	}
}

func (s *service) notifyCancellation(ctx context.Context, sub *Subscription) {
	cust, planName, ok := s.lookupNotifyTargets(ctx, sub)
	if !ok {
		return
	}
	if err := s.notifier.SendCancellationNotice(ctx, cust.Email, cust.Name, planName); err != nil {
		logger.Errorf("Failed to queue cancellation email for %s: %v", sub.ID, err)
	}
}

func (s *service) notifyPlanChange(ctx context.Context, sub *Subscription) {
	cust, planName, ok := s.lookupNotifyTargets(ctx, sub)
	if !ok {
		return
	}
	if err := s.notifier.SendPlanChangeNotice(ctx, cust.Email, cust.Name, planName, sub.EndDate); err != nil {
		logger.Errorf("Failed to queue plan change email for %s: %v", sub.ID, err)
	}
}

func (s *service) lookupNotifyTargets(ctx context.Context, sub *Subscription) (*customer.Customer, string, bool) {
	if s.notifier == nil {
		return nil, "", false
	}

	cust, err := s.customerRepo.FindByID(ctx, sub.CustomerID)
	if err != nil {
		logger.Errorf("Skipping notification, customer %s not loadable: %v", sub.CustomerID, err)
		return nil, "", false
	}

	planName := sub.PlanID
	if p, err := s.planRepo.GetByID(ctx, sub.PlanID); err == nil {
		planName = p.Name
	}

	return cust, planName, true
}
