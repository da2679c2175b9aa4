package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/dilshand3/SubsFlow/internal/cache"
	"github.com/dilshand3/SubsFlow/internal/logger"
)

var ErrValidation = errors.New("validation failed")

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	Edit(ctx context.Context, id string, req EditPlanRequest) (*Plan, error)
	// Retire hard-deletes a plan nothing ever subscribed to, otherwise marks
	// it inactive. Returns true when the plan was hard-deleted.
	Retire(ctx context.Context, id string) (bool, error)
	ListActive(ctx context.Context) ([]Plan, error)
	ListAll(ctx context.Context) ([]Plan, error)
}

type service struct {
	repo  Repository
	cache *cache.Cache
}

func NewService(repo Repository, c *cache.Cache) Service {
	return &service{repo: repo, cache: c}
}

func (s *service) Create(ctx context.Context, req CreatePlanRequest) (*Plan, error) {
	if req.Name == "" || req.Description == "" {
		return nil, fmt.Errorf("%w: name and description are required", ErrValidation)
	}
	if !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	}
	if req.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration_days must be a positive integer", ErrValidation)
	}
	if req.TotalCapacity <= 0 {
		return nil, fmt.Errorf("%w: total_capacity must be a positive integer", ErrValidation)
	}

	plan, err := s.repo.Create(ctx, req.Name, req.Description, req.Price, req.DurationDays, req.TotalCapacity)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePlanViews(ctx)
	logger.Infof("Plan created: %s (%s), capacity %d", plan.Name, plan.ID, plan.TotalCapacity)

	return plan, nil
}

func (s *service) Edit(ctx context.Context, id string, req EditPlanRequest) (*Plan, error) {
	if req.Name == nil && req.Description == nil && req.Price == nil &&
		req.DurationDays == nil && req.TotalCapacity == nil && req.Status == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	}
	if req.DurationDays != nil && *req.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration_days must be a positive integer", ErrValidation)
	}
	if req.TotalCapacity != nil && *req.TotalCapacity <= 0 {
		return nil, fmt.Errorf("%w: total_capacity must be a positive integer", ErrValidation)
	}
	if req.Status != nil && *req.Status != StatusActive && *req.Status != StatusInactive {
		return nil, fmt.Errorf("%w: status must be active or inactive", ErrValidation)
	}

	if req.TotalCapacity != nil {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		// Capacity can never drop below the unsold seats still on the row.
		// Raising it does not mint seats either: subscriptions_left only
		// moves through purchases and cancellations.
		if *req.TotalCapacity < current.SubscriptionsLeft {
			return nil, fmt.Errorf("%w: total_capacity cannot drop below %d unsold seats",
				ErrValidation, current.SubscriptionsLeft)
		}
	}

	plan, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePlanViews(ctx)

	return plan, nil
}

func (s *service) Retire(ctx context.Context, id string) (bool, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return false, err
	}

	hasSubs, err := s.repo.HasSubscriptions(ctx, id)
	if err != nil {
		return false, err
	}

	if !hasSubs {
		if err := s.repo.Delete(ctx, id); err != nil {
			return false, err
		}
		s.cache.InvalidatePlanViews(ctx)
		logger.Infof("Plan %s hard-deleted (never subscribed)", id)
		return true, nil
	}

	// Subscription history references the plan; keep the row but block new
	// purchases. Seat counts are left untouched.
	status := StatusInactive
	if _, err := s.repo.Update(ctx, id, EditPlanRequest{Status: &status}); err != nil {
		return false, err
	}

	s.cache.InvalidatePlanViews(ctx)
	logger.Infof("Plan %s marked inactive", id)

	return false, nil
}

func (s *service) ListActive(ctx context.Context) ([]Plan, error) {
	var cached []Plan
	if hit, err := s.cache.GetJSON(ctx, cache.AllPlansListKey, &cached); err == nil && hit {
		return cached, nil
	}

	plans, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if len(plans) > 0 {
		if err := s.cache.SetJSON(ctx, cache.AllPlansListKey, plans, cache.PlanListTTL); err != nil {
			logger.Errorf("Failed to cache active plans: %v", err)
		}
	}

	return plans, nil
}

func (s *service) ListAll(ctx context.Context) ([]Plan, error) {
	var cached []Plan
	if hit, err := s.cache.GetJSON(ctx, cache.PlansListForAdminKey, &cached); err == nil && hit {
		return cached, nil
	}

	plans, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if len(plans) > 0 {
		if err := s.cache.SetJSON(ctx, cache.PlansListForAdminKey, plans, cache.PlanListTTL); err != nil {
			logger.Errorf("Failed to cache admin plan list: %v", err)
		}
	}

	return plans, nil
}
