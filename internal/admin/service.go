package admin

import (
	"context"

	"github.com/dilshand3/SubsFlow/internal/audit"
	"github.com/dilshand3/SubsFlow/internal/cache"
	"github.com/dilshand3/SubsFlow/internal/logger"
)

type Service interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	AuditHistory(ctx context.Context, customerID string) ([]audit.HistoryEntry, error)
}

type service struct {
	repo      Repository
	auditRepo audit.Repository
	cache     *cache.Cache
}

func NewService(repo Repository, auditRepo audit.Repository, c *cache.Cache) Service {
	return &service{repo: repo, auditRepo: auditRepo, cache: c}
}

func (s *service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var cached DashboardStats
	if hit, err := s.cache.GetJSON(ctx, cache.AdminStatsKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stats, err := s.repo.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, cache.AdminStatsKey, stats, cache.StatsTTL); err != nil {
		logger.Errorf("Failed to cache dashboard stats: %v", err)
	}

	return stats, nil
}

func (s *service) AuditHistory(ctx context.Context, customerID string) ([]audit.HistoryEntry, error) {
	key := cache.AuditLogsAllKey
	if customerID != "" {
		key = cache.AuditLogsUserKey(customerID)
	}

	var cached []audit.HistoryEntry
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	entries, err := s.auditRepo.History(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, entries, cache.AuditLogsTTL); err != nil {
		logger.Errorf("Failed to cache audit history: %v", err)
	}

	return entries, nil
}
