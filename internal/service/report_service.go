package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voluntrack/voluntrack-api/internal/dto"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
)

const topVolunteerLimit = 10

type reportRepository interface {
	TopVolunteers(ctx context.Context, from, to *time.Time, limit int) ([]dto.VolunteerRanking, error)
	DepartmentStats(ctx context.Context, from, to *time.Time) ([]dto.DepartmentStats, error)
	Totals(ctx context.Context, from, to *time.Time) (float64, int, int, error)
}

// ReportService aggregates participation statistics. Results are
// Redis-cached per date window.
type ReportService struct {
	repo     reportRepository
	cache    dashboardCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewReportService creates a new report service instance.
func NewReportService(repo reportRepository, cache dashboardCache, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Get builds the reports payload for an optional date window. The
// second return value reports whether the payload came from cache.
func (s *ReportService) Get(ctx context.Context, from, to *time.Time) (*dto.ReportsResponse, bool, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "date_from must not be after date_to")
	}

	key := reportCacheKey(from, to)
	if s.cache != nil {
		var cached dto.ReportsResponse
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("reports cache read failed", zap.Error(err))
		}
	}

	topVolunteers, err := s.repo.TopVolunteers(ctx, from, to, topVolunteerLimit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank volunteers")
	}

	departments, err := s.repo.DepartmentStats(ctx, from, to)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate departments")
	}

	totalHours, pending, total, err := s.repo.Totals(ctx, from, to)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute totals")
	}

	response := &dto.ReportsResponse{
		TopVolunteers:      topVolunteers,
		Departments:        departments,
		TotalApprovedHours: totalHours,
		PendingCount:       pending,
		TotalContributions: total,
		DateFrom:           from,
		DateTo:             to,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, response, s.cacheTTL); err != nil {
			s.logger.Warn("reports cache write failed", zap.Error(err))
		}
	}
	return response, false, nil
}

func reportCacheKey(from, to *time.Time) string {
	f, t := "all", "all"
	if from != nil {
		f = from.UTC().Format("2006-01-02")
	}
	if to != nil {
		t = to.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("reports:%s:%s", f, t)
}
