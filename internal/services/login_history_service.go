package services

import (
	"context"
	"time"

	"salesdesk/internal/domain"
	"salesdesk/internal/repos"
)

type LoginHistoryService struct {
	History *repos.LoginHistoryRepo
	Now     func() time.Time
}

// RecentSummary aggregates the login attempts of a recent window.
type RecentSummary struct {
	Hours      int                  `json:"hours"`
	Total      int                  `json:"total"`
	Successful int                  `json:"successful"`
	Failed     int                  `json:"failed"`
	Suspicious int                  `json:"suspicious"`
	ByDevice   map[string]int       `json:"by_device"`
	ByHour     map[int]int          `json:"by_hour"`
	Records    []domain.LoginRecord `json:"records"`
}

func (s *LoginHistoryService) ForUser(ctx context.Context, caller domain.Caller, userID string, limit int) ([]domain.LoginRecord, error) {
	if !caller.IsAdmin() && caller.ID != userID {
		return nil, &domain.ForbiddenError{Action: "read another user's login history"}
	}
	return s.History.ByUser(ctx, userID, limit)
}

func (s *LoginHistoryService) All(ctx context.Context, caller domain.Caller, limit int) ([]domain.LoginRecord, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "read login history"}
	}
	return s.History.All(ctx, limit)
}

func (s *LoginHistoryService) Failed(ctx context.Context, caller domain.Caller, limit int) ([]domain.LoginRecord, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "read login history"}
	}
	return s.History.Failed(ctx, limit)
}

// Recent summarises the last hours of login activity (1..720, default 24).
func (s *LoginHistoryService) Recent(ctx context.Context, caller domain.Caller, hours int) (*RecentSummary, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "read login history"}
	}
	if hours <= 0 {
		hours = 24
	}
	if hours > 720 {
		hours = 720
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	recs, err := s.History.Since(ctx, now().UTC().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, err
	}
	sum := &RecentSummary{Hours: hours, ByDevice: map[string]int{}, ByHour: map[int]int{}, Records: recs}
	for _, r := range recs {
		sum.Total++
		if r.Success {
			sum.Successful++
		} else {
			sum.Failed++
		}
		if r.Suspicious {
			sum.Suspicious++
		}
		sum.ByDevice[r.DeviceType]++
		sum.ByHour[r.CreatedAt.Hour()]++
	}
	return sum, nil
}
