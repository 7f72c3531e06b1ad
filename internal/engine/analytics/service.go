package analytics

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultDays = 30
	MaxDays     = 365
)

type Report struct {
	Overview *Overview      `json:"overview"`
	Signups  []DailySignups `json:"signups"`
	Days     int            `json:"days"`
}

type Service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	o, err := s.repo.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("load overview: %w", err)
	}
	return o, nil
}

// SignupsByDay covers the last days calendar days including today.
// Out of range values fall back to DefaultDays.
func (s *Service) SignupsByDay(ctx context.Context, days int) ([]DailySignups, error) {
	days = clampDays(days)
	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1)).Unix()

	stats, err := s.repo.SignupsByDay(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load signups: %w", err)
	}
	return stats, nil
}

func (s *Service) Report(ctx context.Context, days int) (*Report, error) {
	o, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	signups, err := s.SignupsByDay(ctx, days)
	if err != nil {
		return nil, err
	}
	return &Report{Overview: o, Signups: signups, Days: clampDays(days)}, nil
}

func clampDays(days int) int {
	if days <= 0 || days > MaxDays {
		return DefaultDays
	}
	return days
}
