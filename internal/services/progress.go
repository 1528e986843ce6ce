package services

import (
	"context"
	"errors"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/google/uuid"
)

// ProgressStore is the persistence surface the progress service needs
type ProgressStore interface {
	Upsert(ctx context.Context, snapshot *models.ProgressSnapshot) error
	List(ctx context.Context, userID string, from, to *models.Date) ([]*models.ProgressSnapshot, error)
	Latest(ctx context.Context, userID string) (*models.ProgressSnapshot, error)
	LatestOnOrBefore(ctx context.Context, userID string, date models.Date) (*models.ProgressSnapshot, error)
}

// ProgressService handles progress snapshot business logic
type ProgressService struct {
	progressRepo ProgressStore
	couples      PartnerFinder
	access       AccessChecker
	userRepo     UserStore
}

// NewProgressService creates a new progress service
func NewProgressService(progressRepo ProgressStore, couples PartnerFinder, access AccessChecker, userRepo UserStore) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		couples:      couples,
		access:       access,
		userRepo:     userRepo,
	}
}

// Upsert writes the snapshot for (user, date). A snapshot already on that
// date keeps its identity; only the metrics bag is replaced.
func (s *ProgressService) Upsert(ctx context.Context, userID string, date models.Date, metrics map[string]float64) (*models.ProgressSnapshot, error) {
	if len(metrics) == 0 {
		return nil, apperror.Validation("metrics must not be empty")
	}

	snapshot := &models.ProgressSnapshot{
		ID:      uuid.New().String(),
		UserID:  userID,
		Date:    date,
		Metrics: metrics,
	}
	if err := s.progressRepo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// List returns the caller's snapshots, optionally bounded by date
func (s *ProgressService) List(ctx context.Context, userID string, from, to *models.Date) ([]*models.ProgressSnapshot, error) {
	return s.progressRepo.List(ctx, userID, from, to)
}

// PartnerProgress is the partner endpoint response
type PartnerProgress struct {
	PartnerName string                     `json:"partner_name"`
	Progress    []*models.ProgressSnapshot `json:"progress"`
}

// Partner returns the partner's snapshots, gated on a progress grant from
// the partner to the caller. Being paired is not enough on its own.
func (s *ProgressService) Partner(ctx context.Context, userID string, from, to *models.Date) (*PartnerProgress, error) {
	partner, err := s.couples.GetPartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckAccess(ctx, userID, partner.UserID, ResourceProgress); err != nil {
		return nil, err
	}

	snapshots, err := s.progressRepo.List(ctx, partner.UserID, from, to)
	if err != nil {
		return nil, err
	}

	partnerUser, err := s.userRepo.GetByID(ctx, partner.UserID)
	if err != nil {
		return nil, err
	}
	return &PartnerProgress{
		PartnerName: partnerUser.DisplayName,
		Progress:    snapshots,
	}, nil
}

// ProgressSummary compares the latest snapshot with the latest one dated at
// least 30 days earlier
type ProgressSummary struct {
	Current      map[string]float64 `json:"current"`
	CurrentDate  *models.Date       `json:"current_date"`
	Previous     map[string]float64 `json:"previous"`
	PreviousDate *models.Date       `json:"previous_date"`
	Changes      map[string]float64 `json:"changes"`
}

// Summary computes per-key deltas between the most recent snapshot and the
// most recent snapshot dated on or before 30 days ago. Keys present in only
// one of the two bags are skipped.
func (s *ProgressService) Summary(ctx context.Context, userID string) (*ProgressSummary, error) {
	summary := &ProgressSummary{
		Current:  map[string]float64{},
		Previous: map[string]float64{},
		Changes:  map[string]float64{},
	}

	latest, err := s.progressRepo.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return summary, nil
		}
		return nil, err
	}
	summary.Current = latest.Metrics
	summary.CurrentDate = &latest.Date

	previous, err := s.progressRepo.LatestOnOrBefore(ctx, userID, models.Today().AddDays(-30))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return summary, nil
		}
		return nil, err
	}
	summary.Previous = previous.Metrics
	summary.PreviousDate = &previous.Date

	for key, current := range latest.Metrics {
		if prev, ok := previous.Metrics[key]; ok {
			summary.Changes[key] = current - prev
		}
	}
	return summary, nil
}
