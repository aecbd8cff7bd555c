package services

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/questions"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

type StatsService struct {
	store store.ResponseStore
	set   *questions.Set
}

func NewStatsService(st store.ResponseStore, set *questions.Set) *StatsService {
	return &StatsService{store: st, set: set}
}

// Compute counts answers per choice question, most frequent first. A
// non-empty question restricts the result to that key.
func (s *StatsService) Compute(ctx context.Context, question string) (*dto.StatsResponse, error) {
	targets := s.set.ChoiceQuestions()
	if question != "" {
		q, ok := s.set.Question(question)
		if !ok || !q.IsChoice() {
			return nil, fmt.Errorf("%w: %q is not a choice question of %s", ErrUnknownQuestion, question, s.set.Version)
		}
		targets = []*questions.Question{q}
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, storageErr(ctx, "count onboardings", err)
	}

	out := &dto.StatsResponse{
		TotalOnboardings: total,
		QuestionSet:      s.set.Version,
		Distributions:    make([]dto.Distribution, 0, len(targets)),
	}
	for _, q := range targets {
		counts, err := s.store.CountByAnswer(ctx, q.Key, q.Type == questions.KindMultiple)
		if err != nil {
			return nil, storageErr(ctx, "count "+q.Key, err)
		}
		out.Distributions = append(out.Distributions, dto.Distribution{
			Question: q.Key,
			Type:     q.Type,
			Counts:   counts,
		})
	}
	return out, nil
}
