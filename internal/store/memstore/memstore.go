// Package memstore is a non-durable, process-local store. It backs local
// development (STORE_DRIVER=memory) and the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	responses []*models.OnboardingResponse
	legacy    []models.LegacyResponse
	users     map[string]*models.User
	logs      []models.SystemLog
}

var (
	_ store.Store          = (*Store)(nil)
	_ store.LegacyMigrator = (*Store)(nil)
)

func New() *Store {
	return &Store{users: make(map[string]*models.User)}
}

func (s *Store) Insert(_ context.Context, resp *models.OnboardingResponse) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := clone(resp)
	c.ID = uuid.NewString()
	s.responses = append(s.responses, c)
	return c.ID, nil
}

func (s *Store) Upsert(_ context.Context, resp *models.OnboardingResponse) (*models.OnboardingResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.responses {
		if existing.UserID != resp.UserID {
			continue
		}
		existing.Username = resp.Username
		existing.QuestionSet = resp.QuestionSet
		existing.Answers = resp.Answers.Clone()
		existing.FormattedAnswers = copyStrings(resp.FormattedAnswers)
		existing.UpdatedAt = resp.UpdatedAt
		return clone(existing), nil
	}
	c := clone(resp)
	c.ID = uuid.NewString()
	s.responses = append(s.responses, c)
	return clone(c), nil
}

func (s *Store) FindByID(_ context.Context, id string) (*models.OnboardingResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.responses {
		if r.ID == id {
			return clone(r), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindByUser(_ context.Context, userID string, skip, limit int) ([]models.OnboardingResponse, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.OnboardingResponse
	for _, r := range s.responses {
		if r.UserID == userID {
			matched = append(matched, r)
		}
	}
	return page(newestFirst(matched), skip, limit), int64(len(matched)), nil
}

func (s *Store) Recent(_ context.Context, limit int) ([]models.OnboardingResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := append([]*models.OnboardingResponse(nil), s.responses...)
	return page(newestFirst(all), 0, limit), nil
}

func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.responses)), nil
}

func (s *Store) CountByAnswer(_ context.Context, key string, multi bool) ([]models.ValueCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	var order []string
	bump := func(v string) {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	for _, r := range s.responses {
		if multi {
			for _, v := range r.Answers.Selection(key) {
				bump(v)
			}
			continue
		}
		if v, ok := r.Answers[key].(string); ok {
			bump(v)
		}
	}

	out := make([]models.ValueCount, len(order))
	for i, v := range order {
		out[i] = models.ValueCount{Value: v, Count: counts[v]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.FirebaseUID == u.FirebaseUID {
			return store.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) FindUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.FirebaseUID == uid {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) MarkOnboardingComplete(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.HasCompletedOnboarding = true
	u.UpdatedAt = at
	return nil
}

func (s *Store) WriteLogs(_ context.Context, logs []models.SystemLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, logs...)
	return nil
}

func (s *Store) PurgeLogsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.logs[:0]
	var purged int64
	for _, l := range s.logs {
		if l.Timestamp.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, l)
	}
	s.logs = kept
	return purged, nil
}

// Logs returns a copy of the stored error logs.
func (s *Store) Logs() []models.SystemLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SystemLog(nil), s.logs...)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Describe(context.Context) (*models.DatabaseInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.DatabaseInfo{
		Driver:   "memory",
		Database: "memory",
		Collections: []models.CollectionInfo{
			{Name: "onboarding", Type: "collection", Count: int64(len(s.responses) + len(s.legacy))},
			{Name: "users", Type: "collection", Count: int64(len(s.users))},
			{Name: "system_logs", Type: "collection", Count: int64(len(s.logs))},
		},
	}, nil
}

func (s *Store) Close(context.Context) error { return nil }

// AddLegacy stores a document in a pre-canonical layout and returns its id.
func (s *Store) AddLegacy(raw map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.legacy = append(s.legacy, models.LegacyResponse{ID: id, Raw: raw})
	return id
}

func (s *Store) LegacyResponses(context.Context) ([]models.LegacyResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.LegacyResponse(nil), s.legacy...), nil
}

func (s *Store) ReplaceLegacy(_ context.Context, id string, resp *models.OnboardingResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.legacy {
		if l.ID != id {
			continue
		}
		s.legacy = append(s.legacy[:i], s.legacy[i+1:]...)
		c := clone(resp)
		c.ID = id
		s.responses = append(s.responses, c)
		return nil
	}
	return store.ErrNotFound
}

func newestFirst(in []*models.OnboardingResponse) []*models.OnboardingResponse {
	out := make([]*models.OnboardingResponse, len(in))
	for i := range in {
		out[len(in)-1-i] = in[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func page(in []*models.OnboardingResponse, skip, limit int) []models.OnboardingResponse {
	if skip >= len(in) {
		return []models.OnboardingResponse{}
	}
	in = in[skip:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	out := make([]models.OnboardingResponse, len(in))
	for i, r := range in {
		out[i] = *clone(r)
	}
	return out
}

func clone(r *models.OnboardingResponse) *models.OnboardingResponse {
	c := *r
	c.Answers = r.Answers.Clone()
	c.FormattedAnswers = copyStrings(r.FormattedAnswers)
	return &c
}

func copyStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
