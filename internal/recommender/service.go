// Package recommender is the application service behind the CLI and the
// HTTP API. It validates ratings, memoizes cascade results, stores the
// history and feeds the metrics.
package recommender

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"fuzzymenu/internal/cascade"
	"fuzzymenu/internal/config"
	"fuzzymenu/internal/evaluation"
	"fuzzymenu/internal/fuzzy"
	"fuzzymenu/internal/models"
	"fuzzymenu/internal/monitoring"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
)

// ErrHistoryDisabled is returned by History and Get when no store is configured.
var ErrHistoryDisabled = errors.New("recommendation history is not configured")

// Store persists recommendations. *database.Store satisfies it.
type Store interface {
	Save(r *models.Recommendation) error
	Get(id string) (*models.Recommendation, error)
	List(limit int) ([]models.Recommendation, error)
	CountByDish() (map[string]int, error)
}

// Describer writes a sentence about a recommendation. *narration.Narrator
// satisfies it.
type Describer interface {
	Describe(ctx context.Context, r models.Ratings, res cascade.Result) (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithStore enables history.
func WithStore(s Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithCacheSize sets how many distinct ratings are memoized. Zero disables
// the memo.
func WithCacheSize(n int) Option {
	return func(svc *Service) { svc.cacheSize = n }
}

// WithMetrics records prometheus metrics.
func WithMetrics(mc *evaluation.MetricsCollector) Option {
	return func(svc *Service) { svc.metrics = mc }
}

// WithMonitor records the JSON snapshot.
func WithMonitor(m *monitoring.Monitor) Option {
	return func(svc *Service) { svc.monitor = m }
}

// WithNarrator attaches a narration to every recommendation.
func WithNarrator(d Describer) Option {
	return func(svc *Service) { svc.narrator = d }
}

type memoKey struct {
	preset  string
	ratings models.Ratings
}

// Service answers recommendation requests against one cascade. It is safe
// for concurrent use.
type Service struct {
	cascade   *cascade.Cascade
	store     Store
	memo      *lru.Cache
	cacheSize int
	metrics   *evaluation.MetricsCollector
	monitor   *monitoring.Monitor
	narrator  Describer
	now       func() time.Time
}

// NewService wires a service around c.
func NewService(c *cascade.Cascade, opts ...Option) (*Service, error) {
	if c == nil {
		return nil, errors.New("recommender: nil cascade")
	}
	svc := &Service{cascade: c, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.cacheSize > 0 {
		memo, err := lru.New(svc.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create memo: %w", err)
		}
		svc.memo = memo
	}
	return svc, nil
}

// Preset returns the preset the service runs.
func (s *Service) Preset() config.Preset {
	return s.cascade.Preset()
}

// Menu returns the dishes the service can recommend.
func (s *Service) Menu() *models.Menu {
	return s.cascade.Menu()
}

// Validate rejects ratings that are not finite numbers and, unless the
// preset clamps, ratings outside the input universe.
func (s *Service) Validate(r models.Ratings) error {
	u := s.cascade.InputUniverse()
	clamp := s.cascade.Engines()[0].Policy() == fuzzy.ClampOutOfRange
	for _, f := range []struct {
		name  string
		value float64
	}{
		{config.VarSweetness, r.Sweetness},
		{config.VarSaltiness, r.Saltiness},
		{config.VarBudget, r.Budget},
		{config.VarHunger, r.Hunger},
	} {
		bad := math.IsNaN(f.value) || math.IsInf(f.value, 0)
		if !clamp && !u.Contains(f.value) {
			bad = true
		}
		if bad {
			return &fuzzy.InvalidInputError{Variable: f.name, Value: f.value, Lo: u.Lo(), Hi: u.Hi()}
		}
	}
	return nil
}

// Recommend runs (or recalls) the cascade for r and records the answer.
func (s *Service) Recommend(ctx context.Context, r models.Ratings) (*models.Recommendation, error) {
	preset := s.cascade.Preset().Name
	if err := s.Validate(r); err != nil {
		s.recordFailure(preset)
		return nil, err
	}

	res, cached, err := s.result(preset, r)
	if err != nil {
		s.recordFailure(preset)
		return nil, err
	}

	rec := &models.Recommendation{
		ID:            uuid.NewString(),
		Preset:        preset,
		Sweetness:     r.Sweetness,
		Saltiness:     r.Saltiness,
		Budget:        r.Budget,
		Hunger:        r.Hunger,
		DesiredTaste:  res.DesiredTaste,
		DishIntensity: res.DishIntensity,
		DishIndex:     res.DishIndex,
		DishItem:      res.DishItem,
		DishName:      res.DishName,
		Status:        string(models.RecommendationStatusComputed),
		CreatedAt:     s.now().UTC(),
	}
	if cached {
		rec.Status = string(models.RecommendationStatusCached)
	}

	if s.narrator != nil {
		text, err := s.narrator.Describe(ctx, r, res)
		if err != nil {
			log.Printf("Narration skipped for %s: %v", rec.ID, err)
		} else {
			rec.Narration = text
		}
	}

	if s.store != nil {
		if err := s.store.Save(rec); err != nil {
			return nil, err
		}
	}
	if s.monitor != nil {
		s.monitor.RecordRecommendation(preset, res, cached)
	}
	return rec, nil
}

func (s *Service) result(preset string, r models.Ratings) (cascade.Result, bool, error) {
	key := memoKey{preset: preset, ratings: r}
	if s.memo != nil {
		if v, ok := s.memo.Get(key); ok {
			res := v.(cascade.Result)
			if s.metrics != nil {
				s.metrics.RecordCacheHit(preset, res)
			}
			return res, true, nil
		}
	}

	start := time.Now()
	res, err := s.cascade.Recommend(r)
	if err != nil {
		return cascade.Result{}, false, err
	}
	if s.metrics != nil {
		s.metrics.RecordRecommendation(preset, res, time.Since(start))
	}
	if s.memo != nil {
		s.memo.Add(key, res)
	}
	return res, false, nil
}

func (s *Service) recordFailure(preset string) {
	if s.metrics != nil {
		s.metrics.RecordFailure(preset)
	}
	if s.monitor != nil {
		s.monitor.RecordFailure()
	}
}

// Explain returns the full inference trace for r. Nothing is stored.
func (s *Service) Explain(_ context.Context, r models.Ratings) (*cascade.Explanation, error) {
	if err := s.Validate(r); err != nil {
		return nil, err
	}
	return s.cascade.Explain(r)
}

// History lists stored recommendations, newest first.
func (s *Service) History(_ context.Context, limit int) ([]models.Recommendation, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.List(limit)
}

// Get loads one stored recommendation.
func (s *Service) Get(_ context.Context, id string) (*models.Recommendation, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.Get(id)
}

// DishCounts reports how often each dish appears in the history.
func (s *Service) DishCounts(_ context.Context) (map[string]int, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.CountByDish()
}
