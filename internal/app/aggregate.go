package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"github.com/tneacademy/vantage/internal/adapters/upstream"
	"github.com/tneacademy/vantage/internal/domain/derive"
	"github.com/tneacademy/vantage/internal/domain/model"
	"github.com/tneacademy/vantage/pkg/logger"
	"github.com/tneacademy/vantage/pkg/metrics"
)

// Cache key prefixes. Identity-scoped reads are keyed by token fingerprint,
// assessment-scoped reads by assessment id.
const (
	cacheKeyUser        = "user:"
	cacheKeyAssessments = "assessments:"
	cacheKeyScores      = "scores:"
	cacheKeyBenchmarks  = "benchmarks:"
)

// Source names used as metric labels.
const (
	sourceUser        = "user"
	sourceAssessments = "assessments"
	sourceScores      = "scores"
	sourceYearScores  = "year_scores"
	sourceBenchmarks  = "benchmarks"
)

// assembly accumulates one request's settling sources. Every field is
// written under mu so a budget-expired snapshot never races the pipeline.
type assembly struct {
	mu sync.Mutex

	err         error // rejected identity read; terminal
	user        *model.User
	assessments []model.Assessment
	latest      *model.ScoreReport
	benchmarks  *model.BenchmarkComparison
	yearScores  []model.YearScore
	states      model.SourceStates
}

// failure returns the terminal assembly error, if any.
func (a *assembly) failure() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// snapshot projects the current assembly into a served view-model. Sources
// that have not settled report pending with their loading flag raised.
func (a *assembly) snapshot() *model.Dashboard {
	a.mu.Lock()
	defer a.mu.Unlock()

	d := &model.Dashboard{
		User:          a.user,
		Assessments:   a.assessments,
		LatestScores:  a.latest,
		AllYearScores: a.yearScores,
		Benchmarks:    a.benchmarks,
		StatusCounts:  derive.CountStatuses(a.assessments),
		Sources:       a.states,
	}

	// Collections serialize as [] rather than null
	if d.Assessments == nil {
		d.Assessments = []model.Assessment{}
	}
	if d.AllYearScores == nil {
		d.AllYearScores = []model.YearScore{}
	}

	mark := func(state *model.SourceState, loading *bool) {
		if *state == "" {
			*state = model.SourcePending
			*loading = true
		}
	}
	mark(&d.Sources.User, &d.Loading.User)
	mark(&d.Sources.Assessments, &d.Loading.Assessments)
	mark(&d.Sources.Scores, &d.Loading.Scores)
	mark(&d.Sources.YearScores, &d.Loading.YearScores)
	mark(&d.Sources.Benchmarks, &d.Loading.Benchmarks)

	return d
}

// Dashboard assembles the view-model for the session behind token.
//
// A negative budget applies the configured default; zero waits for full
// settlement; a positive budget returns whatever has settled when it
// elapses, with unresolved sources reporting pending and loading true.
func (s *Service) Dashboard(ctx context.Context, token string, budget time.Duration) (*model.Dashboard, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	if budget < 0 {
		budget = s.defaultBudget
	}

	start := time.Now()
	fp := tokenFingerprint(token)
	asm := &assembly{}

	s.logger.Debug(ctx, "assembling dashboard",
		logger.String("session", fp),
		logger.Int("budgetMs", int(budget.Milliseconds())),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.assemble(ctx, token, fp, asm)
	}()

	var budgetCh <-chan time.Time
	if budget > 0 {
		timer := time.NewTimer(budget)
		defer timer.Stop()
		budgetCh = timer.C
	}

	select {
	case <-done:
	case <-budgetCh:
		// Serve whatever has settled; the pipeline keeps warming the cache.
	case <-ctx.Done():
		metrics.RecordDashboardAssembled("canceled")
		return nil, ctx.Err()
	}

	if err := asm.failure(); err != nil {
		metrics.RecordDashboardAssembled("unauthorized")
		metrics.RecordAssemblyLatency(float64(time.Since(start).Milliseconds()))
		s.logger.Warn(ctx, "dashboard assembly rejected",
			logger.String("session", fp),
			logger.Error(err),
		)
		return nil, err
	}

	d := asm.snapshot()

	latency := float64(time.Since(start).Milliseconds())
	metrics.RecordAssemblyLatency(latency)

	outcome := "ok"
	if d.Loading.Any() {
		outcome = "partial"
	}
	metrics.RecordDashboardAssembled(outcome)
	recordSourceStates(d.Sources)

	s.assembled.Add(1)
	s.logger.Debug(ctx, "dashboard assembled",
		logger.String("session", fp),
		logger.String("outcome", outcome),
		logger.Int("assessments", len(d.Assessments)),
		logger.Int("trendPoints", len(d.AllYearScores)),
		logger.Float64("latencyMs", latency),
	)

	return d, nil
}

// assemble runs the two-stage pipeline, settling sources into asm as they
// resolve. It returns when every source has settled or the identity read
// was rejected.
func (s *Service) assemble(ctx context.Context, token, fp string, asm *assembly) {
	// Stage 1: identity and assessment list, independent and parallel.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := s.cachedUser(gctx, token, fp)
		asm.mu.Lock()
		defer asm.mu.Unlock()
		switch {
		case err == nil:
			asm.user = user
			asm.states.User = model.SourceOK
		case errors.Is(err, upstream.ErrUnauthorized):
			// The one failure that propagates: no identity, no dashboard.
			asm.states.User = model.SourceFailed
			asm.err = fmt.Errorf("%w: %w", ErrUnauthorized, err)
			return asm.err
		default:
			asm.states.User = model.SourceFailed
		}
		return nil
	})

	g.Go(func() error {
		assessments, err := s.cachedAssessments(gctx, token, fp)
		asm.mu.Lock()
		defer asm.mu.Unlock()
		switch {
		case err != nil:
			asm.states.Assessments = model.SourceFailed
		case len(assessments) == 0:
			asm.states.Assessments = model.SourceEmpty
		default:
			asm.assessments = assessments
			asm.states.Assessments = model.SourceOK
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return
	}

	// Derivation: pick the stage-2 fetch targets from whatever the
	// assessment read produced.
	asm.mu.Lock()
	scored := derive.ScoredAssessments(asm.assessments)
	latest, haveLatest := derive.LatestScored(asm.assessments)
	asm.mu.Unlock()

	if !haveLatest {
		// Nothing scored: stage-2 reads are never issued.
		asm.mu.Lock()
		asm.states.Scores = model.SourceSkipped
		asm.states.YearScores = model.SourceSkipped
		asm.states.Benchmarks = model.SourceSkipped
		asm.mu.Unlock()
		return
	}

	// Stage 2: authoritative reads for the latest scored assessment run
	// concurrently with the per-assessment trend fan-out.
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		report, err := s.cachedScores(ctx, token, latest.ID)
		asm.mu.Lock()
		defer asm.mu.Unlock()
		if err != nil {
			asm.states.Scores = model.SourceFailed
			return
		}
		asm.latest = report
		asm.states.Scores = model.SourceOK
	}()

	go func() {
		defer wg.Done()
		comparison, err := s.cachedBenchmarks(ctx, token, latest.ID)
		asm.mu.Lock()
		defer asm.mu.Unlock()
		if err != nil {
			asm.states.Benchmarks = model.SourceFailed
			return
		}
		asm.benchmarks = comparison
		asm.states.Benchmarks = model.SourceOK
	}()

	// Trend fan-out on the bounded pool: one slot per scored assessment,
	// paired 1:1 by index. The latest assessment's trend read coalesces
	// with the authoritative read above through the cache.
	reports := make([]*model.ScoreReport, len(scored))
	var trend sync.WaitGroup
	for i := range scored {
		slot := i
		id := scored[i].ID
		trend.Add(1)
		submitted := s.pool.Submit(ctx, func(taskCtx context.Context) error {
			defer trend.Done()
			report, err := s.cachedScores(taskCtx, token, id)
			if err != nil {
				return err
			}
			reports[slot] = report
			return nil
		})
		if !submitted {
			// Queue backpressure fails the slot instead of waiting.
			trend.Done()
		}
	}
	trend.Wait()

	series := derive.YearScores(scored, reports)
	asm.mu.Lock()
	asm.yearScores = series
	if len(series) > 0 {
		asm.states.YearScores = model.SourceOK
	} else {
		asm.states.YearScores = model.SourceFailed
	}
	asm.mu.Unlock()

	wg.Wait()
}

// cachedUser resolves the identity read through the query cache.
func (s *Service) cachedUser(ctx context.Context, token, fp string) (*model.User, error) {
	v, err := s.cache.Do(ctx, cacheKeyUser+fp, s.cacheTTL, func(ctx context.Context) (interface{}, error) {
		return s.upstream.CurrentUser(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil, errUnexpectedCacheEntry
	}
	return user, nil
}

// cachedAssessments resolves the assessment list through the query cache.
func (s *Service) cachedAssessments(ctx context.Context, token, fp string) ([]model.Assessment, error) {
	v, err := s.cache.Do(ctx, cacheKeyAssessments+fp, s.cacheTTL, func(ctx context.Context) (interface{}, error) {
		return s.upstream.Assessments(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	assessments, ok := v.([]model.Assessment)
	if !ok {
		return nil, errUnexpectedCacheEntry
	}
	return assessments, nil
}

// cachedScores resolves one assessment's score detail through the query cache.
func (s *Service) cachedScores(ctx context.Context, token, assessmentID string) (*model.ScoreReport, error) {
	v, err := s.cache.Do(ctx, cacheKeyScores+assessmentID, s.cacheTTL, func(ctx context.Context) (interface{}, error) {
		return s.upstream.AssessmentScores(ctx, token, assessmentID)
	})
	if err != nil {
		return nil, err
	}
	report, ok := v.(*model.ScoreReport)
	if !ok {
		return nil, errUnexpectedCacheEntry
	}
	return report, nil
}

// cachedBenchmarks resolves one assessment's peer comparison through the
// query cache.
func (s *Service) cachedBenchmarks(ctx context.Context, token, assessmentID string) (*model.BenchmarkComparison, error) {
	v, err := s.cache.Do(ctx, cacheKeyBenchmarks+assessmentID, s.cacheTTL, func(ctx context.Context) (interface{}, error) {
		return s.upstream.CompareBenchmarks(ctx, token, assessmentID)
	})
	if err != nil {
		return nil, err
	}
	comparison, ok := v.(*model.BenchmarkComparison)
	if !ok {
		return nil, errUnexpectedCacheEntry
	}
	return comparison, nil
}

// tokenFingerprint derives the cache identity for a bearer token: the JWT
// subject claim when the token parses, else a SHA-256 prefix of the raw
// token. Identity-scoped cache keys must never collide across sessions.
func tokenFingerprint(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			return sub
		}
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// recordSourceStates records the final state of every source for one
// assembled dashboard.
func recordSourceStates(states model.SourceStates) {
	metrics.RecordSourceSettled(sourceUser, string(states.User))
	metrics.RecordSourceSettled(sourceAssessments, string(states.Assessments))
	metrics.RecordSourceSettled(sourceScores, string(states.Scores))
	metrics.RecordSourceSettled(sourceYearScores, string(states.YearScores))
	metrics.RecordSourceSettled(sourceBenchmarks, string(states.Benchmarks))
}
