package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"clarifier/internal/engine/analytics"
	"clarifier/internal/engine/clarify"
	"clarifier/internal/engine/generation"
	"clarifier/internal/engine/pipeline"
	"clarifier/internal/engine/quota"
	"clarifier/internal/engine/similarity"
	"clarifier/internal/engine/usage"
	"clarifier/internal/platform/auth"
	"clarifier/internal/platform/config"
	"clarifier/internal/platform/database"
	"clarifier/internal/platform/repositories"
)

const Version = "1.0.0"

// App owns every shared client of the process. Build it once with New and
// release it with Close. Optional dependencies are nil when not configured
// or unreachable at start.
type App struct {
	Config *config.Config

	DB      *sql.DB
	Driver  string
	Redis   *redis.Client
	Orgs    *repositories.OrganizationRepository
	Tickets *repositories.TicketRepository

	Generator  generation.Client
	Similarity *similarity.CorpusProvider
	Burst      quota.BurstCounter

	Gate         *quota.Gate
	Orchestrator *clarify.Orchestrator
	Recorder     *usage.Recorder
	Pipeline     *pipeline.Pipeline
	Analytics    *analytics.Service
	Usage        *usage.Reporter
	Tokens       *auth.TokenService

	closers []func() error
}

// New wires the application. Only configuration errors are fatal; an
// unreachable database or Redis degrades the service instead.
func New(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Tokens: auth.NewTokenService(cfg.JWT)}

	a.openDatabase()
	a.openBurstCounter()

	gen, err := generation.New(cfg.Generation)
	if err != nil {
		a.Close()
		return nil, err
	}
	if gen != nil {
		a.Generator = gen
		log.Info().Str("provider", gen.Name()).Str("model", cfg.Generation.Model).Msg("generation provider configured")
	} else {
		log.Warn().Msg("no generation API key configured, clarifications will be unavailable")
	}

	if cfg.Similarity.CorpusPath != "" {
		corpus, err := similarity.LoadCorpus(cfg.Similarity.CorpusPath, cfg.Features.RAG)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Similarity.CorpusPath).Msg("failed to load similarity corpus")
		} else {
			a.Similarity = corpus
			log.Info().Int("tickets", corpus.Len()).Bool("enabled", corpus.Enabled()).Msg("similarity corpus loaded")
		}
	}

	a.build()
	return a, nil
}

func (a *App) openDatabase() {
	cfg := a.Config.Database
	if cfg.URL == "" {
		log.Warn().Msg("no database configured, quota is not enforced and analytics are disabled")
		return
	}

	db, driver, err := database.Open(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, continuing without quota store")
		return
	}
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := database.Migrate(ctx, db, driver); err != nil {
			log.Error().Err(err).Msg("failed to apply migrations")
		}
	}

	a.DB = db
	a.Driver = driver
	a.Orgs = repositories.NewOrganizationRepository(db, driver, repositories.PlanLimits{
		Free: a.Config.Quota.FreeLimit,
		Pro:  a.Config.Quota.ProLimit,
	})
	a.Tickets = repositories.NewTicketRepository(db, driver)
	a.closers = append(a.closers, db.Close)
	log.Info().Str("driver", driver).Msg("database connected")
}

func (a *App) openBurstCounter() {
	switch a.Config.Quota.BurstBackend {
	case "memory":
		counter := quota.NewMemoryBurstCounter()
		a.Burst = counter
		a.closers = append(a.closers, counter.Close)
	case "redis":
		if a.Config.Redis.URL == "" && a.Config.Redis.Addr == "" {
			log.Info().Msg("no redis configured, burst limiting disabled")
			return
		}
		client, err := database.OpenRedis(a.Config.Redis)
		if client == nil {
			log.Warn().Err(err).Msg("invalid redis configuration, burst limiting disabled")
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("redis unreachable, burst limiting degrades per request")
		}
		a.Redis = client
		a.Burst = quota.NewRedisBurstCounter(client)
		a.closers = append(a.closers, client.Close)
	default:
		log.Info().Str("backend", a.Config.Quota.BurstBackend).Msg("burst limiting disabled")
	}
}

// build assigns interfaces only from non-nil values so a missing dependency
// is seen as nil by the components.
func (a *App) build() {
	var store quota.Store
	var counter usage.Counter
	var records usage.RecordStore
	var source usage.Source
	if a.Orgs != nil {
		store = a.Orgs
		counter = a.Orgs
		source = a.Orgs
	}
	if a.Tickets != nil {
		records = a.Tickets
		a.Analytics = analytics.NewService(a.Tickets)
	}

	var gen clarify.Generator
	if a.Generator != nil {
		gen = a.Generator
	}
	var sim clarify.SimilarityProvider
	if a.Similarity != nil {
		sim = a.Similarity
	}

	q := a.Config.Quota
	a.Gate = quota.NewGate(store, a.Burst, quota.GateConfig{
		Enabled:     a.Config.Features.RateLimiting,
		BurstLimit:  q.BurstLimit,
		BurstWindow: q.BurstWindow,
		KeyPrefix:   a.Config.Redis.Prefix,
	})
	a.Orchestrator = clarify.NewOrchestrator(gen, sim)
	a.Usage = usage.NewReporter(source, q.FreeLimit)
	a.Recorder = usage.NewRecorder(counter, records, usage.Config{
		Workers:          a.Config.Recorder.Workers,
		QueueSize:        a.Config.Recorder.QueueSize,
		IncrementTimeout: a.Config.Recorder.IncrementTimeout,
		WriteTimeout:     a.Config.Recorder.WriteTimeout,
		Persist:          a.Config.Features.Analytics,
	})
	a.Pipeline = pipeline.New(a.Gate, a.Orchestrator, a.Recorder, pipeline.WithHook(func(t pipeline.Transition) {
		if t.To == pipeline.StateError {
			log.Info().Str("org_id", t.OrgID).Str("from", string(t.From)).Err(t.Err).Msg("clarification ended in error")
		}
	}))
}

// Health reports each dependency as healthy, unhealthy, degraded or disabled.
func (a *App) Health(ctx context.Context) map[string]string {
	checks := map[string]string{}

	if a.Generator != nil {
		checks["generation"] = "healthy"
	} else {
		checks["generation"] = "unhealthy: not configured"
	}

	switch {
	case a.DB == nil:
		checks["database"] = "disabled"
	case a.Orgs.Ping(ctx) != nil:
		checks["database"] = "unhealthy"
	default:
		checks["database"] = "healthy"
	}

	switch {
	case a.Redis == nil:
		checks["redis"] = "disabled"
	case a.Redis.Ping(ctx).Err() != nil:
		checks["redis"] = "degraded"
	default:
		checks["redis"] = "healthy"
	}

	if a.Similarity != nil && a.Similarity.Enabled() {
		checks["similarity"] = fmt.Sprintf("healthy: %d tickets", a.Similarity.Len())
	} else {
		checks["similarity"] = "disabled"
	}

	return checks
}

// Close drains queued records and then releases connections in reverse order.
func (a *App) Close() error {
	if a.Recorder != nil {
		a.Recorder.Close()
	}
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
