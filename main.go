package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/panuwats/concierge/agent/agents"
	"github.com/panuwats/concierge/agent/agents/askme"
	"github.com/panuwats/concierge/agent/agents/foodie"
	"github.com/panuwats/concierge/agent/agents/orchestrator"
	"github.com/panuwats/concierge/agent/agents/ridenow"
	"github.com/panuwats/concierge/agent/classifier"
	contractx "github.com/panuwats/concierge/agent/contract"
	statex "github.com/panuwats/concierge/agent/state"
	configx "github.com/panuwats/concierge/pkg/config"
	_ "github.com/panuwats/concierge/pkg/logger/autoload"
	openrouterx "github.com/panuwats/concierge/pkg/openrouter"
	profilex "github.com/panuwats/concierge/profile"
	"github.com/panuwats/concierge/server"
)

type AppConfig struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" split_words:"true" default:":8080"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" split_words:"true" default:"24h"`
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" split_words:"true" default:"1h"`
	ClassifyTimeout time.Duration `envconfig:"CLASSIFY_TIMEOUT" split_words:"true" default:"10s"`
	WSOrigins       string        `envconfig:"WS_ORIGINS" split_words:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	openRouterClient := openrouterx.MustNew(*openRouterCfg)

	profiles := buildProfileRepository(ctx)

	store := statex.NewMemoryStore()

	roster, err := agents.NewRoster(
		contractx.AgentAskMe,
		foodie.New(),
		ridenow.New(),
		askme.New(openRouterClient),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent roster")
	}

	cls, err := classifier.New(openRouterClient, roster.IDs())
	if err != nil {
		log.Fatal().Err(err).Msg("build classifier")
	}

	var origins []string
	if appCfg.WSOrigins != "" {
		origins = strings.Split(appCfg.WSOrigins, ",")
	}
	hub := server.NewHub(origins...)

	orch, err := orchestrator.New(store, roster, cls, profiles, hub, orchestrator.Config{
		ClassifyTimeout: appCfg.ClassifyTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	statex.NewReaper(store, appCfg.SweepInterval, appCfg.SessionTTL).Start(ctx)

	srv := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           server.New(orch, hub).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", appCfg.HTTPAddr).Msg("concierge listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func buildProfileRepository(ctx context.Context) profilex.Repository {
	profileCfg := configx.MustNew[profilex.Config]("PROFILE")
	if strings.TrimSpace(profileCfg.DSN) == "" {
		log.Info().Msg("no profile dsn configured, using in-memory profiles")
		return profilex.NewMemory()
	}

	repo, err := profilex.NewPostgres(*profileCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect profile database")
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure profile schema")
	}
	log.Info().Msg("profile database connected")
	return repo
}
