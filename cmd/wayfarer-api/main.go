// README: Entry point; loads config, wires services, starts HTTP server and the session sweeper.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wayfarer/internal/ai"
	"wayfarer/internal/config"
	httptransport "wayfarer/internal/http"
	"wayfarer/internal/infra"
	"wayfarer/internal/maps"
	"wayfarer/internal/modules/aiusage"
	"wayfarer/internal/modules/booking"
	"wayfarer/internal/modules/budget"
	"wayfarer/internal/modules/session"
	"wayfarer/internal/modules/traveler"
	"wayfarer/internal/modules/user"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without Firebase credentials the API still serves anonymous chat; every
	// route behind Auth then answers 401.
	var verifier infra.TokenVerifier
	if cfg.Firebase.ProjectID == "" {
		log.Warn().Msg("WAYFARER_FIREBASE_PROJECT_ID not set; authenticated routes disabled")
	} else {
		verifier, err = infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("firebase init")
		}
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	budgetSvc := budget.NewService(budget.NewStore(dbPool))
	quotaSvc := aiusage.NewService(aiusage.NewStore(dbPool, int(cfg.AI.MonthlyTokens)))

	// The orchestrator and place search are both optional; chat falls back to
	// template replies and skips searches when they are absent.
	var orch ai.Orchestrator
	if cfg.AI.GeminiKey != "" {
		g, err := ai.NewGeminiOrchestrator(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Warn().Err(err).Msg("gemini init failed; continuing with template replies")
		} else {
			orch = g
			defer g.Close()
		}
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set; continuing with template replies")
	}

	var placeSearcher session.PlaceSearcher
	var destSearcher session.DestinationSearcher
	if cfg.Maps.APIKey != "" {
		places, err := maps.NewPlacesService(cfg.Maps.APIKey)
		if err != nil {
			log.Warn().Err(err).Msg("maps init failed; place search disabled")
		} else {
			placeSearcher = places
			destSearcher = places
		}
	}

	sessionStore := session.NewStore(dbPool, redisClient)
	hints := session.NewHintBuilder(destSearcher, redisClient)
	sessionManager := session.NewManager(sessionStore, orch, quotaSvc, placeSearcher, budgetSvc, hints)

	userSvc := user.NewService(user.NewStore(dbPool))
	travelerSvc := traveler.NewService(traveler.NewStore(dbPool))
	bookingSvc := booking.NewService(booking.NewStore(dbPool), sessionManager)

	router := httptransport.NewRouter(verifier, sessionManager, userSvc, travelerSvc, bookingSvc, budgetSvc)

	sweeper := session.NewSweeper(sessionStore, cfg.Session)
	go sweeper.Run(ctx)

	if err := httptransport.Serve(ctx, cfg.HTTP.Addr, router); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
}
