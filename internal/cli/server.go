package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-contest-service/internal/app"
	"trivia-contest-service/internal/config"
	"trivia-contest-service/internal/domain"
	"trivia-contest-service/internal/infra/memory"
	pgstore "trivia-contest-service/internal/infra/postgres"
	redisinfra "trivia-contest-service/internal/infra/redis"
	transport "trivia-contest-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the contest server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	contestID := cfg.Contest.ID
	if contestID == "" {
		contestID = "contest-1"
	}
	nRounds := cfg.Contest.Rounds
	if nRounds == 0 {
		nRounds = 8
	}
	nQuestions := cfg.Contest.Questions
	if nQuestions == 0 {
		nQuestions = 8
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	snapshotTTL := config.Duration(cfg.Snapshot.TTL, 10*time.Minute)
	var snapshots app.SnapshotRepository
	switch {
	case pool != nil && redisClient != nil:
		snapshots = redisinfra.NewSnapshotRepository(redisClient, pgstore.NewSnapshotStore(pool), snapshotTTL)
	case pool != nil:
		snapshots = pgstore.NewSnapshotStore(pool)
	default:
		snapshots = memory.NewSnapshotRepository()
	}

	var presence app.PresenceRepository
	if redisClient != nil {
		presence = redisinfra.NewPresenceStore(redisClient, contestID)
	} else {
		presence = memory.NewPresenceStore()
	}

	trivia := app.NewTrivia(contestID, cfg.Contest.Teams, nRounds, nQuestions)
	service := app.NewContestService(trivia, presence, snapshots)

	switch err := service.LoadState(ctx); {
	case err == nil:
		log.Printf("restored contest %s from saved snapshot", contestID)
	case errors.Is(err, domain.ErrContestNotFound):
		log.Printf("starting fresh contest %s: %d rounds x %d questions", contestID, nRounds, nQuestions)
	default:
		return err
	}

	presenceWindow := config.Duration(cfg.Presence.Window, 5*time.Minute)
	wsHandler := transport.NewWSHandler(service, presenceWindow)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting contest service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	saverDone := make(chan struct{})
	saverStop := make(chan struct{})
	go func() {
		defer close(saverDone)
		interval := config.Duration(cfg.Snapshot.Interval, 2*time.Minute)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := service.SaveState(context.Background()); err != nil {
					log.Printf("periodic snapshot save failed: %v", err)
				}
			case <-saverStop:
				return
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	close(saverStop)
	<-saverDone
	if err := service.SaveState(context.Background()); err != nil {
		log.Printf("final snapshot save failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
