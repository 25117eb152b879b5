package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btuckerc/jeopardy-sub005/internal/answer"
	"github.com/btuckerc/jeopardy-sub005/internal/app"
	"github.com/btuckerc/jeopardy-sub005/internal/config"
	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/btuckerc/jeopardy-sub005/internal/infra/memory"
	pgstore "github.com/btuckerc/jeopardy-sub005/internal/infra/postgres"
	redisrepo "github.com/btuckerc/jeopardy-sub005/internal/infra/redis"
	"github.com/btuckerc/jeopardy-sub005/internal/scoring"
	transport "github.com/btuckerc/jeopardy-sub005/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the grading engine",
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
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisrepo.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	var store app.Store
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		store = pgstore.NewStore(db)
	} else {
		memStore := memory.NewStore()
		memStore.PutGame(domain.Game{ID: "game-1", OwnerID: "u1", CreatedAt: time.Now()})
		store = memStore
	}

	identity := memory.NewStaticIdentity(cfg.Admins)

	opts := []app.Option{}
	if cfg.Scoring.FinalValue > 0 || cfg.Scoring.DefaultValue > 0 {
		policy := scoring.DefaultPolicy()
		if cfg.Scoring.FinalValue > 0 {
			policy.FinalValue = cfg.Scoring.FinalValue
		}
		if cfg.Scoring.DefaultValue > 0 {
			policy.DefaultValue = cfg.Scoring.DefaultValue
		}
		opts = append(opts, app.WithPolicy(policy))
	}
	if cfg.Matching.ExactMaxLen > 0 && cfg.Matching.OneEditMaxLen > 0 {
		opts = append(opts, app.WithMatcher(answer.NewMatcher(answer.Tolerance{
			ExactMaxLen:   cfg.Matching.ExactMaxLen,
			OneEditMaxLen: cfg.Matching.OneEditMaxLen,
		})))
	}

	engine := app.NewEngine(store, questions, identity, opts...)
	handler := transport.NewHandler(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting grading engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides minimal demo content; production runs load
// questions from Postgres.
func sampleQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"q-everest": {
			ID:              "q-everest",
			CanonicalAnswer: "Mount (Mt.) Everest",
			FaceValue:       400,
			Round:           domain.RoundSingle,
			CategoryID:      "geography",
		},
		"q-revolution": {
			ID:              "q-revolution",
			CanonicalAnswer: "the French Revolution",
			FaceValue:       800,
			Round:           domain.RoundDouble,
			CategoryID:      "history",
		},
	}
}
