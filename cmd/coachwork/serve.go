package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/mhutchins/coachwork/internal/api"
	"github.com/mhutchins/coachwork/internal/audit"
	"github.com/mhutchins/coachwork/internal/catalog"
	"github.com/mhutchins/coachwork/internal/config"
	"github.com/mhutchins/coachwork/internal/invitation"
	"github.com/mhutchins/coachwork/internal/mail"
	"github.com/mhutchins/coachwork/internal/metrics"
	"github.com/mhutchins/coachwork/internal/relationship"
	"github.com/mhutchins/coachwork/internal/submission"
	"github.com/mhutchins/coachwork/internal/task"
	"github.com/mhutchins/coachwork/internal/user"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Coachwork server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		st := pool.Stat()
		return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
	})

	auditStore := audit.NewStore(pool)
	recorder := audit.NewRecorder(auditStore, cfg.Audit.BatchSize, cfg.Audit.FlushInterval).WithMetrics(m)
	go recorder.Start(ctx)

	var sender mail.Sender
	switch cfg.Mail.Mode {
	case "smtp":
		sender = mail.NewSMTPSender(cfg.Mail.SMTPAddr, cfg.Mail.From, cfg.Mail.Username, cfg.Mail.Password)
	default:
		sender = mail.LogSender{}
	}

	userStore := user.NewStore(pool)
	packageStore := catalog.NewStore(pool)
	relationshipStore := relationship.NewStore(pool)
	taskStore := task.NewStore(pool)
	submissionStore := submission.NewStore(pool)
	invitationStore := invitation.NewStore(pool)

	relationships := relationship.NewService(pool, relationshipStore, userStore, packageStore, recorder, m)
	tasks := task.NewService(pool, taskStore, recorder, m)
	submissions := submission.NewService(pool, submissionStore, recorder, m)
	invitations := invitation.NewService(pool, invitationStore, userStore, packageStore, relationshipStore, sender, cfg.Invitation.BaseURL, recorder, m)

	router := api.NewRouter(api.RouterDeps{
		Relationships: relationships,
		Tasks:         tasks,
		Submissions:   submissions,
		Invitations:   invitations,
		Pool:          pool,
		Metrics:       m,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	recorder.Stop()

	return srv.Shutdown(shutdownCtx)
}
