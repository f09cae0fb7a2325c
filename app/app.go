package app

import (
	"context"
	"net"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urveshtaral/library-management-system/config"
	"github.com/urveshtaral/library-management-system/internal/handler"
	"github.com/urveshtaral/library-management-system/internal/notifier"
	"github.com/urveshtaral/library-management-system/internal/repository"
	"github.com/urveshtaral/library-management-system/internal/server"
	"github.com/urveshtaral/library-management-system/internal/service"
	"github.com/urveshtaral/library-management-system/migrations"
	"github.com/urveshtaral/library-management-system/pkg/auth"
	"github.com/urveshtaral/library-management-system/pkg/kafka"
	"github.com/urveshtaral/library-management-system/pkg/logger"
	"github.com/urveshtaral/library-management-system/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "lending")

	if cfg.Auth.JWTKey != "" {
		auth.JWTKey = []byte(cfg.Auth.JWTKey)
	}

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	var events service.Publisher = notifier.Noop{}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Warn("kafka producer unavailable, loan events disabled", zap.Error(err))
	} else {
		events = notifier.New(producer, log)
	}

	svc := service.NewService(repo, events, cfg.Policy, cfg.Auth, log)
	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr",
				net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})

	if producer != nil {
		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.NotificationsConsumer)
		if err != nil {
			log.Warn("kafka consumer unavailable, notifications disabled", zap.Error(err))
		} else {
			g.Go(func() error {
				defer consumer.Close() //nolint:errcheck
				err := kafka.Consume(ctx, consumer, handler.NewConsumer(svc.CreateNotification, log), kafka.LoanEventsTopic)
				if err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			})
		}
	}

	<-ctx.Done()
	log.Debug("Graceful shutdown")

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		log.Error("run group", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
