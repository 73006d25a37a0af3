package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	server "github.com/kazz187/messmate-push/internal"
	"github.com/kazz187/messmate-push/internal/config"
	"github.com/kazz187/messmate-push/internal/pushnotification"
	"github.com/kazz187/messmate-push/internal/pushsubscription"
	pushsubrepo "github.com/kazz187/messmate-push/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/messmate-push/pkg/clog"
	"github.com/kazz187/messmate-push/pkg/storage"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	env, err := config.LoadEnv(envFile)
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.IsLocal() {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Setup repository
	pushSubRepo, closeRepo, err := newRepository(ctx, &env.StorageEnv)
	if err != nil {
		slog.Error("failed to set up storage", "type", env.StorageEnv.Type, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	// Setup push notification
	vapidKeys := config.NewVAPIDKeys(env.VAPIDEnv)
	if !env.VAPIDEnv.Configured() {
		slog.Warn("VAPID keys not configured; run setup-notifications", "env_file", envFile)
	}
	pushSubService := pushsubscription.NewService(pushSubRepo)
	pushSender := pushnotification.NewSender(vapidKeys, pushSubRepo)
	pushNotificationServer := pushnotification.NewServer(vapidKeys, pushSubService, pushSender)

	srv := server.NewServer(env, pushNotificationServer)

	go func() {
		if err := config.WatchVAPID(ctx, envFile, vapidKeys); err != nil {
			slog.Warn("vapid watcher stopped", "error", err)
		}
	}()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newRepository(ctx context.Context, env *config.StorageEnv) (pushsubscription.Repository, func(), error) {
	noop := func() {}
	switch env.Type {
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(env.MongoURI))
		if err != nil {
			return nil, noop, err
		}
		disconnect := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				slog.Error("failed to disconnect mongo", "error", err)
			}
		}
		repo := pushsubrepo.NewMongoRepository(client.Database(env.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			disconnect()
			return nil, noop, err
		}
		return repo, disconnect, nil
	case storage.TypeS3:
		store, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region, env.S3Endpoint)
		if err != nil {
			return nil, noop, err
		}
		return pushsubrepo.NewYAMLRepository(store), noop, nil
	case storage.TypeMemory:
		return pushsubrepo.NewYAMLRepository(storage.NewMemoryStorage()), noop, nil
	default:
		store, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, noop, err
		}
		return pushsubrepo.NewYAMLRepository(store), noop, nil
	}
}
