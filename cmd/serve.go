package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"foodieconnect/config"
	"foodieconnect/database"
	"foodieconnect/feed"
	"foodieconnect/handlers"
	"foodieconnect/metrics"
	"foodieconnect/mq"
	"foodieconnect/notify"
	"foodieconnect/policy"
	"foodieconnect/services"
	"foodieconnect/storage/sqlstore"
	"foodieconnect/utils"
	"foodieconnect/websocket"
)

const (
	addrFlag      = "addr"
	authzModeFlag = "authz-mode"
	amqpURLFlag   = "amqp-url"
	migrateFlag   = "migrate"
)

func NewServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		Args:  cobra.NoArgs,
	}

	flags := cmd.Flags()
	flags.String(addrFlag, "", "the address to listen on (default :8080)")
	flags.String(datastoreEngineFlag, "", "the datastore engine: mysql or sqlite")
	flags.String(datastoreURIFlag, "", "the connection uri of the datastore")
	flags.String(authzModeFlag, "", "authorization mode: group-scoped or role-global")
	flags.String(amqpURLFlag, "", "rabbitmq url used to fan realtime events out across instances")
	flags.Bool(migrateFlag, true, "apply pending migrations before serving")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return bindFlags(v, cmd, map[string]string{
			"server.addr":      addrFlag,
			"datastore.engine": datastoreEngineFlag,
			"datastore.uri":    datastoreURIFlag,
			"authz.mode":       authzModeFlag,
			"amqp.url":         amqpURLFlag,
			"serve.migrate":    migrateFlag,
		})
	}
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, v.GetBool("serve.migrate"))
	}
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	db, err := database.Open(ctx, database.Options{
		Engine:       cfg.DatastoreEngine,
		URI:          cfg.DatastoreURI,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		ConnTimeout:  cfg.ConnTimeout,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(ctx, db, cfg.DatastoreEngine, 0); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	store := sqlstore.New(db)
	hub := websocket.NewHub()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(db)
		m.OnlineUsers(func() int { return len(hub.Online()) })
	}

	var (
		pusher   notify.Pusher = hub
		consumer *mq.Consumer
	)
	if cfg.AMQPURL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		consumer, err = mq.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer consumer.Close()
		pusher = publisher
		slog.Info("realtime events relayed through rabbitmq", "exchange", cfg.AMQPExchange)
	}
	if m != nil {
		pusher = m.CountPushes(pusher)
	}

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	svc := services.New(services.Deps{
		Store:    store,
		Policy:   policy.New(cfg.AuthzMode),
		Notifier: notify.NewDispatcher(store, pusher),
		Tokens:   tokens,
		Windows: feed.Windows{
			Group:    cfg.GroupWindow,
			Personal: cfg.PersonalWindow,
			Friend:   cfg.FriendWindow,
		},
	})

	router := handlers.NewRouter(handlers.RouterDeps{
		Services:       svc,
		Tokens:         tokens,
		DB:             store,
		Realtime:       websocket.NewHandler(hub, tokens, svc.Chat, cfg.AllowedOrigins),
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
		UploadDir:      cfg.UploadDir,
	})
	srv := &http.Server{Addr: cfg.ServerAddr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Run(gctx, hub)
		})
	}
	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.ServerAddr, "engine", cfg.DatastoreEngine, "authz_mode", cfg.AuthzMode.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
