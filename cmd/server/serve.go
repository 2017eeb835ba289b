package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/announce"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/diagnostics"
	apppayment "github.com/rcarvalho-pb/payment_notifier-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/resolver"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/worker"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/config"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/retry"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/shutdown"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/tracing"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/eventbus"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/export"
	httpapi "github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/http"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/idempotency"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/kafka"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/mercadopago"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/speech"
)

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook listener, the poller and the announcer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *envFile)
		},
	}
}

func newClient(cfg *config.Config, logger logging.Logger) *mercadopago.Client {
	return mercadopago.NewClient(cfg.BaseURL, cfg.AccessToken, cfg.FetchTimeout, retry.Policy{
		MaxAttempts: cfg.FetchAttempts,
		Delay:       cfg.FetchRetryDelay,
	}, logger)
}

// selfIdentity asks the upstream who owns the token. Failure leaves the
// identity empty, which disables self-payer detection.
func selfIdentity(ctx context.Context, client *mercadopago.Client, logger logging.Logger) payment.Identity {
	self, err := client.Me(ctx)
	if err != nil {
		logger.Error("account identity unavailable", map[string]any{"error": err.Error()})
		return payment.Identity{}
	}
	logger.Info("account identity loaded", map[string]any{
		"id":    self.ID,
		"name":  self.Name,
		"email": self.Email,
	})
	return self
}

func newSpeaker(cfg *config.Config, logger logging.Logger) announce.Speaker {
	s, err := speech.NewCommandSpeaker(cfg.SpeechCommand, cfg.SpeechRate, cfg.SpeechVoice)
	if err != nil {
		logger.Error("speech engine unavailable, logging announcements", map[string]any{"error": err.Error()})
		return &speech.LogSpeaker{Logger: logger}
	}
	return s
}

func runServe(parent context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	counters := &metrics.Counters{}
	tracing.Init()

	if cfg.AccessToken == "" {
		logger.Error("MP_ACCESS_TOKEN is empty, upstream calls will be rejected", nil)
	}

	ctx, stop := shutdown.WithSignals(parent)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	client := newClient(cfg, logger)
	res := resolver.New(selfIdentity(ctx, client, logger))

	queue := announce.NewQueue(newSpeaker(cfg, logger), logger, counters)

	bus := eventbus.NewInMemoryBus()
	audit := &apppayment.RecordedEventHandler{Logger: logger}
	bus.Subscribe(event.PaymentRecorded, audit.Handle)

	if len(cfg.KafkaBrokers) > 0 {
		writer := kafka.NewWriter(cfg.KafkaBrokers)
		defer writer.Close()

		publisher := &kafka.Publisher{Writer: writer, Topic: cfg.KafkaTopic, Logger: logger}
		bus.Subscribe(event.PaymentRecorded, publisher.Handle)
	}

	relay := &outbox.Dispatcher{
		Repo:         st.Outbox,
		EventBus:     bus,
		Logger:       logger,
		PollInterval: cfg.OutboxInterval,
		BatchSize:    100,
	}

	ingestor := &worker.Ingestor{
		Repo:      st.Payments,
		Recorder:  outbox.NewRecorder(st.Outbox),
		Announcer: queue,
		Logger:    logger,
		Metrics:   counters,
	}

	processor := &worker.PaymentProcessor{
		Client:   client,
		Resolver: res,
		Ingestor: ingestor,
		Logger:   logger,
		Metrics:  counters,
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("redis unavailable, in-flight guard disabled", map[string]any{"error": err.Error()})
		} else {
			processor.Guard = idempotency.NewRedisGuard(rdb, cfg.IdempotencyTTL)
		}
	}

	dispatcher := worker.NewDispatcher(ctx, processor, cfg.DispatchConcurrency, logger)

	poller := &worker.Poller{
		Source:         client,
		Processor:      processor,
		Logger:         logger,
		Interval:       cfg.PollInterval,
		RateLimitPause: cfg.RateLimitPause,
	}

	webhook := &httpapi.WebhookHandler{Dispatcher: dispatcher, Logger: logger, Metrics: counters}
	dashboard := &httpapi.DashboardHandler{
		Reports:   &apppayment.Service{Repo: st.Payments, Workbooks: export.Workbook{}},
		Ingestor:  ingestor,
		Inspector: &diagnostics.Inspector{Client: client, Resolver: res},
		Logger:    logger,
		Metrics:   counters,
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(webhook, dashboard, httpapi.Credentials{
			User:     cfg.DashboardUser,
			Password: cfg.DashboardPassword,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	var wg sync.WaitGroup
	for _, run := range []func(context.Context){queue.Run, relay.Run, poller.Run} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(ctx)
		}()
	}

	go func() {
		logger.Info("http listening", map[string]any{"addr": cfg.HTTPAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	dispatcher.Wait()
	wg.Wait()

	logger.Info("payment notifier stopped", nil)
	return nil
}
