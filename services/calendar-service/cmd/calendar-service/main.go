package main

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/agusroldan/turnospro/libs/config"
	"github.com/agusroldan/turnospro/libs/db"
	"github.com/agusroldan/turnospro/libs/httpx"
	"github.com/agusroldan/turnospro/libs/kafkax"
	otelx "github.com/agusroldan/turnospro/libs/otel"
	"github.com/agusroldan/turnospro/libs/runtime"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/consumer"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/handlers"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/inbox"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/outbox"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//go:embed migrations
var migrationsFS embed.FS

func main() {
	_ = runtime.LoadDotenv()
	service := config.String("SERVICE_NAME", "calendar-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrationsFS, "migrations"); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	calendars := storage.NewCalendarRepository(pool)
	settings := storage.NewSettingsRepository(pool)
	appointments := storage.NewAppointmentRepository(pool)
	friendships := storage.NewFriendshipRepository(pool)
	users := storage.NewUserRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	inboxRepo := inbox.NewRepository(pool)
	userTopic := config.String("KAFKA_USERS_TOPIC", "auth.user.created.v1")
	if strings.TrimSpace(userTopic) != "" {
		userConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "calendar-service"),
			Topic:   userTopic,
		}, func(ctx context.Context, msg kafka.Message) error {
			var payload struct {
				UserID   string `json:"user_id"`
				Email    string `json:"email"`
				FullName string `json:"full_name"`
				UserType string `json:"user_type"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
				return nil
			}
			if payload.UserID == "" || payload.UserType == "" {
				logger.Error("missing required event fields", "topic", msg.Topic)
				return nil
			}
			return users.Upsert(ctx, model.User{
				ID:       payload.UserID,
				Email:    payload.Email,
				FullName: payload.FullName,
				UserType: payload.UserType,
			})
		})
		go userConsumer.Run(ctx)
	}

	calendarHandler := handlers.NewCalendarHandler(calendars, settings, logger)
	settingsHandler := handlers.NewSettingsHandler(calendars, settings, logger)
	availabilityHandler := handlers.NewAvailabilityHandler(calendars, settings, appointments, logger)
	appointmentHandler := handlers.NewAppointmentHandler(appointments, calendars, settings, friendships, outboxRepo, logger)
	friendshipHandler := handlers.NewFriendshipHandler(friendships, users, outboxRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("POST /api/calendars", calendarHandler.Create)
	mux.HandleFunc("GET /api/calendars", calendarHandler.List)
	mux.HandleFunc("GET /api/calendars/{slug}", calendarHandler.GetBySlug)
	mux.HandleFunc("GET /api/calendars/{id}/settings", settingsHandler.Get)
	mux.HandleFunc("PUT /api/calendars/{id}/settings", settingsHandler.Update)
	mux.HandleFunc("GET /api/calendars/{id}/available-slots", availabilityHandler.Slots)
	mux.HandleFunc("GET /api/calendars/{id}/available-dates", availabilityHandler.Dates)
	mux.HandleFunc("POST /api/calendars/{id}/appointments", appointmentHandler.Create)
	mux.HandleFunc("GET /api/calendars/{id}/appointments", appointmentHandler.ListForCalendar)
	mux.HandleFunc("GET /api/appointments/my-appointments", appointmentHandler.ListMine)
	mux.HandleFunc("DELETE /api/appointments/{id}", appointmentHandler.Cancel)
	mux.HandleFunc("PATCH /api/appointments/{id}/status", appointmentHandler.UpdateStatus)
	mux.HandleFunc("POST /api/friendships/request", friendshipHandler.Request)
	mux.HandleFunc("GET /api/friendships/requests", friendshipHandler.ListRequests)
	mux.HandleFunc("POST /api/friendships/{id}/respond", friendshipHandler.Respond)
	mux.HandleFunc("GET /api/friendships/status/{employer_id}", friendshipHandler.Status)
	mux.HandleFunc("GET /api/friendships/my-services", friendshipHandler.MyServices)
	mux.HandleFunc("DELETE /api/friendships/{id}", friendshipHandler.Delete)
	mux.HandleFunc("GET /api/locations", calendarHandler.Locations)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "calendar")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
