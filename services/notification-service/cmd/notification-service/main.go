package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agusroldan/turnospro/libs/config"
	"github.com/agusroldan/turnospro/libs/db"
	"github.com/agusroldan/turnospro/libs/httpx"
	"github.com/agusroldan/turnospro/libs/kafkax"
	otelx "github.com/agusroldan/turnospro/libs/otel"
	"github.com/agusroldan/turnospro/libs/runtime"
	"github.com/agusroldan/turnospro/services/notification-service/internal/consumer"
	"github.com/agusroldan/turnospro/services/notification-service/internal/email"
	"github.com/agusroldan/turnospro/services/notification-service/internal/inbox"
	"github.com/agusroldan/turnospro/services/notification-service/internal/outbox"
	"github.com/agusroldan/turnospro/services/notification-service/internal/sms"
	"github.com/agusroldan/turnospro/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//go:embed migrations
var migrationsFS embed.FS

// message is what one consumed event turns into: a recipient and the text to
// deliver, plus the ids recorded alongside the attempt.
type message struct {
	subjectID  string
	calendarID string
	recipient  string
	subject    string
	body       string
}

func buildMessage(eventType string, payload map[string]any) (message, error) {
	str := func(key string) string {
		v, _ := payload[key].(string)
		return strings.TrimSpace(v)
	}

	switch eventType {
	case "calendar.appointment.booked.v1":
		msg := message{
			subjectID:  str("appointment_id"),
			calendarID: str("calendar_id"),
			recipient:  str("client_email"),
			subject:    "Appointment confirmed",
		}
		name := str("calendar_name")
		if b := str("business_name"); b != "" {
			name = b
		}
		msg.body = fmt.Sprintf("Your appointment at %s is confirmed for %s at %s.",
			name, str("appointment_date"), str("appointment_time"))
		if msg.subjectID == "" || msg.recipient == "" {
			return message{}, fmt.Errorf("booked event missing appointment_id or client_email")
		}
		return msg, nil

	case "calendar.appointment.cancelled.v1":
		msg := message{
			subjectID:  str("appointment_id"),
			calendarID: str("calendar_id"),
			recipient:  str("client_email"),
			subject:    "Appointment cancelled",
		}
		msg.body = fmt.Sprintf("Your appointment on %s at %s was cancelled.",
			str("appointment_date"), str("appointment_time"))
		if msg.subjectID == "" || msg.recipient == "" {
			return message{}, fmt.Errorf("cancelled event missing appointment_id or client_email")
		}
		return msg, nil

	case "calendar.friendship.requested.v1":
		msg := message{
			subjectID: str("friendship_id"),
			recipient: str("employer_email"),
			subject:   "New connection request",
		}
		client := str("client_name")
		if client == "" {
			client = "A client"
		}
		msg.body = fmt.Sprintf("%s wants to connect with you on TurnosPro. Review the request to allow bookings.", client)
		if msg.subjectID == "" || msg.recipient == "" {
			return message{}, fmt.Errorf("friendship event missing friendship_id or employer_email")
		}
		return msg, nil
	}

	return message{}, fmt.Errorf("unsupported event type %q", eventType)
}

func writeDeliveryEvent(ctx context.Context, pool *db.Pool, outboxRepo *outbox.Repository, eventType string, msg message, sourceEvent string, detail map[string]any) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	fields := map[string]any{
		"subject_id":   msg.subjectID,
		"source_event": sourceEvent,
		"recipient":    msg.recipient,
	}
	for k, v := range detail {
		fields[k] = v
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	if err := outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   msg.subjectID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func main() {
	_ = runtime.LoadDotenv()
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8083")
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

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@turnospro.local")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)

	// Optional SMS fan-out: when an alert number is configured, booking
	// events also ping it through the webhook provider.
	smsAlertTo := strings.TrimSpace(config.String("SMS_ALERT_TO", ""))
	var smsSender sms.Sender = sms.NewNoopSender()
	if url := strings.TrimSpace(config.String("SMS_WEBHOOK_URL", "")); url != "" {
		smsSender = sms.NewWebhookSender(url, config.String("SMS_WEBHOOK_TOKEN", ""))
	}

	handleEvent := func(ctx context.Context, kafkaMsg kafka.Message) error {
		meta := kafkax.ExtractEventMeta(kafkaMsg)
		eventType := meta.EventType
		if eventType == "" {
			eventType = kafkaMsg.Topic
		}

		var payload map[string]any
		if err := json.Unmarshal(kafkaMsg.Value, &payload); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", kafkaMsg.Topic)
			return nil
		}

		msg, err := buildMessage(eventType, payload)
		if err != nil {
			logger.Error("event dropped", "err", err, "topic", kafkaMsg.Topic)
			return nil
		}
		status := "sent"
		failureReason := ""
		if err := emailSender.Send(msg.recipient, msg.subject, msg.body); err != nil {
			status = "failed"
			failureReason = err.Error()
			logger.Error("email send failed", "err", err, "recipient", msg.recipient)
		}

		if status == "sent" && smsAlertTo != "" && eventType == "calendar.appointment.booked.v1" {
			if err := smsSender.Send(ctx, smsAlertTo, msg.subject+": "+msg.body); err != nil {
				logger.Warn("sms alert failed", "err", err)
			}
		}

		if err := notificationsRepo.Insert(ctx, storage.Notification{
			EventType:  eventType,
			SubjectID:  msg.subjectID,
			CalendarID: msg.calendarID,
			Channel:    "email",
			Recipient:  msg.recipient,
			Payload:    payload,
			Status:     status,
		}); err != nil {
			logger.Error("failed to persist notification", "err", err)
			return err
		}

		if status == "failed" {
			if err := writeDeliveryEvent(ctx, pool, outboxRepo, outbox.EventNotificationFailed, msg, eventType, map[string]any{
				"error_reason": failureReason,
				"failed_at":    time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				logger.Error("failed to enqueue notification.failed", "err", err)
				return err
			}
		} else {
			if err := writeDeliveryEvent(ctx, pool, outboxRepo, outbox.EventNotificationSent, msg, eventType, map[string]any{
				"provider_id": "smtp",
				"sent_at":     time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				logger.Error("failed to enqueue notification.sent", "err", err)
				return err
			}
		}

		logger.Info("event processed", "event_type", eventType, "subject_id", msg.subjectID, "status", status)
		return nil
	}

	startConsumer := func(topic string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   topic,
		}, handleEvent)
		go eventConsumer.Run(ctx)
	}

	startConsumer(config.String("KAFKA_TOPIC_BOOKED", "calendar.appointment.booked.v1"))
	startConsumer(config.String("KAFKA_TOPIC_CANCELLED", "calendar.appointment.cancelled.v1"))
	startConsumer(config.String("KAFKA_TOPIC_FRIENDSHIP", "calendar.friendship.requested.v1"))

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
