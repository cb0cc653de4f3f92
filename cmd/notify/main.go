package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/prodlast/cospace-backend/internal/mailer"
	"github.com/prodlast/cospace-backend/pkg/config"
	"github.com/prodlast/cospace-backend/pkg/events"
	"github.com/prodlast/cospace-backend/pkg/logger"
)

// Notification worker: consumes booking lifecycle events off NATS and
// emails the booking owner.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	bus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	mail := mailer.New(cfg.Email)

	subscribe(bus, events.BookingCreated, func(msg *events.Message) {
		var ev events.BookingCreatedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Error("bad booking.created payload", "error", err)
			return
		}
		if ev.UserEmail == "" {
			return
		}
		subject := "Your booking is confirmed"
		text := fmt.Sprintf("Hi %s,\n\nYour booking %s is confirmed from %s to %s.",
			ev.UserLogin, ev.BookingID, ev.StartAt.Format("2006-01-02 15:04"), ev.EndAt.Format("15:04"))
		html := fmt.Sprintf("<p>Hi %s,</p><p>Your booking <b>%s</b> is confirmed from %s to %s.</p>",
			ev.UserLogin, ev.BookingID, ev.StartAt.Format("2006-01-02 15:04"), ev.EndAt.Format("15:04"))
		sendMail(mail, ev.UserEmail, ev.UserLogin, subject, text, html)
	})

	subscribe(bus, events.BookingCancelled, func(msg *events.Message) {
		var ev events.BookingCancelledEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Error("bad booking.cancelled payload", "error", err)
			return
		}
		if ev.UserEmail == "" {
			return
		}
		subject := "Your booking was cancelled"
		text := fmt.Sprintf("Booking %s was cancelled at %s.", ev.BookingID, ev.CancelledAt.Format("2006-01-02 15:04"))
		sendMail(mail, ev.UserEmail, "", subject, text, "<p>"+text+"</p>")
	})

	subscribe(bus, events.BookingRedeemed, func(msg *events.Message) {
		var ev events.BookingRedeemedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Error("bad booking.redeemed payload", "error", err)
			return
		}
		if ev.UserEmail == "" {
			return
		}
		subject := "Booking checked in"
		text := fmt.Sprintf("Booking %s was redeemed at %s. Enjoy your space!", ev.BookingID, ev.RedeemedAt.Format("15:04"))
		sendMail(mail, ev.UserEmail, "", subject, text, "<p>"+text+"</p>")
	})

	logger.Info("Notify worker listening", "nats", cfg.NATS.URL)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down notify worker...")
}

func subscribe(bus events.EventBus, subject string, handler func(msg *events.Message)) {
	if err := bus.QueueSubscribe(subject, "notify", handler); err != nil {
		logger.Error("Failed to subscribe", "subject", subject, "error", err)
		os.Exit(1)
	}
}

func sendMail(mail mailer.Service, to, name, subject, text, html string) {
	if _, err := mail.Send(to, name, subject, text, html); err != nil {
		logger.Error("Failed to send notification email", "error", err, "to", to)
	}
}
