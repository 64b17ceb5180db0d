package whatsapp

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "duitbot/internal/log"
)

// Handler receives one inbound text message. The sender id is the bare
// phone number, without Twilio's whatsapp: prefix.
type Handler interface {
	HandleMessage(ctx context.Context, sender, text string)
}

// Webhook serves Twilio's inbound message callback. The webhook only
// acknowledges receipt; the reply is sent through the Messages API by
// the dispatcher.
type Webhook struct {
	app     *fiber.App
	handler Handler
	logger  *applog.Logger
}

func NewWebhook(handler Handler, logger *applog.Logger) *Webhook {
	w := &Webhook{
		handler: handler,
		logger:  logger.WithComponent(applog.ComponentWhatsApp),
	}
	w.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	w.app.Post("/webhook/whatsapp", w.inbound)
	w.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return w
}

// Twilio posts x-www-form-urlencoded bodies with fields like
// From=whatsapp:+628123...  Body=+makan 15000 nasi
func (w *Webhook) inbound(c *fiber.Ctx) error {
	sender := normalizeFrom(c.FormValue("From"))
	text := strings.TrimSpace(c.FormValue("Body"))

	if sender == "" || text == "" {
		w.logger.Debug("ignoring empty inbound webhook call")
		return writeTwiMLAck(c)
	}

	w.handler.HandleMessage(c.Context(), sender, text)
	return writeTwiMLAck(c)
}

// Listen blocks serving the webhook until Shutdown is called.
func (w *Webhook) Listen(addr string) error {
	w.logger.Info("webhook listening", "addr", addr)
	return w.app.Listen(addr)
}

func (w *Webhook) Shutdown() error {
	return w.app.Shutdown()
}

func normalizeFrom(from string) string {
	from = strings.TrimSpace(from)
	from = strings.TrimPrefix(from, "whatsapp:")
	return strings.TrimSpace(from)
}

// writeTwiMLAck returns an empty MessagingResponse so Twilio does not
// send an automatic reply of its own.
func writeTwiMLAck(c *fiber.Ctx) error {
	c.Set("Content-Type", "application/xml")
	return c.Status(fiber.StatusOK).
		SendString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n" + `<Response></Response>`)
}
