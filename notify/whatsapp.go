/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/humaidq/labwise/whatsapp"
)

type textSender interface {
	SendText(ctx context.Context, phone, text string) error
}

// WhatsApp texts users who opted in and saved a phone number.
type WhatsApp struct {
	client func() textSender
}

// NewWhatsApp returns a notifier that sends through the shared WhatsApp
// client. Events are skipped while it is not set up.
func NewWhatsApp() *WhatsApp {
	return &WhatsApp{client: func() textSender {
		if c := whatsapp.GetClient(); c != nil {
			return c
		}

		return nil
	}}
}

// ReportProcessed sends the composed message as a WhatsApp text.
func (w *WhatsApp) ReportProcessed(ctx context.Context, event Event) error {
	user := event.User
	if user == nil || !user.WhatsAppOptIn || user.Phone == nil || *user.Phone == "" {
		return nil
	}

	client := w.client()
	if client == nil {
		return nil
	}

	msg := Compose(event)

	if err := client.SendText(ctx, *user.Phone, "*"+msg.Title+"*\n"+msg.Body); err != nil {
		if errors.Is(err, whatsapp.ErrNotConnected) {
			logger.Warn("Skipping WhatsApp notification, client not connected", "user_id", user.ID)
			return nil
		}

		return fmt.Errorf("failed to send WhatsApp notification: %w", err)
	}

	return nil
}
