/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package notify

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/humaidq/labwise/db"
)

// Token store functions, swapped in tests.
var (
	ListTokensFn  = db.ListFCMTokens
	DeleteTokenFn = db.DeleteFCMToken
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM sends push notifications through Firebase Cloud Messaging to every
// device a user registered.
type FCM struct {
	client       messageSender
	unregistered func(error) bool
}

// NewFCM creates an FCM notifier from a service account credentials file.
func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	logger.Info("Firebase messaging initialized")

	return newFCM(client), nil
}

func newFCM(client messageSender) *FCM {
	return &FCM{client: client, unregistered: messaging.IsRegistrationTokenNotRegistered}
}

// ReportProcessed sends one message per registered token. Tokens that FCM
// reports as no longer registered are removed.
func (f *FCM) ReportProcessed(ctx context.Context, event Event) error {
	if event.User == nil || event.Report == nil {
		return nil
	}

	tokens, err := ListTokensFn(ctx, event.User.ID)
	if err != nil {
		return fmt.Errorf("failed to list fcm tokens: %w", err)
	}

	if len(tokens) == 0 {
		return nil
	}

	msg := Compose(event)
	data := messageData(event)

	var (
		errs []error
		sent int
	)

	for _, token := range tokens {
		_, err := f.client.Send(ctx, &messaging.Message{
			Token: token.Token,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: data,
		})
		if err == nil {
			sent++
			continue
		}

		if f.unregistered(err) {
			f.prune(ctx, event.User.ID, token)
			continue
		}

		errs = append(errs, fmt.Errorf("failed to send to %s device: %w", token.DeviceType, err))
	}

	logger.Debug("Push notifications sent", "user_id", event.User.ID, "report_id", event.Report.ID,
		"sent", sent, "tokens", len(tokens))

	return errors.Join(errs...)
}

func (f *FCM) prune(ctx context.Context, userID uuid.UUID, token db.FCMToken) {
	if err := DeleteTokenFn(ctx, userID, token.Token); err != nil {
		logger.Warn("Failed to remove unregistered fcm token", "user_id", userID, "token_id", token.ID, "error", err)
		return
	}

	logger.Info("Removed unregistered fcm token", "user_id", userID, "token_id", token.ID)
}

func messageData(event Event) map[string]string {
	status := string(db.ReportCompleted)
	if event.Failed {
		status = string(db.ReportFailed)
	}

	return map[string]string{
		"report_id":   event.Report.ID.String(),
		"report_type": string(event.Report.ReportType),
		"status":      status,
	}
}
