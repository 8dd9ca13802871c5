/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UpsertFCMToken registers a device token for push notifications. A token
// already registered for the user has its device type refreshed.
func UpsertFCMToken(ctx context.Context, userID uuid.UUID, token, deviceType string) (*FCMToken, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errTokenRequired
	}

	if deviceType = strings.TrimSpace(deviceType); deviceType == "" {
		deviceType = "unknown"
	}

	var t FCMToken
	if err := pool.QueryRow(ctx, `
		INSERT INTO user_fcm_tokens (user_id, fcm_token, device_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, fcm_token)
		DO UPDATE SET device_type = EXCLUDED.device_type, updated_at = now()
		RETURNING id, user_id, fcm_token, device_type, created_at, updated_at
	`, userID, token, deviceType).Scan(
		&t.ID, &t.UserID, &t.Token, &t.DeviceType, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to save fcm token: %w", err)
	}

	return &t, nil
}

// ListFCMTokens returns a user's registered device tokens, newest first.
func ListFCMTokens(ctx context.Context, userID uuid.UUID) ([]FCMToken, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT id, user_id, fcm_token, device_type, created_at, updated_at
		FROM user_fcm_tokens
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fcm tokens: %w", err)
	}
	defer rows.Close()

	tokens := []FCMToken{}

	for rows.Next() {
		var t FCMToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.DeviceType, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fcm token: %w", err)
		}

		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fcm tokens: %w", err)
	}

	return tokens, nil
}

// DeleteFCMToken removes a device token. Removing an unknown token is not an
// error.
func DeleteFCMToken(ctx context.Context, userID uuid.UUID, token string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if _, err := pool.Exec(ctx,
		`DELETE FROM user_fcm_tokens WHERE user_id = $1 AND fcm_token = $2`,
		userID, strings.TrimSpace(token),
	); err != nil {
		return fmt.Errorf("failed to delete fcm token: %w", err)
	}

	return nil
}
