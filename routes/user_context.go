/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"github.com/flamego/session"
	"github.com/google/uuid"

	"github.com/humaidq/labwise/db"
)

// AuthUser is the authenticated caller. RequireAuth maps it for handlers.
type AuthUser struct {
	ID       uuid.UUID
	ViaToken bool
}

func getSessionUserID(s session.Session) (string, bool) {
	if val := s.Get("user_id"); val != nil {
		if userID, ok := val.(string); ok && userID != "" {
			return userID, true
		}
	}

	return "", false
}

// sessionUser returns the user stored in an authenticated session.
func sessionUser(s session.Session) (uuid.UUID, error) {
	authenticated, ok := s.Get("authenticated").(bool)
	if !ok || !authenticated {
		return uuid.Nil, errSessionUserMissing
	}

	raw, ok := getSessionUserID(s)
	if !ok {
		return uuid.Nil, errSessionUserMissing
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errSessionUserMissing
	}

	return id, nil
}

func setSessionUser(s session.Session, user *db.User) {
	s.Set("authenticated", true)
	s.Set("user_id", user.ID.String())
	s.Set("user_display_name", user.DisplayName)
}

func clearSessionUser(s session.Session) {
	s.Delete("authenticated")
	s.Delete("user_id")
	s.Delete("user_display_name")
}
