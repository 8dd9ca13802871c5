/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/whatsapp"
)

// UpdatePhone sets the phone number used for WhatsApp notifications. An
// empty phone clears it.
func UpdatePhone(c flamego.Context, u AuthUser) {
	var req phoneRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	phone := strings.TrimSpace(req.Phone)
	if phone != "" && !whatsapp.ValidPhone(phone) {
		writeError(c, http.StatusBadRequest, "phone must be an international number with country code")
		return
	}

	user, err := setUserPhoneFn(c.Request().Context(), u.ID, phone, req.WhatsAppOptIn)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			writeError(c, http.StatusNotFound, "user not found")
			return
		}

		writeInternalError(c, "failed to update phone", err)

		return
	}

	writeJSON(c, http.StatusOK, user)
}
