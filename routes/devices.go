/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"
	"strings"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwise/db"
)

var (
	upsertFCMTokenFn = db.UpsertFCMToken
	deleteFCMTokenFn = db.DeleteFCMToken
	setUserPhoneFn   = db.SetUserPhone
)

type deviceRequest struct {
	FCMToken   string `json:"fcm_token"`
	DeviceType string `json:"device_type"`
}

type phoneRequest struct {
	Phone         string `json:"phone"`
	WhatsAppOptIn bool   `json:"whatsapp_opt_in"`
}

// RegisterDevice stores a push notification token for the caller.
func RegisterDevice(c flamego.Context, u AuthUser) {
	var req deviceRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.FCMToken) == "" {
		writeError(c, http.StatusBadRequest, "fcm_token is required")
		return
	}

	token, err := upsertFCMTokenFn(c.Request().Context(), u.ID, req.FCMToken, req.DeviceType)
	if err != nil {
		writeInternalError(c, "failed to register device", err)
		return
	}

	writeJSON(c, http.StatusCreated, token)
}

// UnregisterDevice removes a push notification token of the caller.
func UnregisterDevice(c flamego.Context, u AuthUser) {
	var req deviceRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.FCMToken) == "" {
		writeError(c, http.StatusBadRequest, "fcm_token is required")
		return
	}

	if err := deleteFCMTokenFn(c.Request().Context(), u.ID, req.FCMToken); err != nil {
		writeInternalError(c, "failed to unregister device", err)
		return
	}

	writeJSON(c, http.StatusOK, messageResponse{Message: "Device unregistered"})
}
