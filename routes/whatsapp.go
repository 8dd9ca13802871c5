/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwise/whatsapp"
)

var whatsappClientFn = whatsapp.GetClient

type whatsappStatusResponse struct {
	Status    string `json:"status"`
	QRCode    string `json:"qrCode"`
	Connected bool   `json:"connected"`
}

// WhatsAppStatus returns the pairing state of the notification sender.
func WhatsAppStatus(c flamego.Context) {
	response := whatsappStatusResponse{Status: "unavailable"}

	if client := whatsappClientFn(); client != nil {
		response.Status = string(client.GetStatus())
		response.QRCode = client.GetQRCode()
		response.Connected = client.IsConnected()
	}

	writeJSON(c, http.StatusOK, response)
}

// WhatsAppConnect starts pairing. Poll WhatsAppStatus for the QR code.
func WhatsAppConnect(c flamego.Context) {
	client := whatsappClientFn()
	if client == nil {
		writeError(c, http.StatusServiceUnavailable, "WhatsApp is not available")
		return
	}

	// The connection outlives the request.
	go func() {
		if err := client.Connect(context.Background()); err != nil {
			logger.Error("WhatsApp connect failed", "error", err)
		}
	}()

	writeJSON(c, http.StatusAccepted, messageResponse{Message: "Connecting"})
}

// WhatsAppDisconnect logs the notification sender out.
func WhatsAppDisconnect(c flamego.Context) {
	client := whatsappClientFn()
	if client == nil {
		writeError(c, http.StatusServiceUnavailable, "WhatsApp is not available")
		return
	}

	if err := client.Logout(c.Request().Context()); err != nil {
		writeInternalError(c, "failed to disconnect WhatsApp", err)
		return
	}

	writeJSON(c, http.StatusOK, messageResponse{Message: "WhatsApp disconnected"})
}
