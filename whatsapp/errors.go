/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package whatsapp

import "errors"

var (
	// ErrNotConnected is returned when sending while the client is not paired
	// or the connection is down.
	ErrNotConnected = errors.New("whatsapp client is not connected")
	// ErrInvalidPhone is returned for numbers that cannot be addressed.
	ErrInvalidPhone = errors.New("invalid phone number")

	errNoExistingSessionToReconnect = errors.New("no existing session to reconnect")
	errNoDeviceStoreContainer       = errors.New("whatsapp SQL store container is unavailable")
)
