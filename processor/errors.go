/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package processor

import "errors"

var (
	// ErrQueueFull is returned by Submit when no more jobs can be queued.
	ErrQueueFull = errors.New("processing queue is full")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("processor is stopped")

	errNotStarted     = errors.New("processor is not started")
	errAlreadyStarted = errors.New("processor already started")
)
