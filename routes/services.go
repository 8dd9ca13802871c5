/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"time"

	"github.com/humaidq/labwise/cache"
	"github.com/humaidq/labwise/processor"
	"github.com/humaidq/labwise/storage"
)

// DefaultMaxUploadSize bounds uploaded report files.
const DefaultMaxUploadSize = 10 << 20

// JobSubmitter queues uploaded reports for background processing.
type JobSubmitter interface {
	Submit(job processor.Job) error
}

// Services are the collaborators handlers receive through injection. Map a
// *Services on the flamego instance before registering routes.
type Services struct {
	Jobs          JobSubmitter
	Store         storage.Store
	Cache         *cache.Client
	Tokens        *TokenIssuer
	MaxUploadSize int64
	Now           func() time.Time
}

func (s *Services) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

func (s *Services) maxUploadSize() int64 {
	if s.MaxUploadSize > 0 {
		return s.MaxUploadSize
	}

	return DefaultMaxUploadSize
}
