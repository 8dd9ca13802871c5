/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package storage

import "github.com/humaidq/labwise/logging"

var logger = logging.Logger(logging.SourceStorage)
