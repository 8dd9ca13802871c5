/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyzer

import "github.com/humaidq/labwise/logging"

var logger = logging.Logger(logging.SourceAnalyzer)
