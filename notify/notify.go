/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package notify tells users that a report finished processing.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/labs"
	"github.com/humaidq/labwise/logging"
)

var logger = logging.Logger(logging.SourceNotify)

// Event describes a report that finished processing.
type Event struct {
	User     *db.User
	Report   *db.Report
	Readings []labs.MetricReading
	FollowUp labs.FollowUpSchedule
	Failed   bool
	Reason   string
}

// Notifier delivers report events to users.
type Notifier interface {
	ReportProcessed(ctx context.Context, event Event) error
}

// Multi fans an event out to several notifiers.
type Multi []Notifier

// ReportProcessed calls every notifier and joins their errors.
func (m Multi) ReportProcessed(ctx context.Context, event Event) error {
	var errs []error

	for _, n := range m {
		if n == nil {
			continue
		}

		if err := n.ReportProcessed(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Message is the human text of a notification.
type Message struct {
	Title string
	Body  string
}

// Compose writes the notification text for an event.
func Compose(event Event) Message {
	name := "medical report"
	if event.Report != nil {
		name = event.Report.ReportType.Name()
	}

	if event.Failed {
		reason := strings.TrimSpace(event.Reason)
		if reason == "" {
			reason = "the file could not be read"
		}

		return Message{
			Title: "Report processing failed",
			Body:  fmt.Sprintf("We could not analyse your %s: %s. Please upload a clearer file.", name, reason),
		}
	}

	var (
		flagged []string
		total   = len(event.Readings)
	)

	for _, r := range event.Readings {
		if r.Status.Abnormal() {
			flagged = append(flagged, fmt.Sprintf("%s (%s)", labs.DisplayName(r.Name), r.Status))
		}
	}

	title := fmt.Sprintf("Your %s results are ready", name)

	if len(flagged) == 0 {
		return Message{
			Title: title,
			Body:  fmt.Sprintf("All %d values are within normal ranges.", total),
		}
	}

	body := fmt.Sprintf("%d of %d values need attention: %s.", len(flagged), total, strings.Join(flagged, ", "))
	if event.FollowUp.Timeframe != "" {
		body += fmt.Sprintf(" Suggested follow-up: %s.", event.FollowUp.Timeframe)
	}

	return Message{Title: title, Body: body}
}
