// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/humaidq/labwise/whatsapp"
)

type fakeTexter struct {
	phone string
	text  string
	err   error
	calls int
}

func (f *fakeTexter) SendText(_ context.Context, phone, text string) error {
	f.calls++
	f.phone = phone
	f.text = text

	return f.err
}

func whatsAppWith(sender *fakeTexter) *WhatsApp {
	return &WhatsApp{client: func() textSender { return sender }}
}

func TestWhatsAppReportProcessed(t *testing.T) {
	t.Parallel()

	sender := &fakeTexter{}
	event := testEvent()

	if err := whatsAppWith(sender).ReportProcessed(context.Background(), event); err != nil {
		t.Fatalf("ReportProcessed returned error: %v", err)
	}

	if sender.phone != *event.User.Phone {
		t.Fatalf("phone = %q", sender.phone)
	}

	msg := Compose(event)
	if !strings.HasPrefix(sender.text, "*"+msg.Title+"*\n") || !strings.HasSuffix(sender.text, msg.Body) {
		t.Fatalf("text = %q", sender.text)
	}
}

func TestWhatsAppSkips(t *testing.T) {
	t.Parallel()

	empty := ""

	tests := map[string]func(e *Event){
		"no user":     func(e *Event) { e.User = nil },
		"opted out":   func(e *Event) { e.User.WhatsAppOptIn = false },
		"no phone":    func(e *Event) { e.User.Phone = nil },
		"empty phone": func(e *Event) { e.User.Phone = &empty },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sender := &fakeTexter{}
			event := testEvent()
			mutate(&event)

			if err := whatsAppWith(sender).ReportProcessed(context.Background(), event); err != nil {
				t.Fatalf("ReportProcessed returned error: %v", err)
			}

			if sender.calls != 0 {
				t.Fatal("message should not be sent")
			}
		})
	}
}

func TestWhatsAppErrors(t *testing.T) {
	t.Parallel()

	disconnected := &fakeTexter{err: whatsapp.ErrNotConnected}
	if err := whatsAppWith(disconnected).ReportProcessed(context.Background(), testEvent()); err != nil {
		t.Fatalf("disconnected client should be skipped, got %v", err)
	}

	boom := errors.New("boom")
	failing := &fakeTexter{err: boom}

	if err := whatsAppWith(failing).ReportProcessed(context.Background(), testEvent()); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}

	none := &WhatsApp{client: func() textSender { return nil }}
	if err := none.ReportProcessed(context.Background(), testEvent()); err != nil {
		t.Fatalf("missing client should be skipped, got %v", err)
	}
}

func TestNewWhatsAppWithoutClient(t *testing.T) {
	t.Parallel()

	if whatsapp.GetClient() != nil {
		t.Skip("whatsapp client initialized by another test")
	}

	if err := NewWhatsApp().ReportProcessed(context.Background(), testEvent()); err != nil {
		t.Fatalf("ReportProcessed returned error: %v", err)
	}
}
