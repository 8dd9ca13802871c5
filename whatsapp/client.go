/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package whatsapp

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// Status represents the WhatsApp connection status
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusPairing      Status = "pairing"
)

// sender is the subset of whatsmeow.Client used to deliver messages.
type sender interface {
	SendMessage(ctx context.Context, to types.JID, message *waE2E.Message, extra ...whatsmeow.SendRequestExtra) (whatsmeow.SendResponse, error)
}

// Client manages the WhatsApp connection used for report notifications.
type Client struct {
	client      *whatsmeow.Client
	container   *sqlstore.Container
	deviceStore *store.Device
	status      Status
	qrCode      string // Base64 encoded PNG
	mu          sync.RWMutex

	// send is swapped in tests.
	send sender
}

var (
	instance *Client
	once     sync.Once
)

// GetClient returns the singleton WhatsApp client instance, or nil when
// WhatsApp delivery is disabled.
func GetClient() *Client {
	return instance
}

// Initialize sets up the WhatsApp client with PostgreSQL storage
func Initialize(ctx context.Context, databaseURL string) error {
	var initErr error

	once.Do(func() {
		store.SetOSInfo("Labwise", [3]uint32{1, 0, 0})

		container, err := sqlstore.New(ctx, "pgx", databaseURL, newWALogger("sqlstore"))
		if err != nil {
			initErr = fmt.Errorf("failed to create sqlstore: %w", err)
			return
		}

		deviceStore, err := container.GetFirstDevice(ctx)
		if err != nil {
			initErr = fmt.Errorf("failed to get device: %w", err)
			return
		}

		instance = &Client{
			container:   container,
			deviceStore: deviceStore,
			status:      StatusDisconnected,
		}

		if deviceStore.ID != nil {
			go func() {
				if err := instance.Reconnect(context.Background()); err != nil {
					logger.Warn("WhatsApp reconnect failed", "error", err)
				}
			}()
		}
	})

	return initErr
}

// GetStatus returns the current connection status
func (c *Client) GetStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.status
}

// GetQRCode returns the current QR code as a base64 PNG string
func (c *Client) GetQRCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.qrCode
}

func (c *Client) setStatus(status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
}

func (c *Client) setQRCode(qrCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.qrCode = qrCode
}

func (c *Client) newWhatsmeowClient() {
	c.client = whatsmeow.NewClient(c.deviceStore, newWALogger("client"))
	c.client.AddEventHandler(c.handleEvent)
	c.client.EnableAutoReconnect = true
	c.client.AutoTrustIdentity = true

	c.mu.Lock()
	c.send = c.client
	c.mu.Unlock()
}

// Connect initiates the WhatsApp connection. Unpaired devices move to the
// pairing state and publish a QR code through GetQRCode.
func (c *Client) Connect(ctx context.Context) error {
	c.setStatus(StatusConnecting)
	c.newWhatsmeowClient()

	if c.client.Store.ID != nil {
		if err := c.client.Connect(); err != nil {
			c.setStatus(StatusDisconnected)
			return fmt.Errorf("failed to connect: %w", err)
		}

		c.setStatus(StatusConnected)

		return nil
	}

	c.setStatus(StatusPairing)

	qrChan, err := c.client.GetQRChannel(ctx)
	if err != nil {
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("failed to get QR channel: %w", err)
	}

	if err := c.client.Connect(); err != nil {
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("failed to connect: %w", err)
	}

	go c.watchPairing(qrChan)

	return nil
}

func (c *Client) watchPairing(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		logger.Debug("WhatsApp QR event", "event", evt.Event)

		switch evt.Event {
		case whatsmeow.QRChannelEventCode:
			png, err := qrcode.Encode(evt.Code, qrcode.Medium, 256)
			if err != nil {
				logger.Error("Failed to generate QR code", "error", err)
				continue
			}

			c.setQRCode(base64.StdEncoding.EncodeToString(png))
		case "success":
			c.setQRCode("")
			c.setStatus(StatusConnected)
			logger.Info("WhatsApp pairing successful")
		case "timeout":
			c.setQRCode("")
			c.setStatus(StatusDisconnected)
			logger.Warn("WhatsApp QR code timeout")
		case whatsmeow.QRChannelEventError:
			c.setQRCode("")
			c.setStatus(StatusDisconnected)
			logger.Error("WhatsApp pairing error", "error", evt.Error)
		}
	}
}

// Reconnect attempts to reconnect with existing credentials
func (c *Client) Reconnect(_ context.Context) error {
	if c.deviceStore.ID == nil {
		return errNoExistingSessionToReconnect
	}

	c.setStatus(StatusConnecting)
	c.newWhatsmeowClient()

	if err := c.client.Connect(); err != nil {
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("failed to reconnect: %w", err)
	}

	c.setStatus(StatusConnected)
	logger.Info("WhatsApp reconnected")

	return nil
}

// Disconnect cleanly disconnects the WhatsApp client
func (c *Client) Disconnect() {
	if c.client != nil {
		c.client.Disconnect()
	}

	c.setStatus(StatusDisconnected)
	c.setQRCode("")
}

// Logout disconnects and removes the device credentials
func (c *Client) Logout(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Logout(ctx); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	c.setStatus(StatusDisconnected)
	c.setQRCode("")

	if c.container == nil {
		return errNoDeviceStoreContainer
	}

	deviceStore, err := c.container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get new device: %w", err)
	}

	c.deviceStore = deviceStore

	return nil
}

func (c *Client) handleEvent(evt interface{}) {
	switch evt.(type) {
	case *events.Connected:
		c.setStatus(StatusConnected)
		logger.Info("WhatsApp connected")
	case *events.Disconnected:
		c.setStatus(StatusDisconnected)
		logger.Info("WhatsApp disconnected")
	case *events.LoggedOut:
		c.setStatus(StatusDisconnected)
		logger.Warn("WhatsApp logged out")
	}
}

// IsConnected returns true if WhatsApp is connected
func (c *Client) IsConnected() bool {
	return c.GetStatus() == StatusConnected
}

// SendText delivers a plain text message to a phone number.
func (c *Client) SendText(ctx context.Context, phone, text string) error {
	jid, err := PhoneToJID(phone)
	if err != nil {
		return err
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.mu.RLock()
	send := c.send
	c.mu.RUnlock()

	if send == nil {
		return ErrNotConnected
	}

	resp, err := send.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp message: %w", err)
	}

	logger.Debug("WhatsApp message sent", "id", resp.ID, "to", jid.User)

	return nil
}
