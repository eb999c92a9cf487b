// Package push delivers push messages to user devices.
package push

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// Sender delivers one push message to one device token.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// FCMSender implements Sender over Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender creates a new FCMSender.
func NewFCMSender(client *messaging.Client) *FCMSender {
	return &FCMSender{client: client}
}

// Send delivers the message through FCM.
func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	_, err := s.client.Send(ctx, message)
	return err
}
