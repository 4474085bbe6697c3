package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthdesk/clinic-booking/pkg/logging"
)

func TestNewSendGridSenderRequiresAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: ""}, logging.Default())
	assert.Nil(t, sender)
}

func TestNewSendGridSenderDefaultsLogger(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "SG.test-key",
		FromEmail: "clinic@example.com",
		FromName:  "Clinic",
	}, nil)
	require.NotNil(t, sender)
	assert.NotNil(t, sender.logger)
}

func TestStubSenderAlwaysSucceeds(t *testing.T) {
	sender := NewStubSender(nil)

	sent, err := sender.Send(context.Background(), Message{
		To:      "p@x.com",
		ToName:  "p",
		Subject: "Your Appointment Confirmation",
		Body:    "hello",
	})

	require.NoError(t, err)
	assert.True(t, sent)
}
