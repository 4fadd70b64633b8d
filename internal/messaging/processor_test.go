package messaging

import (
	"context"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/stretchr/testify/require"
)

func TestProcessMessageRejectsMalformedBody(t *testing.T) {
	processor := NewProcessor(nil)
	message := &azservicebus.ReceivedMessage{Body: []byte("not json")}

	err := processor.ProcessMessage(context.Background(), message)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshalling")
}

func TestProcessMessageRejectsUnknownEventType(t *testing.T) {
	processor := NewProcessor(nil)
	message := &azservicebus.ReceivedMessage{Body: []byte(`{"eventType":"Reprice","data":{}}`)}

	err := processor.ProcessMessage(context.Background(), message)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported event type")
}
