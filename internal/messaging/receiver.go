package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/maison/services/payroll/config"
)

// Receiver consumes intake messages from an Azure Service Bus queue.
type Receiver struct {
	client *azservicebus.Client
}

// NewReceiver creates a receiver from the configured connection string
func NewReceiver(cfg config.AzureConfig) (*Receiver, error) {
	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnStr, nil)
	if err != nil {
		return nil, err
	}

	return &Receiver{client: client}, nil
}

// StartConsumers receives session batches from the queue until ctx is
// cancelled. Failed messages are abandoned back to the queue.
func (r *Receiver) StartConsumers(ctx context.Context, queueName string, processor MessageProcessor) error {
	log.Info().Msgf("Starting consumers for queue %s", queueName)

	// Loop continuously to handle reconnections
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sessionReceiver, err := r.client.AcceptNextSessionForQueue(ctx, queueName, nil)
		if err != nil {
			var sbErr *azservicebus.Error
			if errors.As(err, &sbErr) && sbErr.Code == azservicebus.CodeTimeout {
				log.Info().Msg("No session available, waiting...")
				time.Sleep(2 * time.Second)
				continue
			}
			return err
		}

		log.Info().Msgf("Session '%s' received", sessionReceiver.SessionID())

		go r.handleSession(ctx, sessionReceiver, processor)
	}
}

func (r *Receiver) handleSession(ctx context.Context, receiver *azservicebus.SessionReceiver, processor MessageProcessor) {
	defer func() {
		log.Info().Msgf("Closing session '%s'", receiver.SessionID())
		if err := receiver.Close(context.Background()); err != nil {
			log.Error().Err(err).Msgf("Error closing session '%s'", receiver.SessionID())
		}
	}()

	for {
		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			log.Error().Err(err).Msgf("Error receiving messages from session '%s'", receiver.SessionID())
			return
		}

		if len(messages) == 0 {
			// No more messages in this session
			return
		}

		log.Info().Msgf("Received %d messages from session '%s'", len(messages), receiver.SessionID())

		for _, message := range messages {
			if err := processor.ProcessMessage(ctx, message); err != nil {
				log.Error().Err(err).Msgf("Error processing message '%s'", message.MessageID)
				if err := receiver.AbandonMessage(ctx, message, nil); err != nil {
					log.Error().Err(err).Msg("Failed to abandon message")
				}
				continue
			}

			if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Msg("Failed to complete message")
			}
		}
	}
}

// Close closes the underlying Service Bus client
func (r *Receiver) Close() error {
	if r.client != nil {
		return r.client.Close(context.Background())
	}
	return nil
}
