package binregistry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const BinStatusTopic string = "bin-status"

func RegisterTopicMessageHandlers(m messaging.MsgContext, r BinRegistry) {
	m.RegisterTopicMessageHandler(BinStatusTopic, BinStatusTopicHandler(r))
}

// BinStatusTopicHandler applies compartment status reports sent by the bin sensors.
func BinStatusTopicHandler(r BinRegistry) messaging.TopicMessageHandler {
	return func(ctx context.Context, msg amqp.Delivery, logger zerolog.Logger) {
		report := types.BinStatusReported{}

		err := json.Unmarshal(msg.Body, &report)
		if err != nil {
			logger.Error().Err(err).Msgf("failed to unmarshal message from %s", msg.RoutingKey)
			return
		}

		logger = logger.With().Str("binID", report.BinID).Logger()

		_, err = r.SetStatus(ctx, report.BinID, report.Field, report.Status)
		if err != nil {
			if errors.Is(err, ErrBinNotFound) {
				logger.Warn().Msg("status reported for unknown bin")
				return
			}
			logger.Error().Err(err).Msg("could not update status on bin")
			return
		}

		logger.Debug().Msgf("%s handled", msg.RoutingKey)
	}
}
