package binregistry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/repositories"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("iot-bin-routing/binregistry")

var ErrBinNotFound = repositories.ErrBinNotFound
var ErrBinAlreadyExists = repositories.ErrBinAlreadyExists
var ErrInvalidStatus = fmt.Errorf("invalid status")
var ErrInvalidBin = fmt.Errorf("invalid bin")

//go:generate moq -rm -out binregistry_mock.go . BinRegistry

type BinRegistry interface {
	List(ctx context.Context) ([]types.Bin, error)
	Get(ctx context.Context, binID string) (types.Bin, error)
	Create(ctx context.Context, bin types.Bin) error
	SetStatus(ctx context.Context, binID, field, status string) (types.Bin, error)
}

type registry struct {
	repository repositories.BinRepository
	messenger  messaging.MsgContext
}

func New(r repositories.BinRepository, m messaging.MsgContext) BinRegistry {
	return &registry{
		repository: r,
		messenger:  m,
	}
}

func (r *registry) List(ctx context.Context) ([]types.Bin, error) {
	return r.repository.GetAll(ctx)
}

func (r *registry) Get(ctx context.Context, binID string) (types.Bin, error) {
	return r.repository.Get(ctx, binID)
}

// Create adds a new bin. Compartment flags default to "false". A bin with an id that is
// already known is left as it is and ErrBinAlreadyExists is returned.
func (r *registry) Create(ctx context.Context, bin types.Bin) error {
	var err error
	ctx, span := tracer.Start(ctx, "create-bin")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	bin, err = normalize(bin)
	if err != nil {
		return err
	}

	err = r.repository.Add(ctx, bin)
	if err != nil {
		return err
	}

	log := logging.GetFromContext(ctx)
	log.Info().Str("binID", bin.ID).Msg("bin created")

	if pubErr := r.messenger.PublishOnTopic(ctx, &types.BinCreated{
		BinID:     bin.ID,
		Timestamp: time.Now().UTC(),
	}); pubErr != nil {
		log.Error().Err(pubErr).Msg("failed to publish bin created message")
	}

	return nil
}

func normalize(bin types.Bin) (types.Bin, error) {
	bin.ID = strings.TrimSpace(bin.ID)
	if bin.ID == "" {
		return types.Bin{}, fmt.Errorf("%w: id is required", ErrInvalidBin)
	}

	for _, f := range types.StatusFields {
		value := bin.Field(f)
		if value == "" {
			value = "false"
		}

		status, err := types.ParseStatus(value)
		if err != nil {
			return types.Bin{}, fmt.Errorf("%w: %s", ErrInvalidStatus, err.Error())
		}

		bin = bin.WithField(f, status)
	}

	return bin, nil
}

// SetStatus changes a single compartment flag and announces the change on the
// bin.statusUpdated topic.
func (r *registry) SetStatus(ctx context.Context, binID, field, status string) (types.Bin, error) {
	var err error
	ctx, span := tracer.Start(ctx, "set-bin-status")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	f, err := types.ParseStatusField(field)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrInvalidStatus, err.Error())
		return types.Bin{}, err
	}

	s, err := types.ParseStatus(status)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrInvalidStatus, err.Error())
		return types.Bin{}, err
	}

	bin, err := r.repository.SetStatus(ctx, binID, f, s)
	if err != nil {
		return types.Bin{}, err
	}

	log := logging.GetFromContext(ctx)
	log.Debug().Str("binID", binID).Msgf("%s set to %s", f, s)

	if pubErr := r.messenger.PublishOnTopic(ctx, &types.BinStatusUpdated{
		BinID:     binID,
		Field:     string(f),
		Status:    s,
		Timestamp: time.Now().UTC(),
	}); pubErr != nil {
		log.Error().Err(pubErr).Msg("failed to publish status updated message")
	}

	return bin, nil
}

func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrInvalidBin)
}
