package redisstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/repositories"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	indexKey  string = "bins"
	keyPrefix string = "bin:"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// binStore keeps every bin as a hash of its fields. The ids of all known bins are kept
// in a set so that listing does not require a key scan.
type binStore struct {
	client *redis.Client
}

func New(ctx context.Context, log zerolog.Logger, cfg Config) (repositories.BinRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("connected to redis")

	return &binStore{client: client}, nil
}

func key(binID string) string {
	return keyPrefix + binID
}

func (s *binStore) GetAll(ctx context.Context) ([]types.Bin, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		log := logging.GetFromContext(ctx)
		log.Error().Err(err).Msg("redis error")
		return nil, repositories.ErrRepositoryError
	}

	sort.Strings(ids)

	cmds, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range ids {
			p.HGetAll(ctx, key(id))
		}
		return nil
	})
	if err != nil {
		log := logging.GetFromContext(ctx)
		log.Error().Err(err).Msg("redis error")
		return nil, repositories.ErrRepositoryError
	}

	bins := make([]types.Bin, 0, len(cmds))
	for i, cmd := range cmds {
		fields, err := cmd.(*redis.MapStringStringCmd).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		bins = append(bins, toBin(ids[i], fields))
	}

	return bins, nil
}

func (s *binStore) Get(ctx context.Context, binID string) (types.Bin, error) {
	fields, err := s.client.HGetAll(ctx, key(binID)).Result()
	if err != nil {
		log := logging.GetFromContext(ctx)
		log.Error().Err(err).Msg("redis error")
		return types.Bin{}, repositories.ErrRepositoryError
	}

	if len(fields) == 0 {
		return types.Bin{}, repositories.ErrBinNotFound
	}

	return toBin(binID, fields), nil
}

// Add stores a new bin. Existing bins are never overwritten.
func (s *binStore) Add(ctx context.Context, bin types.Bin) error {
	added, err := s.client.SAdd(ctx, indexKey, bin.ID).Result()
	if err != nil {
		return err
	}

	if added == 0 {
		return fmt.Errorf("%w: %s", repositories.ErrBinAlreadyExists, bin.ID)
	}

	return s.client.HSet(ctx, key(bin.ID), fromBin(bin)).Err()
}

func (s *binStore) SetStatus(ctx context.Context, binID string, field types.StatusField, status string) (types.Bin, error) {
	exists, err := s.client.SIsMember(ctx, indexKey, binID).Result()
	if err != nil {
		return types.Bin{}, err
	}

	if !exists {
		return types.Bin{}, repositories.ErrBinNotFound
	}

	if err = s.client.HSet(ctx, key(binID), string(field), status).Err(); err != nil {
		return types.Bin{}, err
	}

	return s.Get(ctx, binID)
}

func toBin(binID string, fields map[string]string) types.Bin {
	return types.Bin{
		ID:       binID,
		Location: fields["loc"],
		Lat:      fields["lat"],
		Lng:      fields["lng"],
		BoxFull:  fields[string(types.BoxFull)],
		PETFull:  fields[string(types.PETFull)],
		CanFull:  fields[string(types.CanFull)],
	}
}

func fromBin(b types.Bin) map[string]any {
	return map[string]any{
		"loc":                  b.Location,
		"lat":                  b.Lat,
		"lng":                  b.Lng,
		string(types.BoxFull): b.BoxFull,
		string(types.PETFull): b.PETFull,
		string(types.CanFull): b.CanFull,
	}
}
