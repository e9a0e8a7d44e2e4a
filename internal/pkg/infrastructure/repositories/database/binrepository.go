package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/repositories"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type binRepository struct {
	db *gorm.DB
}

func New(connect ConnectorFunc) (repositories.BinRepository, error) {
	impl, _, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Bin{})
	if err != nil {
		return nil, err
	}

	return &binRepository{
		db: impl,
	}, nil
}

func (r *binRepository) GetAll(ctx context.Context) ([]types.Bin, error) {
	var bins []Bin

	result := r.db.WithContext(ctx).Order("bin_id").Find(&bins)
	if result.Error != nil {
		log := logging.GetFromContext(ctx)
		log.Error().Err(result.Error).Msg("gorm error")
		return nil, repositories.ErrRepositoryError
	}

	return lo.Map(bins, func(b Bin, _ int) types.Bin {
		return b.toModel()
	}), nil
}

func (r *binRepository) Get(ctx context.Context, binID string) (types.Bin, error) {
	bin, err := r.get(r.db.WithContext(ctx), binID)
	if err != nil {
		if !errors.Is(err, repositories.ErrBinNotFound) {
			log := logging.GetFromContext(ctx)
			log.Error().Err(err).Msg("gorm error")
			return types.Bin{}, repositories.ErrRepositoryError
		}
		return types.Bin{}, err
	}

	return bin.toModel(), nil
}

func (r *binRepository) get(tx *gorm.DB, binID string) (Bin, error) {
	bin := Bin{}

	result := tx.Where(&Bin{BinID: binID}).First(&bin)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Bin{}, repositories.ErrBinNotFound
		}
		return Bin{}, result.Error
	}

	return bin, nil
}

// Add stores a new bin. Existing bins are never overwritten.
func (r *binRepository) Add(ctx context.Context, bin types.Bin) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := r.get(tx, bin.ID)
		if err == nil {
			return fmt.Errorf("%w: %s", repositories.ErrBinAlreadyExists, bin.ID)
		}
		if !errors.Is(err, repositories.ErrBinNotFound) {
			return err
		}

		b := fromModel(bin)
		return tx.Create(&b).Error
	})
}

func (r *binRepository) SetStatus(ctx context.Context, binID string, field types.StatusField, status string) (types.Bin, error) {
	column, ok := columns[field]
	if !ok {
		return types.Bin{}, fmt.Errorf("unknown status field %s", field)
	}

	var updated Bin

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bin, err := r.get(tx, binID)
		if err != nil {
			return err
		}

		result := tx.Model(&bin).Update(column, status)
		if result.Error != nil {
			return result.Error
		}

		updated, err = r.get(tx, binID)
		return err
	})
	if err != nil {
		return types.Bin{}, err
	}

	return updated.toModel(), nil
}
