package repositories

import (
	"context"
	"fmt"

	"github.com/diwise/iot-bin-routing/pkg/types"
)

var ErrBinNotFound = fmt.Errorf("bin not found")
var ErrBinAlreadyExists = fmt.Errorf("bin already exists")
var ErrRepositoryError = fmt.Errorf("could not fetch data from repository")

//go:generate moq -rm -out binrepository_mock.go . BinRepository

type BinRepository interface {
	GetAll(ctx context.Context) ([]types.Bin, error)
	Get(ctx context.Context, binID string) (types.Bin, error)
	Add(ctx context.Context, bin types.Bin) error
	SetStatus(ctx context.Context, binID string, field types.StatusField, status string) (types.Bin, error)
}
