package binregistry

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-bin-routing/pkg/types"
)

// Seed loads bins from a semicolon separated file with the columns
// id;loc;lat;lng;BoxFull;PETFull;CanFull and a header row. Bins that already exist are kept.
func Seed(ctx context.Context, r BinRegistry, bins io.Reader) error {
	log := logging.GetFromContext(ctx)

	records, err := readRecords(bins)
	if err != nil {
		return err
	}

	created := 0

	for _, bin := range records {
		err := r.Create(ctx, bin)
		if err != nil {
			if errors.Is(err, ErrBinAlreadyExists) {
				log.Debug().Str("binID", bin.ID).Msg("bin already exists, skipping")
				continue
			}
			return fmt.Errorf("failed to seed bin %s: %w", bin.ID, err)
		}
		created++
	}

	log.Info().Msgf("seeded %d of %d bins", created, len(records))

	return nil
}

func readRecords(bins io.Reader) ([]types.Bin, error) {
	r := csv.NewReader(bins)
	r.Comma = ';'
	r.FieldsPerRecord = 7
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv data from file: %s", err.Error())
	}

	seen := map[string]bool{}
	records := make([]types.Bin, 0, len(rows))

	for idx, row := range rows {
		if idx == 0 {
			// Skip the CSV header
			continue
		}

		id := strings.TrimSpace(row[0])
		if id == "" {
			return nil, fmt.Errorf("missing bin id on line %d", idx+1)
		}

		if seen[id] {
			return nil, fmt.Errorf("duplicate bin id %s found on line %d", id, idx+1)
		}
		seen[id] = true

		records = append(records, types.Bin{
			ID:       id,
			Location: row[1],
			Lat:      row[2],
			Lng:      row[3],
			BoxFull:  row[4],
			PETFull:  row[5],
			CanFull:  row[6],
		})
	}

	return records, nil
}
