package api

import (
	"fmt"

	"github.com/diwise/iot-bin-routing/internal/pkg/application/planner"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/paulmach/orb"
)

type meta struct {
	TotalRecords uint64 `json:"totalRecords"`
	Count        uint64 `json:"count"`
}

type ApiResponse struct {
	Meta *meta `json:"meta,omitempty"`
	Data any   `json:"data"`
}

// createBinRequest accepts a bin either as flat fields or with everything but the id
// wrapped in a data object.
type createBinRequest struct {
	types.Bin
	Data map[string]string `json:"data,omitempty"`
}

func (c createBinRequest) bin() types.Bin {
	b := c.Bin

	for k, v := range c.Data {
		switch k {
		case "loc":
			b.Location = v
		case "lat":
			b.Lat = v
		case "lng":
			b.Lng = v
		default:
			if f, err := types.ParseStatusField(k); err == nil {
				b = b.WithField(f, v)
			}
		}
	}

	return b
}

// binRow is one line of the planner's bin table.
type binRow struct {
	ID         string     `json:"id"`
	Location   string     `json:"location"`
	Coordinate *orb.Point `json:"coordinate,omitempty"`
	Status     string     `json:"status"`
	Full       int        `json:"full"`
	Usable     bool       `json:"usable"`
	Selected   bool       `json:"selected"`
}

func newBinRows(p *planner.Planner) []binRow {
	bins := p.Bins().Sorted()
	rows := make([]binRow, 0, len(bins))

	for _, b := range bins {
		row := binRow{
			ID:       b.ID,
			Location: b.Location,
			Status:   statusText(b),
			Full:     b.FullCount(),
			Usable:   b.Usable(),
			Selected: p.IsSelected(b.ID),
		}

		if pt, ok := b.Point(); ok {
			row.Coordinate = &pt
		}

		rows = append(rows, row)
	}

	return rows
}

func statusText(b types.Bin) string {
	return fmt.Sprintf("%d/%d", b.FullCount(), len(types.StatusFields))
}
