package database

import (
	"github.com/diwise/iot-bin-routing/pkg/types"
	"gorm.io/gorm"
)

type Bin struct {
	gorm.Model
	BinID    string `gorm:"unique;column:bin_id;<-:create"`
	Location string
	Lat      string
	Lng      string
	BoxFull  string `gorm:"column:box_full"`
	PETFull  string `gorm:"column:pet_full"`
	CanFull  string `gorm:"column:can_full"`
}

func (b Bin) toModel() types.Bin {
	return types.Bin{
		ID:       b.BinID,
		Location: b.Location,
		Lat:      b.Lat,
		Lng:      b.Lng,
		BoxFull:  b.BoxFull,
		PETFull:  b.PETFull,
		CanFull:  b.CanFull,
	}
}

func fromModel(b types.Bin) Bin {
	return Bin{
		BinID:    b.ID,
		Location: b.Location,
		Lat:      b.Lat,
		Lng:      b.Lng,
		BoxFull:  b.BoxFull,
		PETFull:  b.PETFull,
		CanFull:  b.CanFull,
	}
}

var columns = map[types.StatusField]string{
	types.BoxFull: "box_full",
	types.PETFull: "pet_full",
	types.CanFull: "can_full",
}
