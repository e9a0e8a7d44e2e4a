package types

import (
	"fmt"
	"maps"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Bin is a waste collection bin as reported by the bins API. Coordinates and the
// compartment flags are transported as strings.
type Bin struct {
	ID       string `json:"id"`
	Location string `json:"loc"`
	Lat      string `json:"lat"`
	Lng      string `json:"lng"`
	BoxFull  string `json:"BoxFull"`
	PETFull  string `json:"PETFull"`
	CanFull  string `json:"CanFull"`
}

// Point parses the bin coordinates. The second return value is false if the bin
// cannot be placed on a map.
func (b Bin) Point() (orb.Point, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(b.Lat), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return orb.Point{}, false
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(b.Lng), 64)
	if err != nil || math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return orb.Point{}, false
	}

	return orb.Point{lng, lat}, true
}

func (b Bin) Usable() bool {
	_, ok := b.Point()
	return ok
}

// FullCount returns the number of compartments reported as full.
func (b Bin) FullCount() int {
	n := 0
	for _, f := range []string{b.BoxFull, b.PETFull, b.CanFull} {
		if IsTrue(f) {
			n++
		}
	}
	return n
}

func (b Bin) Field(f StatusField) string {
	switch f {
	case BoxFull:
		return b.BoxFull
	case PETFull:
		return b.PETFull
	case CanFull:
		return b.CanFull
	}
	return ""
}

func (b Bin) WithField(f StatusField, status string) Bin {
	switch f {
	case BoxFull:
		b.BoxFull = status
	case PETFull:
		b.PETFull = status
	case CanFull:
		b.CanFull = status
	}
	return b
}

func IsTrue(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}

type StatusField string

const (
	BoxFull StatusField = "BoxFull"
	PETFull StatusField = "PETFull"
	CanFull StatusField = "CanFull"
)

var StatusFields = []StatusField{BoxFull, PETFull, CanFull}

func ParseStatusField(s string) (StatusField, error) {
	for _, f := range StatusFields {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown status field %q", s)
}

// ParseStatus normalizes a bool-like status value to "true" or "false".
func ParseStatus(s string) (string, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return strconv.FormatBool(v), nil
}

// BinCollection maps bin ids to bins. A collection is always replaced as a whole.
type BinCollection map[string]Bin

func NewBinCollection(bins []Bin) BinCollection {
	c := make(BinCollection, len(bins))
	for _, b := range bins {
		c[b.ID] = b
	}
	return c
}

func (c BinCollection) Equal(other BinCollection) bool {
	return maps.Equal(c, other)
}

func (c BinCollection) Clone() BinCollection {
	return maps.Clone(c)
}

// Sorted returns all bins ordered by id.
func (c BinCollection) Sorted() []Bin {
	bins := make([]Bin, 0, len(c))
	for _, b := range c {
		bins = append(bins, b)
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].ID < bins[j].ID })
	return bins
}

// Usable returns the bins that can be placed on a map, ordered by id.
func (c BinCollection) Usable() []Bin {
	usable := make([]Bin, 0, len(c))
	for _, b := range c.Sorted() {
		if b.Usable() {
			usable = append(usable, b)
		}
	}
	return usable
}

// Resolve looks up ids in order, silently dropping ids not present in the collection.
func (c BinCollection) Resolve(ids []string) []Bin {
	bins := make([]Bin, 0, len(ids))
	for _, id := range ids {
		if b, ok := c[id]; ok {
			bins = append(bins, b)
		}
	}
	return bins
}
