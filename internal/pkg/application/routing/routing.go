package routing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/directions"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/surface"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

const LayerID string = "route"

var DefaultOrigin = orb.Point{121.561, 25.0434}

var ErrTooFewStops = errors.New("at least two selected bins with usable coordinates are needed for a route")
var ErrStaleResult = errors.New("route result superseded by a later request")

type RouteRequestError = directions.RouteRequestError

//go:generate moq -rm -out directions_mock.go . Directions

type Directions interface {
	Route(ctx context.Context, points []orb.Point) (orb.LineString, error)
}

type Route struct {
	Sequence  uint64         `json:"sequence"`
	Stops     []string       `json:"stops"`
	Waypoints []orb.Point    `json:"waypoints"`
	Geometry  orb.LineString `json:"geometry"`
}

type Option func(*Overlay)

func WithOrigin(p orb.Point) Option {
	return func(o *Overlay) {
		o.origin = &p
	}
}

// WithoutOrigin makes routes start at the first selected bin.
func WithoutOrigin() Option {
	return func(o *Overlay) {
		o.origin = nil
	}
}

// Overlay renders a single route through the selected bins onto a map surface.
type Overlay struct {
	directions Directions
	origin     *orb.Point

	mu       sync.Mutex
	sequence uint64
	surface  *surface.Surface
	route    *Route
}

func New(d Directions, opts ...Option) *Overlay {
	origin := DefaultOrigin

	o := &Overlay{
		directions: d,
		origin:     &origin,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Overlay) Origin() (orb.Point, bool) {
	if o.origin == nil {
		return orb.Point{}, false
	}
	return *o.origin, true
}

// ComputeOrder returns the waypoints to visit for the selected bins. The origin, when
// configured, always comes first. Stops follow in ascending latitude, bins on the same
// latitude keep their selection order.
func (o *Overlay) ComputeOrder(selected []types.Bin) ([]orb.Point, error) {
	stops, err := orderStops(selected)
	if err != nil {
		return nil, err
	}

	return o.waypoints(stops), nil
}

func orderStops(selected []types.Bin) ([]types.Bin, error) {
	stops := lo.Filter(selected, func(b types.Bin, _ int) bool {
		return b.Usable()
	})

	if len(stops) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewStops, len(stops))
	}

	sort.SliceStable(stops, func(i, j int) bool {
		pi, _ := stops[i].Point()
		pj, _ := stops[j].Point()
		return pi.Lat() < pj.Lat()
	})

	return stops, nil
}

func (o *Overlay) waypoints(stops []types.Bin) []orb.Point {
	points := make([]orb.Point, 0, len(stops)+1)

	if o.origin != nil {
		points = append(points, *o.origin)
	}

	for _, b := range stops {
		p, _ := b.Point()
		points = append(points, p)
	}

	return points
}

// RequestRoute asks the directions service for a path through points, in order.
func (o *Overlay) RequestRoute(ctx context.Context, points []orb.Point) (orb.LineString, error) {
	ls, err := o.directions.Route(ctx, points)
	if err != nil {
		var rre *RouteRequestError
		if !errors.As(err, &rre) {
			err = &RouteRequestError{Err: err}
		}
		return nil, err
	}

	return ls, nil
}

// Render displays geometry as the route layer, replacing any previously rendered route.
// The rendered route has no known stops and supersedes any Navigate still in flight.
// When not attached to a ready surface the geometry is kept and rendered on attach.
func (o *Overlay) Render(geometry orb.LineString) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sequence++
	o.route = &Route{
		Sequence: o.sequence,
		Geometry: geometry,
	}

	return o.render()
}

func (o *Overlay) render() error {
	if o.route == nil || o.surface == nil || !o.surface.IsReady() {
		return nil
	}

	_, err := o.surface.UpsertLayer(surface.LayerSpec{
		ID:   LayerID,
		Type: "line",
		Layout: map[string]any{
			"line-join": "round",
			"line-cap":  "round",
		},
		Paint: map[string]any{
			"line-color":   "#3887be",
			"line-width":   5,
			"line-opacity": 0.75,
		},
		Data: o.route.Geometry,
	})

	return err
}

// Navigate orders the selected bins, requests a route through them and renders it. Only
// the result of the latest call is rendered, earlier results return ErrStaleResult.
// A failed request leaves the current route in place.
func (o *Overlay) Navigate(ctx context.Context, selected []types.Bin) (Route, error) {
	stops, err := orderStops(selected)
	if err != nil {
		return Route{}, err
	}

	o.mu.Lock()
	o.sequence++
	seq := o.sequence
	o.mu.Unlock()

	points := o.waypoints(stops)

	geometry, err := o.RequestRoute(ctx, points)

	o.mu.Lock()
	defer o.mu.Unlock()

	if seq != o.sequence {
		return Route{}, ErrStaleResult
	}

	if err != nil {
		return Route{}, err
	}

	o.route = &Route{
		Sequence: seq,
		Stops: lo.Map(stops, func(b types.Bin, _ int) string {
			return b.ID
		}),
		Waypoints: points,
		Geometry:  geometry,
	}

	if err = o.render(); err != nil {
		return Route{}, fmt.Errorf("failed to render route: %w", err)
	}

	return *o.route, nil
}

// Current returns the route that is displayed, or would be displayed once attached.
func (o *Overlay) Current() (Route, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.route == nil {
		return Route{}, false
	}

	return *o.route, true
}

// Attach binds the overlay to s and renders the current route on it once s is ready.
// The route layer is removed from any previously attached surface.
func (o *Overlay) Attach(ctx context.Context, s *surface.Surface) error {
	o.mu.Lock()
	if o.surface == s {
		o.mu.Unlock()
		return nil
	}

	err := o.detach()
	o.surface = s
	o.mu.Unlock()

	if err != nil {
		return err
	}

	if err = s.WaitReady(ctx); err != nil {
		return fmt.Errorf("failed to attach route overlay: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.surface != s {
		return nil
	}

	return o.render()
}

func (o *Overlay) Detach() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	err := o.detach()
	o.surface = nil

	return err
}

func (o *Overlay) detach() error {
	if o.surface == nil || !o.surface.IsReady() || !o.surface.HasLayer(LayerID) {
		return nil
	}

	return o.surface.RemoveLayer(LayerID)
}
