package surface

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var ErrNotReady = errors.New("map surface is not ready")
var ErrLayerExists = errors.New("layer already exists")
var ErrLayerNotFound = errors.New("layer not found")
var ErrMarkerNotFound = errors.New("marker not found")

type MarkerHandle uint64

type Marker struct {
	Handle     MarkerHandle
	Point      orb.Point
	Visible    bool
	Properties map[string]any
}

type LayerSpec struct {
	ID     string
	Type   string
	Layout map[string]any
	Paint  map[string]any
	Data   orb.Geometry
}

type StyleLoaderFunc func(ctx context.Context) error

type Option func(*Surface)

// WithStyleLoader sets the function that must complete before the surface accepts writes.
func WithStyleLoader(loader StyleLoaderFunc) Option {
	return func(s *Surface) {
		s.loader = loader
	}
}

// Surface is a map rendering context shared by the overlays. All writes are rejected
// until the style loader has completed.
type Surface struct {
	mu sync.RWMutex

	container string
	center    orb.Point
	zoom      float64

	loader  StyleLoaderFunc
	ready   chan struct{}
	loadErr error
	closed  bool

	layers     map[string]*LayerSpec
	layerOrder []string

	markers    map[MarkerHandle]*Marker
	nextHandle MarkerHandle

	observers []func(*Surface)
}

// Create sets up a new surface for a container and starts loading it in the background.
func Create(ctx context.Context, container string, center orb.Point, zoom float64, opts ...Option) *Surface {
	s := &Surface{
		container: container,
		center:    center,
		zoom:      zoom,
		loader:    func(context.Context) error { return nil },
		ready:     make(chan struct{}),
		layers:    map[string]*LayerSpec{},
		markers:   map[MarkerHandle]*Marker{},
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		err := s.loader(ctx)

		s.mu.Lock()
		s.loadErr = err
		close(s.ready)
		s.mu.Unlock()
	}()

	return s
}

func (s *Surface) Container() string {
	return s.container
}

func (s *Surface) Center() orb.Point {
	return s.center
}

func (s *Surface) Zoom() float64 {
	return s.zoom
}

func (s *Surface) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until the surface has loaded, the load failed or ctx is done.
func (s *Surface) WaitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loadErr != nil {
		return fmt.Errorf("%w: %s", ErrNotReady, s.loadErr.Error())
	}
	if s.closed {
		return ErrNotReady
	}

	return nil
}

func (s *Surface) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isReady()
}

// isReady must be called with s.mu held
func (s *Surface) isReady() bool {
	select {
	case <-s.ready:
		return s.loadErr == nil && !s.closed
	default:
		return false
	}
}

// Close discards the surface. Subsequent writes fail with ErrNotReady.
func (s *Surface) Close() {
	s.mu.Lock()
	s.closed = true
	s.observers = nil
	s.mu.Unlock()
}

func (s *Surface) OnChange(fn func(*Surface)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Surface) notify() {
	s.mu.RLock()
	observers := append([]func(*Surface){}, s.observers...)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(s)
	}
}

func (s *Surface) write(fn func() error) error {
	s.mu.Lock()

	if !s.isReady() {
		s.mu.Unlock()
		return ErrNotReady
	}

	err := fn()
	s.mu.Unlock()

	if err == nil {
		s.notify()
	}

	return err
}

func (s *Surface) HasLayer(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.layers[id]
	return ok
}

func (s *Surface) Layer(id string) (LayerSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.layers[id]
	if !ok {
		return LayerSpec{}, false
	}
	return *l, true
}

func (s *Surface) LayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

func (s *Surface) AddLayer(spec LayerSpec) error {
	return s.write(func() error {
		return s.addLayer(spec)
	})
}

func (s *Surface) addLayer(spec LayerSpec) error {
	if _, ok := s.layers[spec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrLayerExists, spec.ID)
	}

	l := spec
	s.layers[spec.ID] = &l
	s.layerOrder = append(s.layerOrder, spec.ID)

	return nil
}

func (s *Surface) RemoveLayer(id string) error {
	return s.write(func() error {
		if _, ok := s.layers[id]; !ok {
			return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
		}

		delete(s.layers, id)
		s.layerOrder = slices.DeleteFunc(s.layerOrder, func(l string) bool { return l == id })

		return nil
	})
}

func (s *Surface) SetLayerData(id string, data orb.Geometry) error {
	return s.write(func() error {
		return s.setLayerData(id, data)
	})
}

func (s *Surface) setLayerData(id string, data orb.Geometry) error {
	l, ok := s.layers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}

	l.Data = data

	return nil
}

// UpsertLayer replaces the data of an existing layer or adds the layer if it does not
// exist, as a single operation. Styling of an existing layer is left untouched.
func (s *Surface) UpsertLayer(spec LayerSpec) (created bool, err error) {
	err = s.write(func() error {
		if _, ok := s.layers[spec.ID]; ok {
			return s.setLayerData(spec.ID, spec.Data)
		}
		created = true
		return s.addLayer(spec)
	})

	return created, err
}

type MarkerOption func(*Marker)

// Hidden adds the marker without displaying it.
func Hidden() MarkerOption {
	return func(m *Marker) {
		m.Visible = false
	}
}

func (s *Surface) AddMarker(p orb.Point, properties map[string]any, opts ...MarkerOption) (MarkerHandle, error) {
	var h MarkerHandle

	err := s.write(func() error {
		h = s.addMarker(p, properties, opts...)
		return nil
	})

	return h, err
}

func (s *Surface) addMarker(p orb.Point, properties map[string]any, opts ...MarkerOption) MarkerHandle {
	s.nextHandle++
	h := s.nextHandle

	props := make(map[string]any, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	m := &Marker{
		Handle:     h,
		Point:      p,
		Visible:    true,
		Properties: props,
	}
	for _, opt := range opts {
		opt(m)
	}
	s.markers[h] = m

	return h
}

func (s *Surface) RemoveMarker(h MarkerHandle) error {
	return s.write(func() error {
		return s.removeMarker(h)
	})
}

func (s *Surface) removeMarker(h MarkerHandle) error {
	if _, ok := s.markers[h]; !ok {
		return ErrMarkerNotFound
	}
	delete(s.markers, h)
	return nil
}

func (s *Surface) MoveMarker(h MarkerHandle, p orb.Point) error {
	return s.write(func() error {
		return s.moveMarker(h, p)
	})
}

func (s *Surface) moveMarker(h MarkerHandle, p orb.Point) error {
	m, ok := s.markers[h]
	if !ok {
		return ErrMarkerNotFound
	}
	m.Point = p
	return nil
}

func (s *Surface) SetMarkerVisible(h MarkerHandle, visible bool) error {
	return s.write(func() error {
		return s.setMarkerVisible(h, visible)
	})
}

func (s *Surface) setMarkerVisible(h MarkerHandle, visible bool) error {
	m, ok := s.markers[h]
	if !ok {
		return ErrMarkerNotFound
	}
	m.Visible = visible
	return nil
}

// Tx applies marker writes inside a Batch. It must not be used after the batch returns.
type Tx struct {
	s       *Surface
	changed bool
}

func (tx *Tx) AddMarker(p orb.Point, properties map[string]any, opts ...MarkerOption) MarkerHandle {
	tx.changed = true
	return tx.s.addMarker(p, properties, opts...)
}

func (tx *Tx) RemoveMarker(h MarkerHandle) error {
	return tx.track(tx.s.removeMarker(h))
}

func (tx *Tx) MoveMarker(h MarkerHandle, p orb.Point) error {
	return tx.track(tx.s.moveMarker(h, p))
}

func (tx *Tx) SetMarkerVisible(h MarkerHandle, visible bool) error {
	return tx.track(tx.s.setMarkerVisible(h, visible))
}

func (tx *Tx) track(err error) error {
	if err == nil {
		tx.changed = true
	}
	return err
}

// Batch runs fn with the surface locked and notifies observers once afterwards if fn
// changed anything, so observers never see the intermediate states. Writes that
// succeeded are kept even if fn returns an error.
func (s *Surface) Batch(fn func(tx *Tx) error) error {
	s.mu.Lock()

	if !s.isReady() {
		s.mu.Unlock()
		return ErrNotReady
	}

	tx := &Tx{s: s}
	err := fn(tx)
	s.mu.Unlock()

	if tx.changed {
		s.notify()
	}

	return err
}

func (s *Surface) Marker(h MarkerHandle) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markers[h]
	if !ok {
		return Marker{}, false
	}
	return *m, true
}

// Markers returns all markers, visible or not, ordered by handle.
func (s *Surface) Markers() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markers := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		markers = append(markers, *m)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].Handle < markers[j].Handle })

	return markers
}

// FeatureCollection renders the visible state of the surface as GeoJSON.
func (s *Surface) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, m := range s.Markers() {
		if !m.Visible {
			continue
		}

		f := geojson.NewFeature(m.Point)
		f.ID = fmt.Sprintf("marker:%d", m.Handle)
		for k, v := range m.Properties {
			f.Properties[k] = v
		}
		f.Properties["kind"] = "marker"

		fc.Append(f)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.layerOrder {
		l := s.layers[id]
		if l.Data == nil {
			continue
		}

		f := geojson.NewFeature(l.Data)
		f.ID = id
		f.Properties["kind"] = "layer"
		f.Properties["type"] = l.Type
		if l.Paint != nil {
			f.Properties["paint"] = l.Paint
		}
		if l.Layout != nil {
			f.Properties["layout"] = l.Layout
		}

		fc.Append(f)
	}

	return fc
}
