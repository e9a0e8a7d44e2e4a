package markers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/surface"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/paulmach/orb"
)

// Overlay mirrors the usable bins as markers on a map surface. The desired set of bins is
// kept while detached so that it can be applied to the next surface without a re-fetch.
type Overlay struct {
	mu sync.Mutex

	surface *surface.Surface
	hidden  bool

	desired map[string]types.Bin
	handles map[string]surface.MarkerHandle
	points  map[string]orb.Point
}

func New() *Overlay {
	return &Overlay{
		desired: map[string]types.Bin{},
		handles: map[string]surface.MarkerHandle{},
		points:  map[string]orb.Point{},
	}
}

// Attach binds the overlay to s, removing its markers from any previously attached surface.
// Markers are placed once s is ready. Attaching to the current surface is a no-op.
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
		return fmt.Errorf("failed to attach marker overlay: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.surface != s {
		return nil
	}

	return o.apply()
}

// Detach removes all markers from the attached surface but keeps the desired bins.
func (o *Overlay) Detach() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	err := o.detach()
	o.surface = nil

	return err
}

func (o *Overlay) detach() error {
	var err error

	if o.surface != nil && o.surface.IsReady() && len(o.handles) > 0 {
		err = o.surface.Batch(func(tx *surface.Tx) error {
			var errs []error
			for id, h := range o.handles {
				if err := tx.RemoveMarker(h); err != nil && !errors.Is(err, surface.ErrMarkerNotFound) {
					errs = append(errs, fmt.Errorf("failed to remove marker for bin %s: %w", id, err))
				}
			}
			return errors.Join(errs...)
		})
	}

	o.handles = map[string]surface.MarkerHandle{}
	o.points = map[string]orb.Point{}

	return err
}

// SetRecords sets the bins that should be shown. Bins without usable coordinates are
// ignored. Calling SetRecords with the same bins again changes nothing.
func (o *Overlay) SetRecords(bins []types.Bin) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.desired = make(map[string]types.Bin, len(bins))
	for _, b := range bins {
		if b.Usable() {
			o.desired[b.ID] = b
		}
	}

	return o.apply()
}

// apply brings the attached surface in line with the desired bins in one batch so that
// observers only see the final set of markers.
func (o *Overlay) apply() error {
	if o.surface == nil || !o.surface.IsReady() {
		return nil
	}

	return o.surface.Batch(o.reconcile)
}

func (o *Overlay) reconcile(tx *surface.Tx) error {
	var errs []error

	for id, h := range o.handles {
		if _, ok := o.desired[id]; ok {
			continue
		}

		if err := tx.RemoveMarker(h); err != nil && !errors.Is(err, surface.ErrMarkerNotFound) {
			errs = append(errs, fmt.Errorf("failed to remove marker for bin %s: %w", id, err))
			continue
		}

		delete(o.handles, id)
		delete(o.points, id)
	}

	for id, b := range o.desired {
		p, _ := b.Point()

		if h, ok := o.handles[id]; ok {
			if o.points[id] == p {
				continue
			}

			if err := tx.MoveMarker(h, p); err != nil {
				errs = append(errs, fmt.Errorf("failed to move marker for bin %s: %w", id, err))
				continue
			}

			o.points[id] = p
			continue
		}

		opts := []surface.MarkerOption{}
		if o.hidden {
			opts = append(opts, surface.Hidden())
		}

		o.handles[id] = tx.AddMarker(p, map[string]any{"binID": b.ID, "location": b.Location}, opts...)
		o.points[id] = p
	}

	return errors.Join(errs...)
}

func (o *Overlay) Show() error {
	return o.setVisible(true)
}

func (o *Overlay) Hide() error {
	return o.setVisible(false)
}

func (o *Overlay) setVisible(visible bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.hidden = !visible

	if o.surface == nil || !o.surface.IsReady() {
		return nil
	}

	return o.surface.Batch(func(tx *surface.Tx) error {
		var errs []error
		for id, h := range o.handles {
			if err := tx.SetMarkerVisible(h, visible); err != nil {
				errs = append(errs, fmt.Errorf("failed to change visibility of marker for bin %s: %w", id, err))
			}
		}
		return errors.Join(errs...)
	})
}

func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.hidden
}

// Markers returns the handles of the markers currently placed, keyed by bin id.
func (o *Overlay) Markers() map[string]surface.MarkerHandle {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := make(map[string]surface.MarkerHandle, len(o.handles))
	for id, h := range o.handles {
		m[id] = h
	}

	return m
}
