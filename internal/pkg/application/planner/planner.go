package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/diwise/iot-bin-routing/internal/pkg/application/binstore"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/events"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/markers"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/routing"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/webevents"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/surface"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/paulmach/orb"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const DefaultZoom float64 = 16

type Config struct {
	Container   string
	Center      *orb.Point
	Zoom        float64
	StyleLoader surface.StyleLoaderFunc
}

// Planner keeps the bin markers in sync with the polled bins and renders routes through
// the bins the operator selected, all on one shared map surface.
type Planner struct {
	store   *binstore.Store
	markers *markers.Overlay
	route   *routing.Overlay
	sender  events.EventSender
	web     webevents.WebEvents

	cfg Config
	log zerolog.Logger

	mu      sync.RWMutex
	surface *surface.Surface
	poller  *binstore.Poller
}

func New(ctx context.Context, store *binstore.Store, route *routing.Overlay, sender events.EventSender, web webevents.WebEvents, cfg Config) (*Planner, error) {
	if cfg.Container == "" {
		cfg.Container = "map"
	}
	if cfg.Zoom == 0 {
		cfg.Zoom = DefaultZoom
	}

	p := &Planner{
		store:   store,
		markers: markers.New(),
		route:   route,
		sender:  sender,
		web:     web,
		cfg:     cfg,
		log:     logging.GetFromContext(ctx),
	}

	store.Subscribe(func(bins types.BinCollection) {
		p.binsChanged(ctx, bins)
	})

	if err := p.Remount(ctx, p.initialCenter(), cfg.Zoom); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Planner) initialCenter() orb.Point {
	if p.cfg.Center != nil {
		return *p.cfg.Center
	}
	if origin, ok := p.route.Origin(); ok {
		return origin
	}
	return routing.DefaultOrigin
}

func (p *Planner) binsChanged(ctx context.Context, bins types.BinCollection) {
	log := logging.GetFromContext(ctx)

	if err := p.markers.SetRecords(bins.Usable()); err != nil {
		log.Error().Err(err).Msg("failed to update bin markers")
	}

	if err := p.web.Publish(webevents.BinsUpdated, bins.Sorted()); err != nil {
		log.Error().Err(err).Msg("could not publish web event")
	}
}

// Start begins polling for bins. Stop must be called to end it.
func (p *Planner) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	log := logging.GetFromContext(ctx)

	log.Info().Dur("interval", p.store.Interval()).Msg("polling for bins")
	p.poller = p.store.Start(ctx)
}

func (p *Planner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.poller != nil {
		p.poller.Stop()
		p.poller = nil
	}

	if err := p.markers.Detach(); err != nil {
		p.log.Error().Err(err).Msg("failed to detach bin markers")
	}
	if err := p.route.Detach(); err != nil {
		p.log.Error().Err(err).Msg("failed to detach route")
	}

	if p.surface != nil {
		p.surface.Close()
	}
}

func (p *Planner) Bins() types.BinCollection {
	return p.store.Bins()
}

func (p *Planner) Refresh(ctx context.Context) error {
	return p.store.Refresh(ctx)
}

func (p *Planner) Select(ids []string) []string {
	return p.store.Select(ids)
}

func (p *Planner) Selected() []types.Bin {
	return p.store.Selected()
}

func (p *Planner) IsSelected(id string) bool {
	return p.store.IsSelected(id)
}

// Navigate computes and renders a route through the currently selected bins.
func (p *Planner) Navigate(ctx context.Context) (routing.Route, error) {
	log := logging.GetFromContext(ctx)

	r, err := p.route.Navigate(ctx, p.store.Selected())
	if err != nil {
		if errors.Is(err, routing.ErrStaleResult) {
			log.Debug().Msg("discarding superseded route")
		}
		return routing.Route{}, err
	}

	if err := p.web.Publish(webevents.RouteRendered, r); err != nil {
		log.Error().Err(err).Msg("could not publish web event")
	}

	err = p.sender.RouteRendered(ctx, events.RouteRendered{
		Sequence:  r.Sequence,
		Stops:     r.Stops,
		Waypoints: r.Waypoints,
		Geometry:  r.Geometry,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to notify subscribers about rendered route")
	}

	return r, nil
}

func (p *Planner) Route() (routing.Route, bool) {
	return p.route.Current()
}

func (p *Planner) ShowMarkers() error {
	return p.markers.Show()
}

func (p *Planner) HideMarkers() error {
	return p.markers.Hide()
}

func (p *Planner) MarkersVisible() bool {
	return p.markers.Visible()
}

func (p *Planner) Surface() *surface.Surface {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.surface
}

// Remount replaces the map surface with a new one and moves both overlays onto it. The
// overlays keep their bins and route so nothing needs to be fetched again.
func (p *Planner) Remount(ctx context.Context, center orb.Point, zoom float64) error {
	var opts []surface.Option
	if p.cfg.StyleLoader != nil {
		opts = append(opts, surface.WithStyleLoader(p.cfg.StyleLoader))
	}

	s := surface.Create(context.WithoutCancel(ctx), p.cfg.Container, center, zoom, opts...)

	if err := s.WaitReady(ctx); err != nil {
		s.Close()
		return fmt.Errorf("failed to mount map surface: %w", err)
	}

	log := logging.GetFromContext(ctx)
	s.OnChange(func(s *surface.Surface) {
		if err := p.web.PublishSurface(s); err != nil {
			log.Error().Err(err).Msg("could not publish surface update")
		}
	})

	p.mu.Lock()
	previous := p.surface
	p.surface = s
	p.mu.Unlock()

	err := errors.Join(
		p.markers.Attach(ctx, s),
		p.route.Attach(ctx, s),
	)

	if previous != nil {
		previous.Close()
	}

	if err != nil {
		return err
	}

	return p.web.PublishSurface(s)
}

// StatusUpdatedHandler triggers an immediate refresh when a bin reports a status change
// instead of waiting for the next poll.
func (p *Planner) StatusUpdatedHandler() messaging.TopicMessageHandler {
	return func(ctx context.Context, msg amqp.Delivery, logger zerolog.Logger) {
		logger.Debug().Msgf("received %s, refreshing bins", msg.RoutingKey)
		p.store.Trigger(logging.NewContextWithLogger(context.WithoutCancel(ctx), logger))
	}
}

func (p *Planner) RegisterTopicMessageHandlers(m messaging.MsgContext) {
	statusUpdated := types.BinStatusUpdated{}
	m.RegisterTopicMessageHandler(statusUpdated.TopicName(), p.StatusUpdatedHandler())
}
