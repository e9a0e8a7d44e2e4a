package webevents

import (
	"encoding/json"

	gosse "github.com/alexandrevicenzi/go-sse"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/surface"
)

const (
	SurfaceUpdated string = "surfaceUpdated"
	BinsUpdated    string = "binsUpdated"
	RouteRendered  string = "routeRendered"
)

type WebEvents interface {
	Server() *gosse.Server
	Shutdown()
	Publish(event string, data any) error
	PublishSurface(s *surface.Surface) error
}

type webEvents struct {
	s *gosse.Server
}

func New() WebEvents {
	return &webEvents{
		s: gosse.NewServer(&gosse.Options{}),
	}
}

func (we *webEvents) Server() *gosse.Server {
	return we.s
}

func (we *webEvents) Shutdown() {
	we.s.Shutdown()
}

func (we *webEvents) Publish(event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}

	we.publish(event, b)

	return nil
}

// PublishSurface sends the visible contents of the map surface as a GeoJSON feature collection.
func (we *webEvents) PublishSurface(s *surface.Surface) error {
	b, err := s.FeatureCollection().MarshalJSON()
	if err != nil {
		return err
	}

	we.publish(SurfaceUpdated, b)

	return nil
}

func (we *webEvents) publish(event string, data []byte) {
	message := gosse.NewMessage("", string(data), event)
	we.s.SendMessage("", message)
}
