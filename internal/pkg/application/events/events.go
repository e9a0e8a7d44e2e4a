package events

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"golang.org/x/sys/unix"
)

const RouteRenderedEventType string = "diwise.binroute.rendered"

//go:generate moq -rm -out events_mock.go . EventSender

type EventSender interface {
	RouteRendered(ctx context.Context, route RouteRendered) error
}

type RouteRendered struct {
	Sequence  uint64         `json:"sequence"`
	Stops     []string       `json:"stops"`
	Waypoints []orb.Point    `json:"waypoints"`
	Geometry  orb.LineString `json:"geometry"`
	Timestamp time.Time      `json:"timestamp"`
}

type eventSender struct {
	subscribers map[string][]SubscriberConfig
	client      cloudevents.Client
}

func New(cfg *Config) (EventSender, error) {
	e := &eventSender{
		subscribers: make(map[string][]SubscriberConfig),
	}

	if cfg != nil {
		for _, s := range cfg.Notifications {
			e.subscribers[s.Type] = append(e.subscribers[s.Type], s.Subscribers...)
		}
	}

	c, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, err
	}
	e.client = c

	return e, nil
}

func (e *eventSender) RouteRendered(ctx context.Context, route RouteRendered) error {
	subscribers, ok := e.subscribers[RouteRenderedEventType]
	if !ok || len(subscribers) == 0 {
		return nil
	}

	if route.Timestamp.IsZero() {
		route.Timestamp = time.Now().UTC()
	}

	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetTime(route.Timestamp)
	event.SetSource("github.com/diwise/iot-bin-routing")
	event.SetType(RouteRenderedEventType)

	err := event.SetData(cloudevents.ApplicationJSON, route)
	if err != nil {
		return err
	}

	logger := logging.GetFromContext(ctx)

	for _, s := range subscribers {
		if !s.Accepts(route.Stops) {
			continue
		}

		ctxWithTarget := cloudevents.ContextWithTarget(ctx, s.Endpoint)

		result := e.client.Send(ctxWithTarget, event)
		if cloudevents.IsUndelivered(result) || errors.Is(result, unix.ECONNREFUSED) {
			logger.Error().Err(result).Msgf("failed to send event to %s", s.Endpoint)
			err = fmt.Errorf("%w", result)
		}
	}

	return err
}

type EntityInfo struct {
	IDPattern string `yaml:"idPattern"`
}

type RegistrationInfo struct {
	Entities []EntityInfo `yaml:"entities"`
}

type SubscriberConfig struct {
	Endpoint    string             `yaml:"endpoint"`
	Information []RegistrationInfo `yaml:"information"`
}

// Accepts reports whether the subscriber wants events concerning any of the given bins.
// A subscriber without id patterns accepts everything.
func (s SubscriberConfig) Accepts(binIDs []string) bool {
	patterns := []*regexp.Regexp{}

	for _, info := range s.Information {
		for _, entity := range info.Entities {
			if entity.IDPattern == "" {
				continue
			}
			if re, err := regexp.Compile(entity.IDPattern); err == nil {
				patterns = append(patterns, re)
			}
		}
	}

	if len(patterns) == 0 {
		return true
	}

	for _, id := range binIDs {
		for _, re := range patterns {
			if re.MatchString(id) {
				return true
			}
		}
	}

	return false
}

type Notification struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Subscribers []SubscriberConfig `yaml:"subscribers"`
}

type Config struct {
	Notifications []Notification `yaml:"notifications"`
}
