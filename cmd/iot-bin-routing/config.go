package main

import (
	"fmt"
	"io"
	"time"

	"github.com/diwise/iot-bin-routing/internal/pkg/application/binstore"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/events"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/planner"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/routing"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/directions"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v2"
)

type appConfig struct {
	Planner struct {
		Container        string    `yaml:"container"`
		Origin           []float64 `yaml:"origin"`
		StartAtFirstStop bool      `yaml:"startAtFirstStop"`
		Center           []float64 `yaml:"center"`
		Zoom             float64   `yaml:"zoom"`
		Interval         string    `yaml:"interval"`
	} `yaml:"planner"`

	Directions struct {
		BaseURL    string `yaml:"baseUrl"`
		Profile    string `yaml:"profile"`
		MaxRetries uint64 `yaml:"maxRetries"`
	} `yaml:"directions"`

	Notifications []events.Notification `yaml:"notifications"`
}

func parseConfigFile(r io.Reader) (*appConfig, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cfg := &appConfig{}
	err = yaml.Unmarshal(b, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func toPoint(coords []float64) (*orb.Point, error) {
	if len(coords) == 0 {
		return nil, nil
	}
	if len(coords) != 2 {
		return nil, fmt.Errorf("expected [lng, lat] but got %d values", len(coords))
	}
	return &orb.Point{coords[0], coords[1]}, nil
}

func (c *appConfig) interval() (time.Duration, error) {
	if c.Planner.Interval == "" {
		return binstore.DefaultInterval, nil
	}
	return time.ParseDuration(c.Planner.Interval)
}

func (c *appConfig) routingOptions() ([]routing.Option, error) {
	origin, err := toPoint(c.Planner.Origin)
	if err != nil {
		return nil, fmt.Errorf("bad origin: %w", err)
	}
	if c.Planner.StartAtFirstStop {
		if origin != nil {
			return nil, fmt.Errorf("bad origin: an origin can not be combined with startAtFirstStop")
		}
		return []routing.Option{routing.WithoutOrigin()}, nil
	}
	if origin == nil {
		return nil, nil
	}
	return []routing.Option{routing.WithOrigin(*origin)}, nil
}

func (c *appConfig) plannerConfig() (planner.Config, error) {
	center, err := toPoint(c.Planner.Center)
	if err != nil {
		return planner.Config{}, fmt.Errorf("bad center: %w", err)
	}

	return planner.Config{
		Container: c.Planner.Container,
		Center:    center,
		Zoom:      c.Planner.Zoom,
	}, nil
}

func (c *appConfig) directionsConfig(accessToken string) directions.Config {
	return directions.Config{
		BaseURL:     c.Directions.BaseURL,
		Profile:     c.Directions.Profile,
		AccessToken: accessToken,
		MaxRetries:  c.Directions.MaxRetries,
	}
}

func (c *appConfig) eventsConfig() *events.Config {
	return &events.Config{Notifications: c.Notifications}
}
