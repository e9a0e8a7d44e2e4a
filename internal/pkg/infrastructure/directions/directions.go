package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

const (
	DefaultBaseURL string = "https://api.mapbox.com"
	DefaultProfile string = "cycling"
)

var tracer = otel.Tracer("iot-bin-routing/directions")

// RouteRequestError is returned when a route could not be obtained from the directions
// service. StatusCode is zero when no response was received.
type RouteRequestError struct {
	StatusCode int
	Err        error
}

func (e *RouteRequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("route request failed with status code %d: %s", e.StatusCode, e.Err.Error())
	}
	return fmt.Sprintf("route request failed: %s", e.Err.Error())
}

func (e *RouteRequestError) Unwrap() error {
	return e.Err
}

var ErrNoRoute = errors.New("no route found")

type Config struct {
	BaseURL     string
	Profile     string
	AccessToken string
	// MaxRetries is the number of extra attempts made after a transient failure. Zero
	// means every route is requested exactly once.
	MaxRetries uint64
	// InitialInterval is the first delay between retries. It is doubled for each attempt.
	InitialInterval time.Duration
}

type Client struct {
	cfg        Config
	httpClient http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		cfg: cfg,
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route asks the directions service for a path visiting all points in order and returns
// the geometry of the first suggested route.
func (c *Client) Route(ctx context.Context, points []orb.Point) (orb.LineString, error) {
	var err error
	ctx, span := tracer.Start(ctx, "request-route")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if len(points) < 2 {
		err = &RouteRequestError{Err: fmt.Errorf("at least two waypoints are required, got %d", len(points))}
		return nil, err
	}

	u := c.routeURL(points)
	log := logging.GetFromContext(ctx)

	var body []byte
	var statusCode int

	operation := func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if reqErr != nil {
			return backoff.Permanent(&RouteRequestError{Err: reqErr})
		}
		req.Header.Add("Accept", "application/json")

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(&RouteRequestError{Err: doErr})
			}
			return &RouteRequestError{Err: doErr}
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode
		body, doErr = io.ReadAll(resp.Body)
		if doErr != nil {
			return &RouteRequestError{StatusCode: statusCode, Err: doErr}
		}

		if isTransient(resp.StatusCode) {
			return &RouteRequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("transient failure: %s", strings.TrimSpace(string(body)))}
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return backoff.Permanent(&RouteRequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body)))})
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialInterval
	b.MaxElapsedTime = 0

	err = backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.MaxRetries), ctx), func(e error, d time.Duration) {
		log.Warn().Err(e).Msgf("route request failed, retrying in %s", d)
	})
	if err != nil {
		var rre *RouteRequestError
		if !errors.As(err, &rre) {
			err = &RouteRequestError{Err: err}
		}
		return nil, err
	}

	rr := routeResponse{}
	if jsonErr := json.Unmarshal(body, &rr); jsonErr != nil {
		err = &RouteRequestError{StatusCode: statusCode, Err: fmt.Errorf("failed to decode response: %w", jsonErr)}
		return nil, err
	}

	if len(rr.Routes) == 0 || len(rr.Routes[0].Geometry.Coordinates) == 0 {
		err = &RouteRequestError{StatusCode: statusCode, Err: ErrNoRoute}
		return nil, err
	}

	ls := orb.LineString(lo.Map(rr.Routes[0].Geometry.Coordinates, func(c [2]float64, _ int) orb.Point {
		return orb.Point{c[0], c[1]}
	}))

	log.Debug().Msgf("received route with %d coordinates for %d waypoints", len(ls), len(points))

	return ls, nil
}

func (c *Client) routeURL(points []orb.Point) string {
	waypoints := lo.Map(points, func(p orb.Point, _ int) string {
		return strconv.FormatFloat(p.Lon(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat(), 'f', -1, 64)
	})

	params := url.Values{}
	params.Add("steps", "true")
	params.Add("geometries", "geojson")
	params.Add("access_token", c.cfg.AccessToken)

	return fmt.Sprintf("%s/directions/v5/mapbox/%s/%s?%s",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.Profile),
		strings.Join(waypoints, ";"),
		params.Encode(),
	)
}

func isTransient(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
}
