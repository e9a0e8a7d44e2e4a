package directions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/paulmach/orb"
)

func TestRouteRequestsGeometryForWaypoints(t *testing.T) {
	is, ctx := testSetup(t)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.URL.Path, "/directions/v5/mapbox/cycling/121.561,25.0434;121.5654,25.033")
		is.Equal(r.URL.Query().Get("geometries"), "geojson")
		is.Equal(r.URL.Query().Get("steps"), "true")
		is.Equal(r.URL.Query().Get("access_token"), "secret")

		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(routeJson))
	}))
	defer s.Close()

	c := New(Config{BaseURL: s.URL, AccessToken: "secret"})
	ls, err := c.Route(ctx, []orb.Point{{121.561, 25.0434}, {121.5654, 25.0330}})
	is.NoErr(err)
	is.Equal(len(ls), 3)
	is.Equal(ls[0], orb.Point{121.561, 25.0434})
}

func TestThatEmptyRoutesIsARouteRequestError(t *testing.T) {
	is, ctx := testSetup(t)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer s.Close()

	_, err := New(Config{BaseURL: s.URL}).Route(ctx, []orb.Point{{1, 1}, {2, 2}})

	var rre *RouteRequestError
	is.True(errors.As(err, &rre))
	is.True(errors.Is(err, ErrNoRoute))
}

func TestThatUndecodableBodyIsARouteRequestError(t *testing.T) {
	is, ctx := testSetup(t)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`not json`))
	}))
	defer s.Close()

	_, err := New(Config{BaseURL: s.URL}).Route(ctx, []orb.Point{{1, 1}, {2, 2}})

	var rre *RouteRequestError
	is.True(errors.As(err, &rre))
	is.Equal(rre.StatusCode, http.StatusOK)
}

func TestThatClientErrorsAreNotRetried(t *testing.T) {
	is, ctx := testSetup(t)

	var calls int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer s.Close()

	_, err := New(Config{BaseURL: s.URL, InitialInterval: time.Millisecond}).Route(ctx, []orb.Point{{1, 1}, {2, 2}})

	var rre *RouteRequestError
	is.True(errors.As(err, &rre))
	is.Equal(rre.StatusCode, http.StatusUnauthorized)
	is.Equal(atomic.LoadInt32(&calls), int32(1))
}

func TestThatTransientErrorsAreRetried(t *testing.T) {
	is, ctx := testSetup(t)

	var calls int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(routeJson))
	}))
	defer s.Close()

	ls, err := New(Config{BaseURL: s.URL, MaxRetries: 3, InitialInterval: time.Millisecond}).Route(ctx, []orb.Point{{1, 1}, {2, 2}})
	is.NoErr(err)
	is.Equal(len(ls), 3)
	is.Equal(atomic.LoadInt32(&calls), int32(3))
}

func TestThatTransientErrorsAreNotRetriedByDefault(t *testing.T) {
	is, ctx := testSetup(t)

	var calls int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer s.Close()

	_, err := New(Config{BaseURL: s.URL, MaxRetries: 0, InitialInterval: time.Millisecond}).Route(ctx, []orb.Point{{1, 1}, {2, 2}})

	var rre *RouteRequestError
	is.True(errors.As(err, &rre))
	is.Equal(rre.StatusCode, http.StatusServiceUnavailable)
	is.Equal(atomic.LoadInt32(&calls), int32(1))
}

func TestThatRetriesAreBounded(t *testing.T) {
	is, ctx := testSetup(t)

	var calls int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer s.Close()

	_, err := New(Config{BaseURL: s.URL, MaxRetries: 2, InitialInterval: time.Millisecond}).Route(ctx, []orb.Point{{1, 1}, {2, 2}})

	var rre *RouteRequestError
	is.True(errors.As(err, &rre))
	is.Equal(rre.StatusCode, http.StatusServiceUnavailable)
	is.Equal(atomic.LoadInt32(&calls), int32(3))
}

func TestThatASingleWaypointIsRejected(t *testing.T) {
	is, ctx := testSetup(t)

	_, err := New(Config{BaseURL: "http://localhost:1"}).Route(ctx, []orb.Point{{1, 1}})

	var rre *RouteRequestError
	is.True(errors.As(err, &rre))
}

func testSetup(t *testing.T) (*is.I, context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return is.New(t), ctx
}

const routeJson string = `{
	"code": "Ok",
	"routes": [{
		"distance": 1534.2,
		"duration": 402.1,
		"geometry": {
			"type": "LineString",
			"coordinates": [[121.561,25.0434],[121.563,25.038],[121.5654,25.033]]
		}
	}],
	"waypoints": []
}`
