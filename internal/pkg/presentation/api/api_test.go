package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diwise/iot-bin-routing/internal/pkg/application/binregistry"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/binstore"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/events"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/planner"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/routing"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/webevents"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/directions"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/matryer/is"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

func TestHealthHandler(t *testing.T) {
	is, ts := testSetup(t)

	res := ts.request(http.MethodGet, "/health", "")
	is.Equal(res.Code, http.StatusNoContent)
}

func TestListBins(t *testing.T) {
	is, ts := testSetup(t)

	res := ts.request(http.MethodGet, "/api/v0/bins", "")
	is.Equal(res.Code, http.StatusOK)
	is.Equal(res.Header().Get("Content-Type"), "application/json")

	bins := []types.Bin{}
	is.NoErr(json.Unmarshal(res.Body.Bytes(), &bins))
	is.Equal(len(bins), 3)
}

func TestGetUnknownBinReturnsNotFound(t *testing.T) {
	is, ts := testSetup(t)

	res := ts.request(http.MethodGet, "/api/v0/bins/nosuchbin", "")
	is.Equal(res.Code, http.StatusNotFound)

	res = ts.request(http.MethodGet, "/api/v0/bins/bin-a", "")
	is.Equal(res.Code, http.StatusOK)
}

func TestCreateBinWithDataObject(t *testing.T) {
	is, ts := testSetup(t)

	res := ts.request(http.MethodPost, "/api/v0/bins", `{"id":"bin-c","data":{"loc":"Zhongshan","lat":"25.0640","lng":"121.5260","PETFull":"true"}}`)
	is.Equal(res.Code, http.StatusCreated)

	is.Equal(len(ts.registry.CreateCalls()), 1)
	created := ts.registry.CreateCalls()[0].Bin
	is.Equal(created.ID, "bin-c")
	is.Equal(created.Location, "Zhongshan")
	is.Equal(created.PETFull, "true")
}

func TestCreateExistingBinIsAConflict(t *testing.T) {
	is, ts := testSetup(t)

	res := ts.request(http.MethodPost, "/api/v0/bins", `{"id":"bin-a","loc":"Da'an","lat":"25.0263","lng":"121.5436"}`)
	is.Equal(res.Code, http.StatusConflict)
}

func TestSetStatus(t *testing.T) {
	is, ts := testSetup(t)

	res := ts.request(http.MethodPut, "/api/v0/status/bin-a/CanFull/true", "")
	is.Equal(res.Code, http.StatusOK)
	is.Equal(res.Body.String(), `"true"`)

	res = ts.request(http.MethodGet, "/api/v0/status/bin-a/CanFull/true", "")
	is.Equal(res.Code, http.StatusOK)

	res = ts.request(http.MethodPut, "/api/v0/status/bin-a/GlassFull/true", "")
	is.Equal(res.Code, http.StatusBadRequest)

	res = ts.request(http.MethodPut, "/api/v0/status/nosuchbin/CanFull/true", "")
	is.Equal(res.Code, http.StatusNotFound)
}

func TestPlannerBinTable(t *testing.T) {
	is, ts := testSetup(t)
	is.NoErr(ts.planner.Refresh(context.Background()))
	ts.planner.Select([]string{"bin-b"})

	res := ts.request(http.MethodGet, "/api/v0/planner/bins", "")
	is.Equal(res.Code, http.StatusOK)

	response := struct {
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
		Data []binRow `json:"data"`
	}{}
	is.NoErr(json.Unmarshal(res.Body.Bytes(), &response))

	is.Equal(response.Meta.Count, 3)
	is.Equal(response.Data[0].ID, "bin-a")
	is.Equal(response.Data[0].Status, "1/3")
	is.True(!response.Data[0].Selected)
	is.True(response.Data[1].Selected)
	is.True(!response.Data[2].Usable)
	is.True(response.Data[2].Coordinate == nil)
}

func TestSelectionAndRoute(t *testing.T) {
	is, ts := testSetup(t)
	is.NoErr(ts.planner.Refresh(context.Background()))

	res := ts.request(http.MethodPut, "/api/v0/planner/selection", `{"ids":["bin-b","nosuchbin","bin-a"]}`)
	is.Equal(res.Code, http.StatusOK)
	is.Equal(res.Body.String(), `{"ids":["bin-b","bin-a"]}`)

	res = ts.request(http.MethodPost, "/api/v0/planner/route", "")
	is.Equal(res.Code, http.StatusOK)

	route := routing.Route{}
	is.NoErr(json.Unmarshal(res.Body.Bytes(), &route))
	is.Equal(route.Stops, []string{"bin-a", "bin-b"})

	is.True(ts.planner.Surface().HasLayer(routing.LayerID))
}

func TestRouteWithTooFewStopsIsABadRequest(t *testing.T) {
	is, ts := testSetup(t)
	is.NoErr(ts.planner.Refresh(context.Background()))
	ts.planner.Select([]string{"bin-a"})

	res := ts.request(http.MethodPost, "/api/v0/planner/route", "")
	is.Equal(res.Code, http.StatusBadRequest)
}

func TestFailedDirectionsRequestIsABadGateway(t *testing.T) {
	is, ts := testSetup(t)
	ts.directionsErr = &directions.RouteRequestError{StatusCode: http.StatusUnauthorized, Err: errors.New("not authorized")}

	is.NoErr(ts.planner.Refresh(context.Background()))
	ts.planner.Select([]string{"bin-a", "bin-b"})

	res := ts.request(http.MethodPost, "/api/v0/planner/route", "")
	is.Equal(res.Code, http.StatusBadGateway)
}

func TestMarkerVisibility(t *testing.T) {
	is, ts := testSetup(t)

	res := ts.request(http.MethodPost, "/api/v0/planner/markers/hide", "")
	is.Equal(res.Code, http.StatusNoContent)
	is.True(!ts.planner.MarkersVisible())

	res = ts.request(http.MethodPost, "/api/v0/planner/markers/show", "")
	is.Equal(res.Code, http.StatusNoContent)
	is.True(ts.planner.MarkersVisible())

	res = ts.request(http.MethodPost, "/api/v0/planner/markers/blink", "")
	is.Equal(res.Code, http.StatusBadRequest)
}

func TestMapAndRemount(t *testing.T) {
	is, ts := testSetup(t)
	is.NoErr(ts.planner.Refresh(context.Background()))

	res := ts.request(http.MethodGet, "/api/v0/planner/map", "")
	is.Equal(res.Code, http.StatusOK)
	is.Equal(res.Header().Get("Content-Type"), "application/geo+json")
	is.True(strings.Contains(res.Body.String(), "FeatureCollection"))

	before := ts.planner.Surface()

	res = ts.request(http.MethodPost, "/api/v0/planner/map", `{"zoom":13}`)
	is.Equal(res.Code, http.StatusNoContent)

	after := ts.planner.Surface()
	is.True(before != after)
	is.Equal(after.Zoom(), float64(13))
	is.Equal(after.Center(), before.Center())
	is.Equal(len(after.Markers()), 2)
}

type testServer struct {
	router        *chi.Mux
	registry      *binregistry.BinRegistryMock
	planner       *planner.Planner
	directionsErr error
}

func (ts *testServer) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	res := httptest.NewRecorder()
	ts.router.ServeHTTP(res, req)
	return res
}

func testSetup(t *testing.T) (*is.I, *testServer) {
	is := is.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	bins := map[string]types.Bin{
		"bin-a": {ID: "bin-a", Location: "Da'an", Lat: "25.0263", Lng: "121.5436", BoxFull: "true", PETFull: "false", CanFull: "false"},
		"bin-b": {ID: "bin-b", Location: "Songshan", Lat: "25.0500", Lng: "121.5775", BoxFull: "false", PETFull: "false", CanFull: "false"},
		"bin-x": {ID: "bin-x", Location: "Unknown", Lat: "n/a", Lng: "", BoxFull: "false", PETFull: "false", CanFull: "false"},
	}

	ts := &testServer{}

	ts.registry = &binregistry.BinRegistryMock{
		ListFunc: func(ctx context.Context) ([]types.Bin, error) {
			return types.BinCollection(bins).Sorted(), nil
		},
		GetFunc: func(ctx context.Context, binID string) (types.Bin, error) {
			if b, ok := bins[binID]; ok {
				return b, nil
			}
			return types.Bin{}, binregistry.ErrBinNotFound
		},
		CreateFunc: func(ctx context.Context, bin types.Bin) error {
			if _, ok := bins[bin.ID]; ok {
				return binregistry.ErrBinAlreadyExists
			}
			return nil
		},
		SetStatusFunc: func(ctx context.Context, binID, field, status string) (types.Bin, error) {
			f, err := types.ParseStatusField(field)
			if err != nil {
				return types.Bin{}, binregistry.ErrInvalidStatus
			}
			b, ok := bins[binID]
			if !ok {
				return types.Bin{}, binregistry.ErrBinNotFound
			}
			return b.WithField(f, status), nil
		},
	}

	src := &binstore.SourceMock{
		FetchBinsFunc: ts.registry.List,
	}

	store, err := binstore.New(src, binstore.DefaultInterval)
	is.NoErr(err)

	d := &routing.DirectionsMock{
		RouteFunc: func(ctx context.Context, points []orb.Point) (orb.LineString, error) {
			if ts.directionsErr != nil {
				return nil, ts.directionsErr
			}
			return orb.LineString(points), nil
		},
	}

	sender := &events.EventSenderMock{
		RouteRenderedFunc: func(ctx context.Context, route events.RouteRendered) error {
			return nil
		},
	}

	web := webevents.New()
	t.Cleanup(web.Shutdown)

	ts.planner, err = planner.New(ctx, store, routing.New(d), sender, web, planner.Config{})
	is.NoErr(err)
	t.Cleanup(ts.planner.Stop)

	ts.router = RegisterHandlers(zerolog.Nop(), chi.NewRouter(), ts.registry, ts.planner, web)

	return is, ts
}
