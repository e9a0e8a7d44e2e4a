package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/surface"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/matryer/is"
	"github.com/paulmach/orb"
)

var binA = types.Bin{ID: "bin-a", Location: "Da'an", Lat: "25.0263", Lng: "121.5436"}
var binB = types.Bin{ID: "bin-b", Location: "Songshan", Lat: "25.0500", Lng: "121.5775"}
var binC = types.Bin{ID: "bin-c", Location: "Xinyi", Lat: "25.0263", Lng: "121.5654"}

func TestNavigateOrdersStopsAndRendersRoute(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	geometry := orb.LineString{{121.561, 25.0434}, {121.5436, 25.0263}, {121.5775, 25.05}}
	d := &DirectionsMock{
		RouteFunc: func(ctx context.Context, points []orb.Point) (orb.LineString, error) {
			return geometry, nil
		},
	}

	o := New(d)
	is.NoErr(o.Attach(ctx, s))

	r, err := o.Navigate(ctx, []types.Bin{binB, binA})
	is.NoErr(err)

	is.Equal(len(d.RouteCalls()), 1)
	is.Equal(d.RouteCalls()[0].Points, []orb.Point{DefaultOrigin, {121.5436, 25.0263}, {121.5775, 25.05}})
	is.Equal(r.Stops, []string{"bin-a", "bin-b"})

	l, ok := s.Layer(LayerID)
	is.True(ok)
	is.Equal(l.Type, "line")
	is.Equal(l.Data, geometry)
	is.Equal(l.Paint["line-color"], "#3887be")
	is.Equal(l.Paint["line-width"], 5)
	is.Equal(l.Paint["line-opacity"], 0.75)
	is.Equal(l.Layout["line-join"], "round")
	is.Equal(l.Layout["line-cap"], "round")
}

func TestThatTooFewStopsMakesNoRequest(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	d := &DirectionsMock{}
	o := New(d)
	is.NoErr(o.Attach(ctx, s))

	unusable := types.Bin{ID: "bin-x", Lat: "", Lng: "121.5"}

	_, err := o.Navigate(ctx, []types.Bin{binA, unusable})
	is.True(errors.Is(err, ErrTooFewStops))

	_, err = o.Navigate(ctx, nil)
	is.True(errors.Is(err, ErrTooFewStops))

	is.Equal(len(d.RouteCalls()), 0)
	is.True(!s.HasLayer(LayerID))
}

func TestThatEqualLatitudesKeepSelectionOrder(t *testing.T) {
	is := is.New(t)

	o := New(&DirectionsMock{}, WithoutOrigin())

	points, err := o.ComputeOrder([]types.Bin{binB, binC, binA})
	is.NoErr(err)
	is.Equal(points, []orb.Point{{121.5654, 25.0263}, {121.5436, 25.0263}, {121.5775, 25.05}})
}

func TestThatOriginIsAlwaysFirst(t *testing.T) {
	is := is.New(t)

	origin := orb.Point{121.0, 24.0}
	o := New(&DirectionsMock{}, WithOrigin(origin))

	points, err := o.ComputeOrder([]types.Bin{binB, binA})
	is.NoErr(err)
	is.Equal(len(points), 3)
	is.Equal(points[0], origin)
}

func TestThatRenderingTwiceKeepsOneLayer(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	o := New(&DirectionsMock{})
	is.NoErr(o.Attach(ctx, s))

	is.NoErr(o.Render(orb.LineString{{1, 1}, {2, 2}}))
	is.NoErr(o.Render(orb.LineString{{3, 3}, {4, 4}}))

	is.Equal(s.LayerCount(), 1)
	l, _ := s.Layer(LayerID)
	is.Equal(l.Data, orb.LineString{{3, 3}, {4, 4}})
}

func TestThatRenderReplacesTheNavigatedRoute(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	d := &DirectionsMock{
		RouteFunc: func(ctx context.Context, points []orb.Point) (orb.LineString, error) {
			return orb.LineString(points), nil
		},
	}

	o := New(d)
	is.NoErr(o.Attach(ctx, s))

	navigated, err := o.Navigate(ctx, []types.Bin{binA, binB})
	is.NoErr(err)

	drawn := orb.LineString{{3, 3}, {4, 4}}
	is.NoErr(o.Render(drawn))

	current, ok := o.Current()
	is.True(ok)
	is.Equal(current.Geometry, drawn)
	is.Equal(len(current.Stops), 0)
	is.Equal(len(current.Waypoints), 0)
	is.True(current.Sequence > navigated.Sequence)
}

func TestThatOnlyTheLatestRequestIsRendered(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	slow := orb.LineString{{1, 1}, {2, 2}}
	fast := orb.LineString{{3, 3}, {4, 4}}

	started := make(chan struct{})
	release := make(chan struct{})

	d := &DirectionsMock{
		RouteFunc: func(ctx context.Context, points []orb.Point) (orb.LineString, error) {
			if len(points) == 3 {
				close(started)
				<-release
				return slow, nil
			}
			return fast, nil
		},
	}

	o := New(d)
	is.NoErr(o.Attach(ctx, s))

	first := make(chan error)
	go func() {
		_, err := o.Navigate(ctx, []types.Bin{binA, binB})
		first <- err
	}()

	<-started

	_, err := o.Navigate(ctx, []types.Bin{binA, binB, binC})
	is.NoErr(err)

	close(release)
	is.True(errors.Is(<-first, ErrStaleResult))

	l, _ := s.Layer(LayerID)
	is.Equal(l.Data, fast)
}

func TestThatFailedRequestKeepsPreviousRoute(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	geometry := orb.LineString{{1, 1}, {2, 2}}
	fail := false

	d := &DirectionsMock{
		RouteFunc: func(ctx context.Context, points []orb.Point) (orb.LineString, error) {
			if fail {
				return nil, errors.New("service unavailable")
			}
			return geometry, nil
		},
	}

	o := New(d)
	is.NoErr(o.Attach(ctx, s))

	_, err := o.Navigate(ctx, []types.Bin{binA, binB})
	is.NoErr(err)

	fail = true
	_, err = o.Navigate(ctx, []types.Bin{binA, binB})

	var rre *RouteRequestError
	is.True(errors.As(err, &rre))

	l, _ := s.Layer(LayerID)
	is.Equal(l.Data, geometry)

	current, ok := o.Current()
	is.True(ok)
	is.Equal(current.Geometry, geometry)
}

func TestThatRouteIsRenderedWhenAttached(t *testing.T) {
	is, ctx := testSetup(t)

	o := New(&DirectionsMock{})
	is.NoErr(o.Render(orb.LineString{{1, 1}, {2, 2}}))

	first := readySurface(ctx, is)
	is.NoErr(o.Attach(ctx, first))
	is.True(first.HasLayer(LayerID))

	second := readySurface(ctx, is)
	is.NoErr(o.Attach(ctx, second))
	is.True(!first.HasLayer(LayerID))
	is.True(second.HasLayer(LayerID))
}

func readySurface(ctx context.Context, is *is.I) *surface.Surface {
	s := surface.Create(ctx, "map", DefaultOrigin, 16)
	is.NoErr(s.WaitReady(ctx))
	return s
}

func testSetup(t *testing.T) (*is.I, context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return is.New(t), ctx
}
