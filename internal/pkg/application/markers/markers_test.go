package markers

import (
	"context"
	"testing"
	"time"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/surface"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/matryer/is"
	"github.com/paulmach/orb"
)

func TestThatUnusableBinsGetNoMarker(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	o := New()
	is.NoErr(o.Attach(ctx, s))

	bins := testBins()
	bins = append(bins, types.Bin{ID: "bin-x", Lat: "not a number", Lng: "121.5"})

	is.NoErr(o.SetRecords(bins))
	is.Equal(len(o.Markers()), 3)
	is.Equal(len(s.Markers()), 3)
}

func TestThatSetRecordsIsIdempotent(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	o := New()
	is.NoErr(o.Attach(ctx, s))
	is.NoErr(o.SetRecords(testBins()))

	before := o.Markers()

	changes := 0
	s.OnChange(func(*surface.Surface) { changes++ })

	is.NoErr(o.SetRecords(testBins()))

	is.Equal(o.Markers(), before)
	is.Equal(changes, 0)
}

func TestThatReplacingAllBinsNotifiesOnceWithTheFinalMarkers(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	o := New()
	is.NoErr(o.Attach(ctx, s))
	is.NoErr(o.SetRecords(testBins()[:2]))

	visible := []int{}
	s.OnChange(func(s *surface.Surface) { visible = append(visible, len(s.FeatureCollection().Features)) })

	replacement := []types.Bin{
		testBins()[2],
		{ID: "bin-d", Location: "Zhongshan", Lat: "25.0640", Lng: "121.5260", BoxFull: "false", PETFull: "false", CanFull: "false"},
	}
	is.NoErr(o.SetRecords(replacement))

	is.Equal(visible, []int{2})
}

func TestThatHideNotifiesOnce(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	o := New()
	is.NoErr(o.Attach(ctx, s))
	is.NoErr(o.SetRecords(testBins()))

	changes := 0
	s.OnChange(func(*surface.Surface) { changes++ })

	is.NoErr(o.Hide())
	is.Equal(changes, 1)
	is.Equal(len(s.FeatureCollection().Features), 0)
}

func TestThatRemovedBinsLoseTheirMarker(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	o := New()
	is.NoErr(o.Attach(ctx, s))
	is.NoErr(o.SetRecords(testBins()))

	kept := o.Markers()["bin-a"]

	is.NoErr(o.SetRecords(testBins()[:1]))

	is.Equal(len(s.Markers()), 1)
	is.Equal(o.Markers()["bin-a"], kept)
}

func TestThatMovedBinsAreRepositionedInPlace(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	o := New()
	is.NoErr(o.Attach(ctx, s))
	is.NoErr(o.SetRecords(testBins()))

	h := o.Markers()["bin-a"]

	bins := testBins()
	bins[0].Lat = "25.0400"
	is.NoErr(o.SetRecords(bins))

	is.Equal(o.Markers()["bin-a"], h)
	m, ok := s.Marker(h)
	is.True(ok)
	is.Equal(m.Point, orb.Point{121.5654, 25.04})
}

func TestHideAndShowKeepHandles(t *testing.T) {
	is, ctx := testSetup(t)
	s := readySurface(ctx, is)

	o := New()
	is.NoErr(o.Attach(ctx, s))
	is.NoErr(o.SetRecords(testBins()))

	before := o.Markers()

	is.NoErr(o.Hide())
	is.Equal(len(s.FeatureCollection().Features), 0)
	is.True(!o.Visible())

	bins := append(testBins(), types.Bin{ID: "bin-d", Lat: "25.06", Lng: "121.55"})
	is.NoErr(o.SetRecords(bins))
	is.Equal(len(s.FeatureCollection().Features), 0)

	is.NoErr(o.Show())
	is.Equal(len(s.FeatureCollection().Features), 4)

	after := o.Markers()
	for id, h := range before {
		is.Equal(after[id], h)
	}
}

func TestThatRecordsSetWhileDetachedAreAppliedOnAttach(t *testing.T) {
	is, ctx := testSetup(t)

	o := New()
	is.NoErr(o.SetRecords(testBins()))
	is.Equal(len(o.Markers()), 0)

	release := make(chan struct{})
	s := surface.Create(ctx, "map", orb.Point{121.561, 25.0434}, 16, surface.WithStyleLoader(func(context.Context) error {
		<-release
		return nil
	}))

	attached := make(chan error)
	go func() { attached <- o.Attach(ctx, s) }()

	close(release)
	is.NoErr(<-attached)
	is.Equal(len(s.Markers()), 3)
}

func TestThatAttachToNewSurfaceMovesMarkers(t *testing.T) {
	is, ctx := testSetup(t)
	first := readySurface(ctx, is)
	second := readySurface(ctx, is)

	o := New()
	is.NoErr(o.Attach(ctx, first))
	is.NoErr(o.SetRecords(testBins()))

	is.NoErr(o.Attach(ctx, second))
	is.Equal(len(first.Markers()), 0)
	is.Equal(len(second.Markers()), 3)

	is.NoErr(o.Attach(ctx, second))
	is.Equal(len(second.Markers()), 3)

	is.NoErr(o.Detach())
	is.Equal(len(second.Markers()), 0)
	is.Equal(len(o.Markers()), 0)
}

func readySurface(ctx context.Context, is *is.I) *surface.Surface {
	s := surface.Create(ctx, "map", orb.Point{121.561, 25.0434}, 16)
	is.NoErr(s.WaitReady(ctx))
	return s
}

func testBins() []types.Bin {
	return []types.Bin{
		{ID: "bin-a", Location: "Xinyi", Lat: "25.0330", Lng: "121.5654", BoxFull: "false", PETFull: "false", CanFull: "false"},
		{ID: "bin-b", Location: "Da'an", Lat: "25.0263", Lng: "121.5436", BoxFull: "true", PETFull: "false", CanFull: "true"},
		{ID: "bin-c", Location: "Songshan", Lat: "25.0500", Lng: "121.5775", BoxFull: "false", PETFull: "true", CanFull: "false"},
	}
}

func testSetup(t *testing.T) (*is.I, context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return is.New(t), ctx
}
