package events

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matryer/is"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v2"
)

func TestConfig(t *testing.T) {
	is := setupTest(t)
	cfg, err := parseConfig(configYaml("http://api-notification:8990"))

	is.NoErr(err)
	is.Equal(len(cfg.Notifications), 1)
	is.Equal(cfg.Notifications[0].ID, "binroutes")
	is.Equal(cfg.Notifications[0].Type, RouteRenderedEventType)
}

func TestThatRouteRenderedIsSentToSubscribers(t *testing.T) {
	is := setupTest(t)

	received := make(chan map[string]any, 1)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.Header.Get("Ce-Type"), RouteRenderedEventType)

		b, _ := io.ReadAll(r.Body)
		body := map[string]any{}
		is.NoErr(json.Unmarshal(b, &body))
		received <- body

		w.WriteHeader(http.StatusOK)
	}))
	defer s.Close()

	cfg, err := parseConfig(configYaml(s.URL))
	is.NoErr(err)

	sender, err := New(cfg)
	is.NoErr(err)

	err = sender.RouteRendered(context.Background(), RouteRendered{
		Sequence: 1,
		Stops:    []string{"bin-01", "bin-02"},
		Geometry: orb.LineString{{121.561, 25.0434}, {121.5654, 25.033}},
	})
	is.NoErr(err)

	body := <-received
	is.Equal(body["sequence"], float64(1))
}

func TestThatNoSubscribersSendsNothing(t *testing.T) {
	is := setupTest(t)

	sender, err := New(nil)
	is.NoErr(err)

	err = sender.RouteRendered(context.Background(), RouteRendered{Stops: []string{"bin-01"}})
	is.NoErr(err)
}

func TestSubscriberIdPatterns(t *testing.T) {
	is := setupTest(t)

	s := SubscriberConfig{
		Information: []RegistrationInfo{{Entities: []EntityInfo{{IDPattern: "^bin-0[0-9]$"}}}},
	}

	is.True(s.Accepts([]string{"other", "bin-01"}))
	is.True(!s.Accepts([]string{"bin-10"}))
	is.True(SubscriberConfig{}.Accepts([]string{"anything"}))
}

func configYaml(endpoint string) string {
	return `
notifications:
  - id: binroutes
    name: Rendered bin routes
    type: diwise.binroute.rendered
    subscribers:
    - endpoint: ` + endpoint + `
      information:
      - entities:
        - idPattern: ^bin-.+
`
}

func parseConfig(data string) (*Config, error) {
	cfg := &Config{}
	err := yaml.Unmarshal([]byte(data), cfg)
	return cfg, err
}

func setupTest(t *testing.T) *is.I {
	is := is.New(t)

	return is
}
