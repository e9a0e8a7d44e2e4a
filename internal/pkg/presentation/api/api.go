package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/diwise/iot-bin-routing/internal/pkg/application/binregistry"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/planner"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/routing"
	"github.com/diwise/iot-bin-routing/internal/pkg/application/webevents"
	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("iot-bin-routing/api")

func RegisterHandlers(log zerolog.Logger, router *chi.Mux, registry binregistry.BinRegistry, p *planner.Planner, we webevents.WebEvents) *chi.Mux {

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v0", func(r chi.Router) {
		r.Route("/bins", func(r chi.Router) {
			r.Get("/", listBinsHandler(log, registry))
			r.Get("/{binID}", getBinHandler(log, registry))
			r.Post("/", createBinHandler(log, registry))
		})

		r.Put("/status/{binID}/{field}/{status}", setStatusHandler(log, registry))
		r.Get("/status/{binID}/{field}/{status}", setStatusHandler(log, registry))

		r.Route("/planner", func(r chi.Router) {
			r.Get("/bins", plannerBinsHandler(log, p))
			r.Put("/selection", selectionHandler(log, p))
			r.Post("/route", routeHandler(log, p))
			r.Get("/map", mapHandler(log, p))
			r.Post("/map", remountHandler(log, p))
			r.Post("/markers/{visibility}", markersHandler(log, p))
			r.Get("/events", we.Server().ServeHTTP)
		})
	})

	return router
}

func listBinsHandler(log zerolog.Logger, registry binregistry.BinRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "list-bins")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		bins, err := registry.List(ctx)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to list bins")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, bins)
	}
}

func getBinHandler(log zerolog.Logger, registry binregistry.BinRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-bin")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		binID := chi.URLParam(r, "binID")
		requestLogger = requestLogger.With().Str("binID", binID).Logger()

		bin, err := registry.Get(ctx, binID)
		if errors.Is(err, binregistry.ErrBinNotFound) {
			requestLogger.Debug().Msg("bin not found")
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err != nil {
			requestLogger.Error().Err(err).Msg("could not fetch data")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, bin)
	}
}

func createBinHandler(log zerolog.Logger, registry binregistry.BinRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-bin")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to read body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		req := createBinRequest{}
		err = json.Unmarshal(body, &req)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to unmarshal body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		err = registry.Create(ctx, req.bin())
		if err != nil {
			switch {
			case errors.Is(err, binregistry.ErrBinAlreadyExists):
				requestLogger.Debug().Msg("bin already exists")
				w.WriteHeader(http.StatusConflict)
			case binregistry.IsClientError(err):
				requestLogger.Debug().Err(err).Msg("bad bin")
				w.WriteHeader(http.StatusBadRequest)
			default:
				requestLogger.Error().Err(err).Msg("unable to create bin")
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}

		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("true"))
	}
}

func setStatusHandler(log zerolog.Logger, registry binregistry.BinRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "set-bin-status")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		binID := chi.URLParam(r, "binID")
		field := chi.URLParam(r, "field")
		status := chi.URLParam(r, "status")

		requestLogger = requestLogger.With().Str("binID", binID).Logger()

		bin, err := registry.SetStatus(ctx, binID, field, status)
		if err != nil {
			switch {
			case errors.Is(err, binregistry.ErrBinNotFound):
				w.WriteHeader(http.StatusNotFound)
			case binregistry.IsClientError(err):
				requestLogger.Debug().Err(err).Msg("bad status")
				w.WriteHeader(http.StatusBadRequest)
			default:
				requestLogger.Error().Err(err).Msg("unable to set status")
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}

		f, _ := types.ParseStatusField(field)
		writeJSON(w, http.StatusOK, bin.Field(f))
	}
}

func plannerBinsHandler(log zerolog.Logger, p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows := newBinRows(p)
		count := uint64(len(rows))

		writeJSON(w, http.StatusOK, ApiResponse{
			Meta: &meta{TotalRecords: count, Count: count},
			Data: rows,
		})
	}
}

func selectionHandler(log zerolog.Logger, p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		selection := struct {
			IDs []string `json:"ids"`
		}{}

		err := json.NewDecoder(r.Body).Decode(&selection)
		if err != nil {
			log.Debug().Err(err).Msg("unable to decode selection")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		applied := p.Select(selection.IDs)

		writeJSON(w, http.StatusOK, struct {
			IDs []string `json:"ids"`
		}{IDs: applied})
	}
}

func routeHandler(log zerolog.Logger, p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "navigate")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		route, err := p.Navigate(ctx)
		if err != nil {
			var rre *routing.RouteRequestError

			switch {
			case errors.Is(err, routing.ErrTooFewStops):
				requestLogger.Debug().Err(err).Msg("not enough stops for a route")
				w.WriteHeader(http.StatusBadRequest)
			case errors.Is(err, routing.ErrStaleResult):
				w.WriteHeader(http.StatusConflict)
			case errors.As(err, &rre):
				requestLogger.Error().Err(err).Msg("route request failed")
				w.WriteHeader(http.StatusBadGateway)
			default:
				requestLogger.Error().Err(err).Msg("unable to navigate")
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, route)
	}
}

func mapHandler(log zerolog.Logger, p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := p.Surface().FeatureCollection().MarshalJSON()
		if err != nil {
			log.Error().Err(err).Msg("unable to marshal map surface")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Add("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}

func remountHandler(log zerolog.Logger, p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "remount-map")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		current := p.Surface()

		view := struct {
			Center *orb.Point `json:"center"`
			Zoom   *float64   `json:"zoom"`
		}{}

		err = json.NewDecoder(r.Body).Decode(&view)
		if err != nil && !errors.Is(err, io.EOF) {
			requestLogger.Debug().Err(err).Msg("unable to decode map view")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		center, zoom := current.Center(), current.Zoom()
		if view.Center != nil {
			center = *view.Center
		}
		if view.Zoom != nil {
			zoom = *view.Zoom
		}

		err = p.Remount(ctx, center, zoom)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to remount map")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func markersHandler(log zerolog.Logger, p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		switch chi.URLParam(r, "visibility") {
		case "show":
			err = p.ShowMarkers()
		case "hide":
			err = p.HideMarkers()
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if err != nil {
			log.Error().Err(err).Msg("unable to change marker visibility")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(b)
}
