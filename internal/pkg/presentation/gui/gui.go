package gui

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/diwise/iot-bin-routing/internal/pkg/application/planner"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

var plannerTemplate = template.Must(template.ParseFS(templates, "templates/planner.html"))

func RegisterHandlers(log zerolog.Logger, router *chi.Mux, p *planner.Planner) *chi.Mux {

	staticFiles, err := fs.Sub(static, "static")
	if err != nil {
		panic(err.Error())
	}
	FileServer(router, "/static", http.FS(staticFiles))

	router.Get("/planner", NewPlannerHandler(log, p))

	return router
}

type binItem struct {
	types.Bin
	Full     int
	Usable   bool
	Selected bool
}

func NewPlannerHandler(log zerolog.Logger, p *planner.Planner) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {
		items := []binItem{}

		for _, b := range p.Bins().Sorted() {
			items = append(items, binItem{
				Bin:      b,
				Full:     b.FullCount(),
				Usable:   b.Usable(),
				Selected: p.IsSelected(b.ID),
			})
		}

		route, hasRoute := p.Route()

		data := struct {
			Title          string
			Items          []binItem
			Compartments   int
			MarkersVisible bool
			HasRoute       bool
			Stops          []string
		}{
			Title:          "Bins",
			Items:          items,
			Compartments:   len(types.StatusFields),
			MarkersVisible: p.MarkersVisible(),
			HasRoute:       hasRoute,
			Stops:          route.Stops,
		}

		w.Header().Add("Content-Type", "text/html; charset=utf-8")

		if err := plannerTemplate.Execute(w, data); err != nil {
			log.Error().Err(err).Msg("failed to render planner page")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}
}

func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit any URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		handler := http.StripPrefix(pathPrefix, http.FileServer(root))
		handler.ServeHTTP(w, r)
	})
}
