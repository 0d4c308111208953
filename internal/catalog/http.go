package catalog

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/banshee-data/vrtelemetry/internal/httputil"
)

// Handler serves the catalogue read-only as JSON:
//
//	GET /recordings       every recording, newest first
//	GET /recordings/{id}  one recording by session id
func (c *Catalog) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /recordings", c.handleList)
	mux.HandleFunc("GET /recordings/{id}", c.handleGet)
	return mux
}

func (c *Catalog) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := c.List(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if recs == nil {
		recs = []Recording{}
	}
	httputil.WriteJSONOK(w, recs)
}

func (c *Catalog) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.BadRequest(w, "invalid session id")
		return
	}
	rec, err := c.Get(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.NotFound(w, err.Error())
	case err != nil:
		httputil.InternalServerError(w, err.Error())
	default:
		httputil.WriteJSONOK(w, rec)
	}
}
