// Package api serves the monitor's readings over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"

	"dhtcode-go/host/monitor"
)

// Source is the read side of monitor.Aggregator.
type Source interface {
	Get(name string) (monitor.Reading, bool)
	Snapshot() []monitor.Reading
}

type handler struct {
	src        Source
	staleAfter time.Duration
	now        func() time.Time
}

// NewRouter returns the API router. Readings not updated within staleAfter
// are reported with stale=true; zero disables the check.
func NewRouter(src Source, staleAfter time.Duration) *mux.Router {
	return newRouter(&handler{src: src, staleAfter: staleAfter, now: time.Now})
}

func newRouter(h *handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods("GET")
	r.HandleFunc("/readings", h.list).Methods("GET")
	r.HandleFunc("/readings/{name}", h.get).Methods("GET")
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"sensors": len(h.src.Snapshot()),
	})
}

func (h *handler) list(w http.ResponseWriter, _ *http.Request) {
	rs := h.src.Snapshot()
	for i := range rs {
		h.mark(&rs[i])
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	rd, ok := h.src.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown sensor " + name})
		return
	}
	h.mark(&rd)
	writeJSON(w, http.StatusOK, rd)
}

func (h *handler) mark(r *monitor.Reading) {
	r.Stale = h.staleAfter > 0 && h.now().Sub(r.Updated) > h.staleAfter
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Warningf("writing response: %v", err)
	}
}
