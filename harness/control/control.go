// Package control serves a live-status HTTP endpoint over a running
// harness.Run, filtered by a query string decoded into a Filter struct with
// gorilla/schema — the same decode-querystring-into-struct role the
// library plays for the teacher's management HTTP forms, repointed here at
// the harness's own status endpoint instead of NDN mgmt.
package control

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"

	"github.com/antswarm/antndn/harness"
	simmonitor "github.com/antswarm/antndn/sim/monitor"
)

// Filter narrows a status query to one Node and/or one content name.
// Either field left empty matches everything.
type Filter struct {
	Node string `schema:"node"`
	Name string `schema:"name"`
}

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// ParseFilter decodes a URL query string into a Filter.
func ParseFilter(values url.Values) (Filter, error) {
	var f Filter
	if err := decoder.Decode(&f, values); err != nil {
		return Filter{}, fmt.Errorf("control: decode filter: %w", err)
	}
	return f, nil
}

// Status is the live-status endpoint's JSON response body: every
// NodeMonitor sample currently matching the request's Filter. Consumer
// Received Data is not included.
type Status struct {
	Samples []simmonitor.Sample `json:"samples"`
}

// Handler serves Status filtered by the request's query string over a
// single harness.Run.
type Handler struct {
	run *harness.Run
}

// NewHandler constructs a Handler over run.
func NewHandler(run *harness.Run) *Handler {
	return &Handler{run: run}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var status Status
	if h.run.Monitor != nil {
		for _, s := range h.run.Monitor.Samples {
			if filter.Node != "" && s.Node != filter.Node {
				continue
			}
			if filter.Name != "" && !containsName(s.CsNames, filter.Name) {
				continue
			}
			status.Samples = append(status.Samples, s)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
