package httpinterface

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status         string `json:"status"`
	TrackedMarkets int    `json:"trackedMarkets"`
	Connections    int    `json:"connections"`
}

func healthHandler(opts ServiceOpts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := healthResponse{Status: "ok"}
		if opts.Status != nil {
			res.TrackedMarkets = opts.Status.TrackedCount()
		}
		if counter, ok := opts.WSHandler.(ConnectionCounter); ok {
			res.Connections = counter.ConnectionCount()
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint
	json.NewEncoder(w).Encode(body)
}
