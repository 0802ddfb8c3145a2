package internal

import (
	"encoding/json"
	"net/http"
)

// DebugHandler serves a stats snapshot as JSON. The provider runs per
// request, so the endpoint always reflects live counters.
func DebugHandler(snapshot func() any) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /inspect", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot())
	})
	return mux
}
