// Package mockvendor serves a canned vendor snapshot so the REST fetcher
// can be exercised locally without a real vendor.
package mockvendor

import (
	_ "embed"
	"net/http"
)

// Path is where the sample snapshot is served.
const Path = "/mock/vendor-a/products"

//go:embed data/vendor-a-sample.json
var sample []byte

// Sample returns a copy of the embedded snapshot.
func Sample() []byte {
	out := make([]byte, len(sample))
	copy(out, sample)
	return out
}

// Handler serves the sample snapshot on GET.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(sample)
	})
}

// Mount registers the handler on mux.
func Mount(mux *http.ServeMux) {
	mux.Handle(Path, Handler())
}
