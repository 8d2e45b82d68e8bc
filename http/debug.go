package http

import (
	"net/http"

	"github.com/aukilabs/collide/spatial"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

// IndexInspector is the subset of a world that exposes its collision index.
type IndexInspector interface {
	DebugInfo() spatial.DebugInfo
	Verify() error
}

// IndexDebugResponse is the body returned by HandleIndexDebug.
type IndexDebugResponse struct {
	spatial.DebugInfo
	// Set only when the integrity check ran.
	Consistent *bool  `json:"consistent,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HandleIndexDebug serves a JSON snapshot of the collision index. The
// integrity check runs only when the verify query parameter is set.
func HandleIndexDebug(index IndexInspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		res := IndexDebugResponse{
			DebugInfo: index.DebugInfo(),
		}

		if r.URL.Query().Has("verify") {
			err := index.Verify()
			consistent := err == nil
			res.Consistent = &consistent

			if err != nil {
				logs.Warn(errors.New("collision index is inconsistent").Wrap(err))
				res.Error = err.Error()
			}
		}

		WriteJSON(w, http.StatusOK, res)
	}
}

// WriteJSON writes v as the JSON body of a response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logs.Error(errors.New("encoding json response failed").Wrap(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
