package responsetagger

import (
	"io"
	"net/http"

	tee "github.com/response-tagger/response-tagger/pkg/response-writer-tee"
)

// Middleware wraps next so that its responses pass through the tagger.
// The inner handler's response is recorded in full before any bytes reach
// the client, since the ETag must be known before the headers are written.
func (t *Tagger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := tee.NewRecorder()
		next.ServeHTTP(rec, r)

		res := rec.Response(r)
		if err := t.Process(r, res); err != nil {
			t.log.Error().Err(err).Msg("Could not digest response body")
		}
		defer res.Body.Close()

		copyHeader(w.Header(), res.Header)
		w.WriteHeader(res.StatusCode)
		if _, err := io.Copy(w, res.Body); err != nil {
			t.log.Error().Err(err).Msg("Could not write response body to client")
		}
	})
}
