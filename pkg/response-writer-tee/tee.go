package tee

import (
	"bytes"
	"io"
	"net/http"
)

// Recorder is an http.ResponseWriter that records the response instead of
// writing it out, so that headers can still be mutated after the inner
// handler has run.
type Recorder struct {
	b            *bytes.Buffer
	header       http.Header
	status       int
	wroteHeaders bool
}

// NewRecorder returns a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		b:      &bytes.Buffer{},
		header: http.Header{},
	}
}

// Implementation of http.ResponseWriter
func (t *Recorder) Header() http.Header {
	return t.header
}

// Implementation of http.ResponseWriter
func (t *Recorder) WriteHeader(statusCode int) {
	// only the first status written counts, as with a real response
	if t.wroteHeaders {
		return
	}
	t.wroteHeaders = true
	t.status = statusCode
}

// Implementation of http.ResponseWriter
func (t *Recorder) Write(b []byte) (int, error) {
	if !t.wroteHeaders {
		t.WriteHeader(http.StatusOK)
	}
	return t.b.Write(b)
}

// StatusCode returns the recorded status code.
// A handler that never wrote anything counts as 200, as in net/http.
func (t *Recorder) StatusCode() int {
	if !t.wroteHeaders {
		return http.StatusOK
	}
	return t.status
}

// Body returns the recorded body bytes.
func (t *Recorder) Body() []byte {
	return t.b.Bytes()
}

// Response converts the recording into an http.Response suitable for
// response-modifying middleware.
func (t *Recorder) Response(req *http.Request) *http.Response {
	body := t.Body()
	return &http.Response{
		StatusCode:    t.StatusCode(),
		Header:        t.header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
