package responsetagger

import (
	"bytes"
	"io"
	"net/http"
	"os"
)

// SendfileBody marks a response body as backed directly by a file handle,
// eligible for zero-copy transfer. Such bodies are never buffered or
// digested, since reading them into memory would defeat their purpose.
// Bodies that are a plain *os.File are treated the same way.
type SendfileBody interface {
	io.ReadCloser
	Sendfile() *os.File
}

func isZeroCopy(body io.ReadCloser) bool {
	if _, ok := body.(*os.File); ok {
		return true
	}
	_, ok := body.(SendfileBody)
	return ok
}

// bufferBody drains the response body into memory and replaces it with a
// replay over the captured bytes. The original body is not closed here: the
// replay forwards its own close. On a read error the original is closed
// immediately and the partial bytes are still made replayable.
func bufferBody(res *http.Response) ([]byte, error) {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		res.Body.Close()
		res.Body = newReplayBody(body, nil)
		return body, err
	}
	res.Body = newReplayBody(body, res.Body)
	return body, nil
}

// replayBody replays buffered response bytes while keeping the original
// body's close semantics: closing the replay closes the original exactly
// once, and only when the replay itself is closed.
type replayBody struct {
	*bytes.Reader
	original io.Closer
	closed   bool
}

func newReplayBody(b []byte, original io.Closer) io.ReadCloser {
	return &replayBody{Reader: bytes.NewReader(b), original: original}
}

func (r *replayBody) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.original == nil {
		return nil
	}
	return r.original.Close()
}
