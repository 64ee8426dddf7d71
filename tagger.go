package responsetagger

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/response-tagger/response-tagger/pkg/normalizer"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Default Cache-Control header to set on responses that received a
	// digest. The zero value means DefaultCacheControl.
	CacheControl CacheControlDirective
	// Cache-Control header to set on responses that could not be digested
	// (wrong status, empty body, and so on). The zero value means the
	// header is left alone.
	NoDigestCacheControl CacheControlDirective
	// Optional function for extracting the session identifier from the
	// incoming request. Responses produced under different sessions get
	// different ETags even for identical content. An empty return value
	// means no session.
	SessionFunc func(*http.Request) string
	// Normalization rules to apply before hashing.
	// The built-in rule set is used if nil.
	Rules normalizer.Rules
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

// Tagger computes weak content-based ETags for successful responses and
// applies default Cache-Control headers. Volatile per-request tokens (CSRF
// tokens, nonces) are normalized out of the digested content, so two
// renderings of the same page hash to the same ETag. The client always
// receives the original body bytes.
type Tagger struct {
	cacheControl         CacheControlDirective
	noDigestCacheControl CacheControlDirective
	sessionFunc          func(*http.Request) string
	rules                normalizer.Rules
	log                  zerolog.Logger
}

// New initializes a tagger from the given config.
func New(config Config) *Tagger {
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = log.Logger
	} else {
		logger = *config.Logger
	}

	rules := config.Rules
	if rules == nil {
		rules = normalizer.Default()
	}

	return &Tagger{
		cacheControl:         config.CacheControl,
		noDigestCacheControl: config.NoDigestCacheControl,
		sessionFunc:          config.SessionFunc,
		rules:                rules,
		log:                  logger.With().Str("component", "response-tagger").Logger(),
	}
}

// ModifyResponse makes the tagger pluggable into an
// httputil.ReverseProxy as its ModifyResponse hook.
func (t *Tagger) ModifyResponse(res *http.Response) error {
	return t.Process(res.Request, res)
}

// Process inspects the response and mutates its headers in place: an ETag is
// added when the response is eligible for digesting, and a Cache-Control
// header is applied when none is set. The body is replaced with a replay of
// the buffered bytes if and only if buffering occurred; closing the
// replacement closes the original body.
//
// The returned error is non-nil only when reading the body failed. The
// response is still usable in that case, just without an ETag.
func (t *Tagger) Process(req *http.Request, res *http.Response) error {
	digest, err := t.digest(req, res)
	if err != nil {
		t.log.Debug().Err(err).Msg("Could not read response body")
	}
	if digest != "" {
		res.Header.Set("ETag", fmt.Sprintf(`W/"%s"`, digest))
	}
	t.applyCacheControl(res.Header, digest != "")
	return err
}

// digest buffers and hashes the response body if the response is eligible.
// It returns an empty digest for any ineligible response.
func (t *Tagger) digest(req *http.Request, res *http.Response) (string, error) {
	if !taggableStatus(res.StatusCode) {
		return "", nil
	}
	if res.Header.Get("ETag") != "" {
		t.log.Trace().Msg("ETag already set, skipping digest")
		return "", nil
	}
	if res.Header.Get("Last-Modified") != "" {
		t.log.Trace().Msg("Last-Modified set, skipping digest")
		return "", nil
	}
	if res.Body == nil || res.Body == http.NoBody {
		return "", nil
	}
	if isZeroCopy(res.Body) {
		t.log.Trace().Msg("Zero-copy body, skipping digest")
		return "", nil
	}

	body, err := bufferBody(res)
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", nil
	}

	input := body
	if normalizer.IsText(res.Header.Get("Content-Type"), body) {
		input = t.rules.Apply(body)
	}

	h := md5.New()
	h.Write(input)
	if t.sessionFunc != nil && req != nil {
		if session := t.sessionFunc(req); session != "" {
			io.WriteString(h, session)
		}
	}
	digest := hex.EncodeToString(h.Sum(nil))
	t.log.Trace().Str("digest", digest).Msgf("Digested body (%d bytes)", len(body))
	return digest, nil
}

func (t *Tagger) applyCacheControl(header http.Header, digested bool) {
	var value string
	var ok bool
	if digested {
		value, ok = t.cacheControl.or(DefaultCacheControl)
	} else {
		value, ok = t.noDigestCacheControl.or("")
	}
	if !ok {
		return
	}
	if setHeaderIfAbsent(header, "Cache-Control", value) {
		t.log.Trace().Str("value", value).Msg("Applied default Cache-Control header")
	}
}

// taggableStatus reports whether the status code is one of the cacheable
// success codes that get an ETag. 204 and 206 are deliberately excluded.
func taggableStatus(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}
