package responsetagger

// DefaultCacheControl is applied to digested responses when no directive is
// configured and the response does not carry a Cache-Control header already.
const DefaultCacheControl = "max-age=0, private, must-revalidate"

// CacheControlDirective is an optional Cache-Control header value with three
// states: not configured (the zero value, meaning the built-in default of the
// configuration slot applies), explicitly disabled, or a literal value.
type CacheControlDirective struct {
	value string
	set   bool
	none  bool
}

// CacheControlValue returns a directive with the given literal header value.
func CacheControlValue(value string) CacheControlDirective {
	return CacheControlDirective{value: value, set: true}
}

// CacheControlNone returns a directive that explicitly disables setting the
// header, as opposed to the zero value which falls back to the slot default.
func CacheControlNone() CacheControlDirective {
	return CacheControlDirective{set: true, none: true}
}

// or resolves the directive against the slot default. An empty fallback
// means the slot has no default. The boolean reports whether a header value
// should be set at all.
func (d CacheControlDirective) or(fallback string) (string, bool) {
	if !d.set {
		return fallback, fallback != ""
	}
	if d.none {
		return "", false
	}
	return d.value, d.value != ""
}
