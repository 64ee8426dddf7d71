package responsetagger

import "net/http"

// setHeaderIfAbsent sets the header only when the key has no value yet.
// http.Header canonicalizes keys, so the lookup is case-insensitive.
// It reports whether the header was set.
func setHeaderIfAbsent(header http.Header, key, value string) bool {
	if header.Get(key) != "" {
		return false
	}
	header.Set(key, value)
	return true
}

// copyHeader copies all headers from one http.Header to another.
func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
