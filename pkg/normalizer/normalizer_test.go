package normalizer

import (
	"bytes"
	"testing"
)

func TestDefaultRulesBlankVolatileValues(t *testing.T) {
	rules := Default()
	assertNormalized := func(input, expected string) {
		t.Helper()
		if got := string(rules.Apply([]byte(input))); got != expected {
			t.Fatalf("Normalized to %s", got)
		}
	}

	assertNormalized(
		`<meta name="csrf-token" content="abc123">`,
		`<meta name="csrf-token" content="">`)
	assertNormalized(
		`<meta content="abc123" name="csrf-token">`,
		`<meta content="" name="csrf-token">`)
	assertNormalized(
		`<input type="hidden" name="authenticity_token" value="tok">`,
		`<input type="hidden" name="authenticity_token" value="">`)
	assertNormalized(
		`<input value="tok" type="hidden" name="authenticity_token">`,
		`<input value="" type="hidden" name="authenticity_token">`)
	assertNormalized(
		`<meta name="csp-nonce" content="xyz">`,
		`<meta name="csp-nonce" content="">`)
	assertNormalized(
		`<script nonce="xyz">alert(1)</script>`,
		`<script nonce="">alert(1)</script>`)
}

func TestNormalizationStable(t *testing.T) {
	page := func(token string) []byte {
		return []byte(`<html><head><meta name="csrf-token" content="` + token + `"></head></html>`)
	}
	rules := Default()

	if !bytes.Equal(rules.Apply(page("one")), rules.Apply(page("two"))) {
		t.Fatal("Pages differing only in token did not normalize identically")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	input := []byte(`<meta name="csrf-token" content="abc">`)
	original := string(input)

	Default().Apply(input)

	if string(input) != original {
		t.Fatalf("Input mutated to %s", input)
	}
}

func TestParse(t *testing.T) {
	rules, err := Parse([]Rule{
		{Name: "build-id", Pattern: `(data-build=")[^"]*(")`, Replace: `${1}${2}`},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(rules.Apply([]byte(`<body data-build="f00">`))); got != `<body data-build="">` {
		t.Fatalf("Normalized to %s", got)
	}

	if _, err := Parse([]Rule{{Name: "broken", Pattern: `(`}}); err == nil {
		t.Fatal("Expected compile error")
	}
}

func TestIsText(t *testing.T) {
	if !IsText("text/html; charset=utf-8", nil) {
		t.Fatal("text/html not text")
	}
	if !IsText("application/xhtml+xml", nil) {
		t.Fatal("xhtml not text")
	}
	if IsText("image/png", nil) {
		t.Fatal("png is text")
	}
	if IsText("application/octet-stream", nil) {
		t.Fatal("octet-stream is text")
	}
	// no Content-Type: sniff the body
	if !IsText("", []byte("<html><body>hello</body></html>")) {
		t.Fatal("sniffed html not text")
	}
	if IsText("", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}) {
		t.Fatal("sniffed png is text")
	}
}
