package responsetagger

import (
	"io"
	"os"
	"strings"
	"testing"
)

func TestReplayBodyClosesOriginalOnce(t *testing.T) {
	original := &trackCloser{Reader: strings.NewReader("original")}
	replay := newReplayBody([]byte("original"), original)

	if body, err := io.ReadAll(replay); err != nil || string(body) != "original" {
		t.Fatalf("Body is %s", body)
	}
	if original.closes != 0 {
		t.Fatalf("Original closed %d times before replay close", original.closes)
	}

	if err := replay.Close(); err != nil {
		t.Fatal(err)
	}
	if err := replay.Close(); err != nil {
		t.Fatal(err)
	}
	if original.closes != 1 {
		t.Fatalf("Original closed %d times", original.closes)
	}
}

func TestZeroCopyDetection(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "body")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	if !isZeroCopy(file) {
		t.Fatal("File body not detected as zero-copy")
	}
	if !isZeroCopy(sendfileBody{io.NopCloser(strings.NewReader(""))}) {
		t.Fatal("Sendfile body not detected as zero-copy")
	}
	if isZeroCopy(io.NopCloser(strings.NewReader("plain"))) {
		t.Fatal("Plain body detected as zero-copy")
	}
}
