package sniffx

import (
	"testing"
)

// minimal valid signatures, padded so the sniffer has something to chew on
var (
	jpegHeader = append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 16)...)
	pngHeader  = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 16)...)
	gifHeader  = append([]byte("GIF89a"), make([]byte, 16)...)
	pdfHeader  = append([]byte("%PDF-1.7"), make([]byte, 16)...)
)

func TestDetect_KnownSignatures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", jpegHeader, "image/jpeg"},
		{"png", pngHeader, "image/png"},
		{"gif", gifHeader, "image/gif"},
		{"pdf", pdfHeader, "application/pdf"},
		{"plain text", []byte("hello world"), "text/plain"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.data); got != tc.want {
				t.Fatalf("Detect() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDetect_StripsParameters(t *testing.T) {
	// text sniffing normally yields "text/plain; charset=utf-8"
	if got := Detect([]byte("just some text")); got != "text/plain" {
		t.Fatalf("expected parameters to be stripped, got %q", got)
	}
}

func TestDetect_UndetectableContent(t *testing.T) {
	// random-looking binary without any known signature
	data := []byte{0x01, 0x02, 0x03, 0xfe, 0xff, 0x00, 0x10, 0x99}
	if got := Detect(data); got != "" {
		t.Fatalf("expected empty type for undetectable content, got %q", got)
	}
	if got := Detect(nil); got != "" {
		t.Fatalf("expected empty type for empty payload, got %q", got)
	}
}

func TestMatchesPrefix(t *testing.T) {
	prefixes := []string{"image/", "application/pdf"}

	if !MatchesPrefix("image/jpeg", prefixes) {
		t.Errorf("image/jpeg must match image/ prefix")
	}
	if !MatchesPrefix("application/pdf", prefixes) {
		t.Errorf("exact type must match itself")
	}
	if MatchesPrefix("text/plain", prefixes) {
		t.Errorf("text/plain must not match")
	}
	if MatchesPrefix("image/jpeg", nil) {
		t.Errorf("empty allow-list must reject everything")
	}
	if !MatchesPrefix("IMAGE/JPEG", []string{" image/ "}) {
		t.Errorf("matching must ignore case and surrounding spaces")
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		mime     string
		declared string
		want     string
	}{
		{"image/jpeg", "photo.jpeg", ".jpg"},
		{"application/pdf", "doc", ".pdf"},
		{"", "archive.TAR", ".tar"},
		{"application/x-custom", "payload.bin", ".bin"},
		{"", "noext", ""},
	}
	for _, tc := range tests {
		if got := Extension(tc.mime, tc.declared); got != tc.want {
			t.Errorf("Extension(%q, %q) = %q, want %q", tc.mime, tc.declared, got, tc.want)
		}
	}
}
