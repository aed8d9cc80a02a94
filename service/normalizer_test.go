package service

import (
	"reflect"
	"strings"
	"testing"

	"github.com/OmarAdel911/introtosoftwareapp-sub001/config"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/model"
)

func newTestNormalizer() *SubmissionNormalizer {
	return NewSubmissionNormalizer(&config.AssetConfig{
		Host:            "assets.test",
		FallbackVersion: "v1",
	})
}

func TestNormalizeNil(t *testing.T) {
	n := newTestNormalizer()

	if got := n.Normalize(nil); got != nil {
		t.Errorf("Expected nil for nil input, got %+v", got)
	}
	if got := n.Normalize(""); got != nil {
		t.Errorf("Expected nil for empty string, got %+v", got)
	}
	var sub *model.Submission
	if got := n.Normalize(sub); got != nil {
		t.Errorf("Expected nil for typed nil submission, got %+v", got)
	}
}

func TestNormalizeBareURL(t *testing.T) {
	n := newTestNormalizer()

	got := n.Normalize("https://example.com/f.pdf")
	want := &model.Submission{Description: "Submitted work", FileURL: "https://example.com/f.pdf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	// Plain http counts too.
	got = n.Normalize("http://cdn.example.com/work.zip")
	if got == nil || got.FileURL != "http://cdn.example.com/work.zip" {
		t.Errorf("Expected bare http URL to pass through, got %+v", got)
	}
}

func TestNormalizeUnparseableString(t *testing.T) {
	n := newTestNormalizer()

	if got := n.Normalize("not json and not http"); got != nil {
		t.Errorf("Expected nil for garbage string, got %+v", got)
	}
}

func TestNormalizeJSONString(t *testing.T) {
	n := newTestNormalizer()

	got := n.Normalize(`{"description":"d","fileUrl":{"secure_url":"https://cdn/x.png"}}`)
	want := &model.Submission{Description: "d", FileURL: "https://cdn/x.png"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestNormalizeAssetDescriptors(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		raw  any
		want string
	}{
		{
			name: "url field wins",
			raw:  map[string]any{"fileUrl": map[string]any{"url": "https://cdn/a.pdf", "secure_url": "https://cdn/b.pdf"}},
			want: "https://cdn/a.pdf",
		},
		{
			name: "secure_url",
			raw:  map[string]any{"fileUrl": map[string]any{"secure_url": "https://cdn/x.png"}},
			want: "https://cdn/x.png",
		},
		{
			name: "public_id with format and version",
			raw:  map[string]any{"fileUrl": map[string]any{"public_id": "abc123", "format": "pdf", "version": float64(1712345678)}},
			want: "https://assets.test/v1712345678/abc123.pdf",
		},
		{
			name: "public_id without version falls back",
			raw:  map[string]any{"fileUrl": map[string]any{"public_id": "abc123", "format": "pdf"}},
			want: "https://assets.test/v1/abc123.pdf",
		},
		{
			name: "public_id without format",
			raw:  map[string]any{"fileUrl": map[string]any{"public_id": "abc123"}},
			want: "https://assets.test/v1/abc123",
		},
		{
			name: "string version keeps v prefix",
			raw:  map[string]any{"fileUrl": map[string]any{"public_id": "abc123", "version": "v42"}},
			want: "https://assets.test/v42/abc123",
		},
		{
			name: "asset_id",
			raw:  map[string]any{"fileUrl": map[string]any{"asset_id": "asset-9", "version": "77"}},
			want: "https://assets.test/v77/asset-9",
		},
		{
			name: "salvaged url from unknown shape",
			raw:  map[string]any{"fileUrl": map[string]any{"thumbnail": 12, "download_link": "https://cdn/salvaged.zip"}},
			want: "https://cdn/salvaged.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			if got == nil {
				t.Fatal("Expected a submission, got nil")
			}
			if got.FileURL != tt.want {
				t.Errorf("Expected fileUrl '%s', got '%s'", tt.want, got.FileURL)
			}
		})
	}
}

func TestNormalizePublicIDFromJSONString(t *testing.T) {
	n := newTestNormalizer()

	got := n.Normalize(`{"fileUrl":{"public_id":"abc123","format":"pdf"}}`)
	if got == nil {
		t.Fatal("Expected a submission, got nil")
	}
	if !strings.Contains(got.FileURL, "abc123") || !strings.HasSuffix(got.FileURL, ".pdf") {
		t.Errorf("Expected fileUrl containing 'abc123' and ending in '.pdf', got '%s'", got.FileURL)
	}
}

func TestNormalizeStringifyFallback(t *testing.T) {
	n := newTestNormalizer()

	got := n.Normalize(map[string]any{"fileUrl": map[string]any{"widget": float64(3)}})
	if got == nil {
		t.Fatal("Expected a submission, got nil")
	}
	// Degenerate case: the whole object is stringified.
	if !strings.Contains(got.FileURL, "widget") {
		t.Errorf("Expected stringified object as fileUrl, got '%s'", got.FileURL)
	}
}

func TestNormalizePlainObject(t *testing.T) {
	n := newTestNormalizer()

	got := n.Normalize(map[string]any{"description": "done", "fileUrl": "https://cdn/ok.pdf"})
	want := &model.Submission{Description: "done", FileURL: "https://cdn/ok.pdf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	// fileUrl absent entirely.
	got = n.Normalize(map[string]any{"description": "text only"})
	if got == nil || got.Description != "text only" || got.FileURL != "" {
		t.Errorf("Expected description-only submission, got %+v", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := newTestNormalizer()

	inputs := []any{
		"https://example.com/f.pdf",
		`{"description":"d","fileUrl":{"secure_url":"https://cdn/x.png"}}`,
		map[string]any{"fileUrl": map[string]any{"public_id": "abc123", "format": "pdf"}},
		map[string]any{"description": "done", "fileUrl": "https://cdn/ok.pdf"},
	}

	for _, raw := range inputs {
		once := n.Normalize(raw)
		if once == nil {
			t.Fatalf("Expected non-nil normalization of %v", raw)
		}
		twice := n.Normalize(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Expected idempotent normalization for %v: %+v != %+v", raw, once, twice)
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	n := newTestNormalizer()

	inner := map[string]any{"public_id": "abc123", "format": "pdf"}
	raw := map[string]any{"description": "d", "fileUrl": inner}

	n.Normalize(raw)

	if _, ok := raw["fileUrl"].(map[string]any); !ok {
		t.Error("Expected raw fileUrl to stay a nested object")
	}
	if inner["public_id"] != "abc123" || inner["format"] != "pdf" || len(inner) != 2 {
		t.Errorf("Expected descriptor to be untouched, got %v", inner)
	}
}

func TestNormalizeUnsupportedType(t *testing.T) {
	n := newTestNormalizer()

	if got := n.Normalize(42); got != nil {
		t.Errorf("Expected nil for numeric payload, got %+v", got)
	}
}
