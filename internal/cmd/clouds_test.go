package cmd

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestPickSchemaStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		json      bool
		raw       bool
		annotated bool
		want      string
		wantErr   bool
	}{
		{name: "default is annotated", want: "annotated"},
		{name: "json", json: true, want: "json"},
		{name: "raw", raw: true, want: "raw"},
		{name: "explicit annotated", annotated: true, want: "annotated"},
		{name: "json and raw conflict", json: true, raw: true, wantErr: true},
		{name: "raw and annotated conflict", raw: true, annotated: true, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := pickSchemaStyle(tt.json, tt.raw, tt.annotated)
			if tt.wantErr {
				if err == nil {
					t.Fatal("pickSchemaStyle() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("pickSchemaStyle() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("pickSchemaStyle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripSchemaAnnotations(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"utctime": {"type": "string", "description": "RFC3339 timestamp", "example": "now"},
		"cloud_image_name": {"type": "string", "description": "image to test"}
	}`)

	stripped := stripSchemaAnnotations(body)
	parsed := gjson.ParseBytes(stripped)

	if parsed.Get("utctime.description").Exists() {
		t.Error("description survived stripping")
	}
	if parsed.Get("utctime.example").Exists() {
		t.Error("example survived stripping")
	}
	if got := parsed.Get("utctime.type").String(); got != "string" {
		t.Errorf("utctime.type = %q, want structure preserved", got)
	}
	if got := parsed.Get("cloud_image_name.type").String(); got != "string" {
		t.Errorf("cloud_image_name.type = %q, want structure preserved", got)
	}
}

func TestParseJobID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid uuid", id: "df4b5803-b7a8-4db6-9b76-2e699142f2bb"},
		{name: "not a uuid", id: "job-42", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagJobID = tt.id
			got, err := parseJobID()
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseJobID() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseJobID() error = %v", err)
			}
			if got != tt.id {
				t.Errorf("parseJobID() = %q, want %q", got, tt.id)
			}
		})
	}
}
