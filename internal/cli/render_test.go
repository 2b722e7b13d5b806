package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/raysh454/centinela/internal/model"
)

func TestRender(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		st   model.SessionState
		want string
	}{
		{"idle", model.SessionState{Phase: model.PhaseIdle}, ""},
		{"submitting", model.SessionState{Phase: model.PhaseSubmitting}, "Analizando...\n"},
		{"error", model.SessionState{Phase: model.PhaseError, ErrorMessage: "Por favor ingresa una URL."}, "Error: Por favor ingresa una URL.\n"},
		{
			"success",
			model.SessionState{Phase: model.PhaseSuccess, Result: &model.AnalysisResult{
				URL: "https://example.com", Title: "T", Summary: "S", Score: 0.87, Label: "malicious",
			}},
			"Resultado\nURL: https://example.com\nTítulo: T\nResumen: S\nScore: 87.0%\nClasificación: malicious\n",
		},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := Render(&buf, tt.st); err != nil {
			t.Fatalf("%s: Render: %v", tt.name, err)
		}
		if got := buf.String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatScore(t *testing.T) {
	t.Parallel()
	cases := map[float64]string{0: "0.0%", 0.42: "42.0%", 1: "100.0%", 0.123: "12.3%"}
	for in, want := range cases {
		if got := FormatScore(in); got != want {
			t.Errorf("FormatScore(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	st := model.SessionState{Phase: model.PhaseError, ErrorMessage: "fetch failed"}
	if err := RenderJSON(&buf, st); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	var back model.SessionState
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Phase != model.PhaseError || back.ErrorMessage != "fetch failed" {
		t.Errorf("unexpected %+v", back)
	}
}
