package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/raysh454/centinela/internal/model"
)

// Render writes a human-readable view of st.
func Render(w io.Writer, st model.SessionState) error {
	var err error
	switch st.Phase {
	case model.PhaseSubmitting:
		_, err = fmt.Fprintln(w, "Analizando...")
	case model.PhaseError:
		_, err = fmt.Fprintf(w, "Error: %s\n", st.ErrorMessage)
	case model.PhaseSuccess:
		if st.Result == nil {
			return nil
		}
		r := st.Result
		_, err = fmt.Fprintf(w, "Resultado\nURL: %s\nTítulo: %s\nResumen: %s\nScore: %s\nClasificación: %s\n",
			r.URL, r.Title, r.Summary, FormatScore(r.Score), r.Label)
	}
	return err
}

// RenderJSON writes st as indented JSON.
func RenderJSON(w io.Writer, st model.SessionState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

// FormatScore shows a [0,1] score as a percentage with one decimal.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}
