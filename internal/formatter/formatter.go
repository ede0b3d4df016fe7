// package formatter renders image analyses and song recommendations for the terminal and for export (Markdown, CSV,
// JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
)

// Report bundles an analysis with the songs recommended for it. Recommendations may be empty.
type Report struct {
	Analysis        *models.AnalysisResult  `json:"analysis"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// ExportToCSV converts recommendations to CSV format with columns: Title, Artist, Mood, Reason, Spotify URI
func ExportToCSV(recs []models.Recommendation) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Artist", "Mood", "Reason", "Spotify URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rec := range recs {
		if err := writer.Write([]string{rec.Title, rec.Artist, rec.Mood, rec.Reason, rec.SpotifyURI}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Report to Markdown with a color table and a numbered song list
func ExportToMarkdown(r *Report) ([]byte, error) {
	if r == nil || r.Analysis == nil {
		return nil, fmt.Errorf("%w: report has no analysis", shared.ErrInvalidInput)
	}

	var buf bytes.Buffer
	a := r.Analysis

	buf.WriteString("# Photo Analysis\n\n")
	if a.ImageID != "" {
		buf.WriteString(fmt.Sprintf("**Image**: %s\n", a.ImageID))
	}
	buf.WriteString(fmt.Sprintf("**Mood**: %s\n", moodLabel(a.DominantEmotion)))
	buf.WriteString(fmt.Sprintf("**Keywords**: %s\n\n", strings.Join(a.Keywords, ", ")))

	if len(a.Labels) > 0 {
		buf.WriteString("## Labels\n\n")
		for _, l := range a.Labels {
			buf.WriteString(fmt.Sprintf("- %s (%.0f%%)\n", l.Description, l.Score*100))
		}
		buf.WriteString("\n")
	}

	if len(a.Colors) > 0 {
		buf.WriteString("## Colors\n\n")
		buf.WriteString("| Hex | Name | Coverage |\n|---|---|---|\n")
		for i, c := range a.Colors {
			buf.WriteString(fmt.Sprintf("| `%s` | %s | %.0f%% |\n", c.Hex, colorName(a, i), c.PixelFraction*100))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Songs\n\n")
	if len(r.Recommendations) == 0 {
		buf.WriteString("_No recommendations._\n")
	}
	for i, rec := range r.Recommendations {
		link := ""
		if rec.SpotifyURI != "" {
			link = fmt.Sprintf(" [%s]", rec.SpotifyURI)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%s)%s\n   %s\n", i+1, rec.Artist, rec.Title, rec.Mood, link, rec.Reason))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Report to plain text format
func ExportToText(r *Report) ([]byte, error) {
	if r == nil || r.Analysis == nil {
		return nil, fmt.Errorf("%w: report has no analysis", shared.ErrInvalidInput)
	}

	var buf bytes.Buffer
	a := r.Analysis

	buf.WriteString(fmt.Sprintf("Mood: %s\n", moodLabel(a.DominantEmotion)))
	buf.WriteString(fmt.Sprintf("Colors: %s\n", strings.Join(a.ColorNames, ", ")))
	buf.WriteString(fmt.Sprintf("Keywords: %s\n", strings.Join(a.Keywords, ", ")))
	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(r.Recommendations)))

	for i, rec := range r.Recommendations {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, rec.Artist, rec.Title))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Report to indented JSON
func ExportToJSON(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport writes a Report to path, choosing the format from the file extension (.md, .csv, .json, anything
// else is plain text). CSV exports contain only the recommendations.
func WriteExport(r *Report, path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		data, err = ExportToMarkdown(r)
	case ".csv":
		if r == nil {
			return fmt.Errorf("%w: empty report", shared.ErrInvalidInput)
		}
		data, err = ExportToCSV(r.Recommendations)
	case ".json":
		data, err = ExportToJSON(r)
	default:
		data, err = ExportToText(r)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// Render writes a colored terminal summary of r to w.
func Render(w io.Writer, r *Report) error {
	if r == nil || r.Analysis == nil {
		return fmt.Errorf("%w: report has no analysis", shared.ErrInvalidInput)
	}

	a := r.Analysis
	var b strings.Builder

	b.WriteString(styles.title.Render("Photo Analysis"))
	b.WriteString("\n")

	b.WriteString(styles.heading.Render("Mood") + " " + moodLabel(a.DominantEmotion) + "\n")
	for i, e := range a.Emotions {
		b.WriteString(styles.help.Render(fmt.Sprintf("  face %d: joy %.2f sorrow %.2f anger %.2f surprise %.2f",
			i+1, e.Joy, e.Sorrow, e.Anger, e.Surprise)) + "\n")
	}

	if len(a.Labels) > 0 {
		b.WriteString(styles.heading.Render("Labels") + "\n")
		for _, l := range a.Labels {
			b.WriteString(fmt.Sprintf("  %s %s\n", l.Description, styles.help.Render(fmt.Sprintf("%.2f", l.Score))))
		}
	}

	if len(a.Colors) > 0 {
		b.WriteString(styles.heading.Render("Colors") + "\n")
		for i, c := range a.Colors {
			b.WriteString("  " + Swatch(c.Hex) + " " + c.Hex + " " + colorName(a, i) + "\n")
		}
	}

	b.WriteString(styles.heading.Render("Keywords") + " " + strings.Join(a.Keywords, ", ") + "\n")

	if r.Recommendations != nil {
		b.WriteString(styles.heading.Render("Songs") + "\n")
		if len(r.Recommendations) == 0 {
			b.WriteString(styles.warn.Render("  no recommendations") + "\n")
		}
		for i, rec := range r.Recommendations {
			line := fmt.Sprintf("  %2d. %s - %s", i+1, rec.Artist, rec.Title)
			if rec.SpotifyURI != "" {
				line += " " + styles.ok.Render(rec.SpotifyURI)
			}
			b.WriteString(line + "\n")
			b.WriteString(styles.help.Render("      "+rec.Reason) + "\n")
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func moodLabel(e models.Emotion) string {
	if e == "" {
		return string(models.EmotionNone)
	}
	return string(e)
}

func colorName(a *models.AnalysisResult, i int) string {
	if i < len(a.ColorNames) {
		return a.ColorNames[i]
	}
	return "unknown"
}
