package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
	th "github.com/desertthunder/pixtape/internal/testing"
)

func sampleReport() *Report {
	return &Report{
		Analysis: &models.AnalysisResult{
			ImageID:         "img-1",
			Labels:          []models.Label{{Description: "Beach", Score: 0.93}, {Description: "Sky", Score: 0.81}},
			Colors:          []models.Color{{Red: 30, Green: 144, Blue: 255, PixelFraction: 0.42, Hex: "#1e90ff"}},
			ColorNames:      []string{"blue"},
			Emotions:        []models.EmotionVector{{Joy: 1}},
			DominantEmotion: models.EmotionJoy,
			Keywords:        []string{"Beach", "Sky", "blue", "happy"},
		},
		Recommendations: []models.Recommendation{
			{Title: "Here Comes the Sun", Artist: "The Beatles", Mood: "hopeful", Reason: "Sunny", SpotifyURI: "spotify:track:t1"},
			{Title: "Surfin' U.S.A.", Artist: "The Beach Boys", Mood: "upbeat", Reason: "Beach, obviously"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleReport().Recommendations)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Title,Artist,Mood,Reason,Spotify URI") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Here Comes the Sun,The Beatles,hopeful,Sunny,spotify:track:t1") {
			t.Errorf("CSV missing first song, got: %s", output)
		}
		if !strings.Contains(output, `"Beach, obviously"`) {
			t.Errorf("CSV should quote fields with commas, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleReport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Photo Analysis",
			"**Image**: img-1",
			"**Mood**: joy",
			"**Keywords**: Beach, Sky, blue, happy",
			"- Beach (93%)",
			"| `#1e90ff` | blue | 42% |",
			"1. The Beatles - Here Comes the Sun (hopeful) [spotify:track:t1]",
			"2. The Beach Boys - Surfin' U.S.A. (upbeat)\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown Without Songs", func(t *testing.T) {
		r := sampleReport()
		r.Recommendations = nil

		data, err := ExportToMarkdown(r)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.Contains(string(data), "_No recommendations._") {
			t.Errorf("expected empty marker, got: %s", data)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleReport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Mood: joy") {
			t.Errorf("Text missing mood")
		}
		if !strings.Contains(output, "Songs: 2") {
			t.Errorf("Text missing song count")
		}
		if !strings.Contains(output, "1. The Beatles - Here Comes the Sun") {
			t.Errorf("Text missing first song")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleReport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{`"imageId": "img-1"`, `"hex": "#1e90ff"`, `"dominantEmotion": "joy"`, `"spotifyUri": "spotify:track:t1"`} {
			if !strings.Contains(output, want) {
				t.Errorf("JSON missing %s", want)
			}
		}
	})

	t.Run("Missing Analysis", func(t *testing.T) {
		if _, err := ExportToMarkdown(&Report{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := ExportToText(nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"Markdown", "report.md", "# Photo Analysis"},
		{"CSV", "songs.csv", "Title,Artist"},
		{"JSON", "report.json", `"analysis"`},
		{"Text", "report.txt", "Mood: joy"},
		{"Nested Directory", "out/nested/report.md", "## Songs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := WriteExport(sampleReport(), path); err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}

			th.AssertFileExists(t, path)
			if content := th.MustReadFile(t, path); !strings.Contains(content, tt.want) {
				t.Errorf("expected %q in %s, got: %s", tt.want, tt.file, content)
			}
		})
	}

	t.Run("Invalid Report", func(t *testing.T) {
		if err := WriteExport(nil, filepath.Join(t.TempDir(), "x.csv")); err == nil {
			t.Error("expected error for nil report")
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("Full Report", func(t *testing.T) {
		var b strings.Builder
		if err := Render(&b, sampleReport()); err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		output := b.String()
		for _, want := range []string{"Photo Analysis", "joy", "Beach", "#1e90ff blue", "The Beatles - Here Comes the Sun", "spotify:track:t1"} {
			if !strings.Contains(output, want) {
				t.Errorf("render missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("Analysis Only", func(t *testing.T) {
		r := sampleReport()
		r.Recommendations = nil

		var b strings.Builder
		if err := Render(&b, r); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if strings.Contains(b.String(), "Songs") {
			t.Error("songs section should be omitted when no recommendations were requested")
		}
	})

	t.Run("Empty Recommendations", func(t *testing.T) {
		r := sampleReport()
		r.Recommendations = []models.Recommendation{}

		var b strings.Builder
		_ = Render(&b, r)
		if !strings.Contains(b.String(), "no recommendations") {
			t.Errorf("expected empty marker, got: %s", b.String())
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		if err := Render(&th.FWriter{}, sampleReport()); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("Swatch", func(t *testing.T) {
		if w := lipgloss.Width(Swatch("#1e90ff")); w != 4 {
			t.Errorf("expected swatch width 4, got %d", w)
		}
	})
}
