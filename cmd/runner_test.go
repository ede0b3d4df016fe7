package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/pixtape/internal/auth/authtest"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/repositories"
	"github.com/desertthunder/pixtape/internal/server"
	"github.com/desertthunder/pixtape/internal/shared"
	tu "github.com/desertthunder/pixtape/internal/testing"
	"github.com/desertthunder/pixtape/internal/vision"
	"github.com/urfave/cli/v3"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func sampleAnnotation() *vision.Annotation {
	a := &vision.Annotation{
		LabelAnnotations:          []vision.LabelAnnotation{{Description: "Beach", Score: 0.9}},
		ImagePropertiesAnnotation: &vision.ImageProperties{},
		FaceAnnotations:           []vision.FaceAnnotation{{JoyLikelihood: "VERY_LIKELY"}},
	}
	c := vision.ColorInfo{Score: 0.6, PixelFraction: 0.4}
	c.Color.Red, c.Color.Green, c.Color.Blue = 30, 144, 255
	a.ImagePropertiesAnnotation.DominantColors.Colors = []vision.ColorInfo{c}
	return a
}

// run executes the CLI with args against r.
func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "pixtape", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"pixtape"}, args...))
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beach.png")
	if err := os.WriteFile(path, pngBytes, 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "pixtape.db")
	return config
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.DiscardLogger()
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			vis := &tu.MockVision{}
			llm := &tu.MockLLM{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Vision:     vis,
				LLM:        llm,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.vision != vis || runner.llm != llm {
				t.Error("expected clients to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			if runner := NewRunner(RunnerOpts{}); runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			if runner := NewRunner(RunnerOpts{}); runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			if runner := NewRunner(RunnerOpts{}); runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("test"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}
		for _, want := range []string{"serve", "setup", "analyze", "color", "sessions"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("Renders Report", func(t *testing.T) {
		output := &bytes.Buffer{}
		vis := &tu.MockVision{Annotation: sampleAnnotation()}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.DiscardLogger(), Vision: vis})

		if err := run(runner, "analyze", writeImage(t)); err != nil {
			t.Fatalf("analyze failed: %v", err)
		}

		result := output.String()
		for _, want := range []string{"Beach", "#1e90ff blue", "joy"} {
			if !strings.Contains(result, want) {
				t.Errorf("expected %q in output, got %s", want, result)
			}
		}
		if vis.Calls != 1 {
			t.Errorf("expected 1 vision call, got %d", vis.Calls)
		}
	})

	t.Run("JSON With Recommendations", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Output: output,
			Logger: shared.DiscardLogger(),
			Vision: &tu.MockVision{Annotation: sampleAnnotation()},
			LLM:    &tu.MockLLM{Recommendations: []models.Recommendation{{Title: "Sun", Artist: "Band", Mood: "warm", Reason: "bright"}}},
		})

		if err := run(runner, "analyze", "--json", "--recommend", writeImage(t)); err != nil {
			t.Fatalf("analyze failed: %v", err)
		}

		result := output.String()
		if !strings.Contains(result, `"imageId": "beach.png"`) || !strings.Contains(result, `"title": "Sun"`) {
			t.Errorf("unexpected JSON output: %s", result)
		}
	})

	t.Run("Writes Export", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "report.md")
		runner := NewRunner(RunnerOpts{
			Output: &bytes.Buffer{},
			Logger: shared.DiscardLogger(),
			Vision: &tu.MockVision{Annotation: sampleAnnotation()},
		})

		if err := run(runner, "analyze", "--output", out, writeImage(t)); err != nil {
			t.Fatalf("analyze failed: %v", err)
		}
		tu.AssertFileExists(t, out)
		if content := tu.MustReadFile(t, out); !strings.Contains(content, "| `#1e90ff` | blue |") {
			t.Errorf("unexpected markdown: %s", content)
		}
	})

	t.Run("Not An Image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		_ = os.WriteFile(path, []byte("just text"), 0644)
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.DiscardLogger(), Vision: &tu.MockVision{}})

		if err := run(runner, "analyze", path); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Missing Argument", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.DiscardLogger(), Vision: &tu.MockVision{}})

		if err := run(runner, "analyze"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Missing API Key", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t), Output: &bytes.Buffer{}, Logger: shared.DiscardLogger()})

		if err := run(runner, "analyze", writeImage(t)); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestColor(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
		err  error
	}{
		{"RGB", []string{"30", "144", "255"}, "#1e90ff blue", nil},
		{"Hex", []string{"#FF0000"}, "#ff0000 red", nil},
		{"Grayscale", []string{"10", "10", "10"}, "#0a0a0a black", nil},
		{"Out Of Range", []string{"300", "0", "0"}, "", shared.ErrInvalidInput},
		{"Bad Hex", []string{"#12"}, "", shared.ErrInvalidInput},
		{"Wrong Count", []string{"1", "2"}, "", shared.ErrMissingArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Logger: shared.DiscardLogger()})

			err := run(runner, append([]string{"color"}, tt.args...)...)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("color failed: %v", err)
			}
			if !strings.Contains(output.String(), tt.want) {
				t.Errorf("expected %q, got %q", tt.want, output.String())
			}
		})
	}
}

func TestSetup(t *testing.T) {
	t.Run("Config", func(t *testing.T) {
		output := &bytes.Buffer{}
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.DiscardLogger()})

		if err := run(runner, "setup", "config", "--config", path, "--keys"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), "hash_key = ") {
			t.Errorf("expected generated keys, got %s", output.String())
		}

		if err := run(runner, "setup", "config", "--config", path); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("Config Default Path", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, t.TempDir())
		t.Cleanup(func() { tu.MustChdir(t, wd) })

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.DiscardLogger()})
		if err := run(runner, "setup", "config"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, "config.toml")
	})

	t.Run("Database", func(t *testing.T) {
		config := testConfig(t)
		runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}, Logger: shared.DiscardLogger()})

		if err := run(runner, "setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)

		if err := run(runner, "setup", "rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
	})
}

func TestPruneSessions(t *testing.T) {
	ctx := context.Background()
	config := testConfig(t)

	db, err := shared.OpenDatabase(ctx, config.Database)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := repositories.NewSessionRepository(db).Set(ctx, "s1", authtest.Credential("alice")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	db.Close()

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.DiscardLogger()})

	if err := run(runner, "sessions", "prune", "--older-than", "1h"); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if !strings.Contains(output.String(), "Removed 0 session(s)") {
		t.Errorf("recent session should be kept, got %s", output.String())
	}

	output.Reset()
	if err := run(runner, "sessions", "prune", "--older-than", "1ns"); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if !strings.Contains(output.String(), "Removed 1 session(s)") {
		t.Errorf("expected stale session to be removed, got %s", output.String())
	}
}

func TestBuildDeps(t *testing.T) {
	ctx := context.Background()

	t.Run("Unconfigured", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
		deps, cleanup, err := runner.buildDeps(ctx, testConfig(t))
		if err != nil {
			t.Fatalf("buildDeps failed: %v", err)
		}
		defer cleanup()

		if deps.Music != nil || deps.Vision != nil || deps.LLM != nil {
			t.Error("expected upstream clients to be disabled without credentials")
		}

		router := server.NewRouter(deps)
		for path, want := range map[string]int{"/health": http.StatusOK, "/": http.StatusOK, "/static/app.js": http.StatusOK, "/auth/login": http.StatusNotFound} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != want {
				t.Errorf("GET %s: expected %d, got %d", path, want, rec.Code)
			}
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"imageId":"x"}`)))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for unknown image, got %d", rec.Code)
		}
	})

	t.Run("Configured", func(t *testing.T) {
		config := testConfig(t)
		config.Session.Backend = "sqlite"
		config.Session.HashKey = strings.Repeat("ab", 32)
		config.Session.BlockKey = strings.Repeat("cd", 16)
		config.Credentials.Spotify.ClientID = "id"
		config.Credentials.Spotify.ClientSecret = "secret"
		config.Credentials.Vision.APIKey = "vision-key"
		config.Credentials.LLM.APIKey = "llm-key"

		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
		deps, cleanup, err := runner.buildDeps(ctx, config)
		if err != nil {
			t.Fatalf("buildDeps failed: %v", err)
		}
		defer cleanup()

		if deps.Music == nil || deps.Vision == nil || deps.LLM == nil {
			t.Error("expected upstream clients to be configured")
		}
		if deps.Tracks == nil {
			t.Error("expected sqlite track cache")
		}

		rec := httptest.NewRecorder()
		server.NewRouter(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
		if rec.Code != http.StatusFound {
			t.Errorf("expected redirect to provider, got %d", rec.Code)
		}
	})

	t.Run("Invalid Backend", func(t *testing.T) {
		config := testConfig(t)
		config.Session.Backend = "redis"

		_, _, err := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()}).buildDeps(ctx, config)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Invalid Keys", func(t *testing.T) {
		config := testConfig(t)
		config.Session.HashKey = "not-hex"

		_, cleanup, err := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()}).buildDeps(ctx, config)
		if cleanup != nil {
			cleanup()
		}
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
