package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/pixtape/internal/formatter"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/desertthunder/pixtape/internal/vision"
	"github.com/urfave/cli/v3"
)

// Analyze runs the vision pipeline on a local image and prints the result.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("image")
	if path == "" {
		return fmt.Errorf("%w: image path", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: %s is %s, not an image", shared.ErrInvalidInput, path, ct)
	}

	client, err := r.visionClient(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("annotating image", "path", path, "bytes", len(data))
	annotation, err := client.Annotate(ctx, data)
	if err != nil {
		return fmt.Errorf("vision request failed: %w", err)
	}

	report := &formatter.Report{Analysis: vision.BuildAnalysis(filepath.Base(path), annotation, time.Now())}

	if cmd.Bool("recommend") {
		llm, err := r.llmClient(cmd)
		if err != nil {
			return err
		}
		recs, err := llm.Recommend(ctx, report.Analysis)
		if err != nil {
			return fmt.Errorf("recommendation request failed: %w", err)
		}
		if recs == nil {
			recs = []models.Recommendation{}
		}
		report.Recommendations = recs
	}

	if out := cmd.String("output"); out != "" {
		if err := formatter.WriteExport(report, out); err != nil {
			return err
		}
		r.logger.Info("report written", "path", out)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}
	return formatter.Render(r.output, report)
}

// Color names an RGB triple or hex color.
func (r *Runner) Color(ctx context.Context, cmd *cli.Command) error {
	rgb, err := parseColorArgs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	hex := vision.HexFromRGB(rgb[0], rgb[1], rgb[2])
	name := vision.ClassifyColor(rgb[0], rgb[1], rgb[2])
	h, s, b := vision.HSB(rgb[0], rgb[1], rgb[2])

	return r.writePlain("%s %s %s (h=%.0f s=%.2f b=%.2f)\n", formatter.Swatch(hex), hex, name, h, s, b)
}

func parseColorArgs(args []string) ([3]float64, error) {
	var rgb [3]float64

	switch len(args) {
	case 1:
		red, green, blue, err := vision.ParseHex(args[0])
		if err != nil {
			return rgb, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		return [3]float64{float64(red), float64(green), float64(blue)}, nil
	case 3:
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil || v < 0 || v > 255 {
				return rgb, fmt.Errorf("%w: channel %q must be a number between 0 and 255", shared.ErrInvalidInput, a)
			}
			rgb[i] = v
		}
		return rgb, nil
	default:
		return rgb, fmt.Errorf("%w: expected <r> <g> <b> or <#rrggbb>", shared.ErrMissingArgument)
	}
}
