package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextcv/nextcv/internal/common"
	"github.com/nextcv/nextcv/internal/geometry"
	"github.com/nextcv/nextcv/internal/postprocess"
)

// nmsInput is the JSON document accepted by the nms command.
type nmsInput struct {
	Boxes  [][]float32 `json:"boxes"`
	Scores []float32   `json:"scores"`
}

// nmsOutput is the JSON document written by the nms command.
type nmsOutput struct {
	Keep  []int `json:"keep"`
	Count int   `json:"count"`
}

// softNMSOutput is the JSON document written by the nms command in soft
// mode: surviving detections with their decayed scores.
type softNMSOutput struct {
	Detections []postprocess.Detection `json:"detections"`
	Count      int                     `json:"count"`
}

// nmsCmd represents the nms command.
var nmsCmd = &cobra.Command{
	Use:   "nms [file]",
	Short: "Run Non-Maximum Suppression over scored bounding boxes",
	Long: `Filter overlapping bounding boxes with greedy Non-Maximum Suppression.

The input is a JSON document with parallel "boxes" and "scores" arrays,
each box being [x1, y1, x2, y2]. Reads from stdin when no file is given.
The output lists the kept input indices in descending-score order.

Examples:
  nextcv nms detections.json
  nextcv nms detections.json --iou-threshold 0.3
  nextcv nms detections.json --soft --soft-method linear
  cat detections.json | nextcv nms --strict`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		threshold := float32(cfg.NMS.IoUThreshold)
		if cmd.Flags().Changed("iou-threshold") {
			v, _ := cmd.Flags().GetFloat32("iou-threshold")
			threshold = v
		}
		strict := cfg.NMS.Strict
		if cmd.Flags().Changed("strict") {
			strict, _ = cmd.Flags().GetBool("strict")
		}
		indicesOnly, _ := cmd.Flags().GetBool("indices")
		outputFile, _ := cmd.Flags().GetString("output")

		input, err := readNMSInput(cmd, args)
		if err != nil {
			return err
		}

		boxes := make([]geometry.Box, 0, len(input.Boxes))
		for i, b := range input.Boxes {
			if len(b) != 4 {
				return fmt.Errorf("box %d has %d coordinates, want 4", i, len(b))
			}
			boxes = append(boxes, geometry.Box{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]})
		}

		if soft, _ := cmd.Flags().GetBool("soft"); soft {
			return runSoftNMS(cmd, boxes, input.Scores, threshold, outputFile)
		}

		timer := common.NewNamedTimer("nms")
		var keep []int
		if strict {
			keep, err = postprocess.NonMaxSuppressionStrict(boxes, input.Scores, threshold)
			if err != nil {
				return err
			}
		} else {
			keep = postprocess.NonMaxSuppression(boxes, input.Scores, threshold)
		}
		timer.Stop()
		slog.Debug("suppression finished",
			"boxes", len(boxes), "kept", len(keep), "duration", timer.Duration())

		var rendered string
		if indicesOnly {
			parts := make([]string, len(keep))
			for i, idx := range keep {
				parts[i] = fmt.Sprintf("%d", idx)
			}
			rendered = strings.Join(parts, " ") + "\n"
		} else {
			data, err := json.MarshalIndent(nmsOutput{Keep: keep, Count: len(keep)}, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
			rendered = string(data) + "\n"
		}

		return writeOutput(cmd, outputFile, []byte(rendered))
	},
}

// runSoftNMS applies Soft-NMS score decay and writes the surviving
// detections. Flag values override the configured defaults.
func runSoftNMS(cmd *cobra.Command, boxes []geometry.Box, scores []float32, threshold float32, outputFile string) error {
	cfg := GetConfig()

	if len(boxes) != len(scores) {
		return fmt.Errorf("%w: %d boxes, %d scores", postprocess.ErrLengthMismatch, len(boxes), len(scores))
	}

	method := cfg.NMS.SoftMethod
	if cmd.Flags().Changed("soft-method") {
		method, _ = cmd.Flags().GetString("soft-method")
	}
	switch method {
	case postprocess.SoftNMSHard, postprocess.SoftNMSLinear, postprocess.SoftNMSGaussian:
	default:
		return fmt.Errorf("invalid soft method %q (must be hard, linear or gaussian)", method)
	}
	sigma := float32(cfg.NMS.SoftSigma)
	if cmd.Flags().Changed("soft-sigma") {
		sigma, _ = cmd.Flags().GetFloat32("soft-sigma")
	}
	scoreThresh := float32(cfg.NMS.SoftScoreThresh)
	if cmd.Flags().Changed("soft-score-thresh") {
		scoreThresh, _ = cmd.Flags().GetFloat32("soft-score-thresh")
	}

	dets := make([]postprocess.Detection, len(boxes))
	for i := range boxes {
		dets[i] = postprocess.Detection{Box: boxes[i], Score: scores[i]}
	}

	timer := common.NewNamedTimer("soft-nms")
	kept := postprocess.SoftNonMaxSuppression(dets, method, threshold, sigma, scoreThresh)
	if kept == nil {
		kept = []postprocess.Detection{}
	}
	timer.Stop()
	slog.Debug("soft suppression finished",
		"method", method, "boxes", len(boxes), "kept", len(kept), "duration", timer.Duration())

	data, err := json.MarshalIndent(softNMSOutput{Detections: kept, Count: len(kept)}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return writeOutput(cmd, outputFile, append(data, '\n'))
}

// readNMSInput decodes the input document from a file argument or stdin.
func readNMSInput(cmd *cobra.Command, args []string) (*nmsInput, error) {
	var reader io.Reader
	if len(args) == 1 {
		f, err := os.Open(args[0]) //nolint:gosec // G304: user-provided input path is expected
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	} else {
		reader = cmd.InOrStdin()
	}

	var input nmsInput
	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}
	return &input, nil
}

// writeOutput writes rendered output to a file or the command stdout.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(nmsCmd)
	nmsCmd.Flags().Float32("iou-threshold", 0.5, "IoU cutoff above which lower-scored boxes are suppressed")
	nmsCmd.Flags().Bool("strict", false, "fail on boxes/scores length mismatch instead of returning an empty result")
	nmsCmd.Flags().Bool("indices", false, "print kept indices as a plain space-separated list")
	nmsCmd.Flags().Bool("soft", false, "use Soft-NMS score decay instead of hard suppression")
	nmsCmd.Flags().String("soft-method", "gaussian", "Soft-NMS decay method (hard, linear, gaussian)")
	nmsCmd.Flags().Float32("soft-sigma", 0.5, "gaussian decay sigma for Soft-NMS")
	nmsCmd.Flags().Float32("soft-score-thresh", 0.001, "minimum decayed score to keep a detection")
	nmsCmd.Flags().StringP("output", "o", "", "write result to file instead of stdout")
}
