package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextcv/nextcv/internal/common"
	"github.com/nextcv/nextcv/internal/linalg"
)

// matvecInput is the JSON document accepted by the matvec command.
type matvecInput struct {
	Matrix [][]float64 `json:"matrix"`
	Vector []float64   `json:"vector"`
}

// matvecOutput is the JSON document written by the matvec command.
type matvecOutput struct {
	Result []float64 `json:"result"`
}

// matvecCmd represents the matvec command.
var matvecCmd = &cobra.Command{
	Use:   "matvec [file]",
	Short: "Multiply a dense matrix by a vector",
	Long: `Compute a dense matrix-vector product.

The input is a JSON document with a "matrix" (array of equal-length rows)
and a "vector". Reads from stdin when no file is given.

Examples:
  nextcv matvec problem.json
  echo '{"matrix":[[1,2],[3,4]],"vector":[1,1]}' | nextcv matvec`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, _ := cmd.Flags().GetString("output")

		var reader io.Reader
		if len(args) == 1 {
			f, err := os.Open(args[0]) //nolint:gosec // G304: user-provided input path is expected
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer func() { _ = f.Close() }()
			reader = f
		} else {
			reader = cmd.InOrStdin()
		}

		var input matvecInput
		if err := json.NewDecoder(reader).Decode(&input); err != nil {
			return fmt.Errorf("decoding input: %w", err)
		}

		rows := len(input.Matrix)
		cols := 0
		if rows > 0 {
			cols = len(input.Matrix[0])
		}
		flat := make([]float64, 0, rows*cols)
		for i, row := range input.Matrix {
			if len(row) != cols {
				return fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), cols)
			}
			flat = append(flat, row...)
		}

		timer := common.NewNamedTimer("matvec")
		result, err := linalg.MatVecFlat(flat, rows, cols, input.Vector)
		if err != nil {
			return err
		}
		timer.Stop()
		slog.Debug("multiply finished",
			"rows", rows, "cols", cols, "duration", timer.Duration())

		data, err := json.MarshalIndent(matvecOutput{Result: result}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		return writeOutput(cmd, outputFile, append(data, '\n'))
	},
}

func init() {
	rootCmd.AddCommand(matvecCmd)
	matvecCmd.Flags().StringP("output", "o", "", "write result to file instead of stdout")
}
