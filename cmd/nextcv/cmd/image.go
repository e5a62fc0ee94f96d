package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextcv/nextcv/internal/imageops"
)

// invertCmd represents the invert command.
var invertCmd = &cobra.Command{
	Use:   "invert <image>",
	Short: "Invert a grayscale image",
	Long: `Load an image, convert it to 8-bit grayscale, invert every pixel
(p -> 255-p) and write the result.

Supported formats: JPEG, PNG, BMP, TIFF, GIF

Examples:
  nextcv invert photo.png --output negative.png`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile == "" {
			return errors.New("no output file provided (use --output)")
		}

		pixels, size, err := imageops.LoadGray(args[0])
		if err != nil {
			return err
		}

		inverted := imageops.Invert(pixels)
		if err := imageops.SaveGray(outputFile, inverted, size); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", outputFile, size.Width, size.Height)
		return nil
	},
}

// thresholdCmd represents the threshold command.
var thresholdCmd = &cobra.Command{
	Use:   "threshold <image>",
	Short: "Apply a binary threshold to a grayscale image",
	Long: `Load an image, convert it to 8-bit grayscale and binarize it: pixels
strictly above the threshold value become the max value, everything else
becomes 0.

Examples:
  nextcv threshold scan.png --output binary.png
  nextcv threshold scan.png --value 90 --max-value 1 --output mask.png`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile == "" {
			return errors.New("no output file provided (use --output)")
		}

		value := cfg.Image.ThresholdValue
		if cmd.Flags().Changed("value") {
			value, _ = cmd.Flags().GetInt("value")
		}
		maxValue := cfg.Image.MaxValue
		if cmd.Flags().Changed("max-value") {
			maxValue, _ = cmd.Flags().GetInt("max-value")
		}
		if value < 0 || value > 255 {
			return fmt.Errorf("invalid threshold value: %d (must be between 0 and 255)", value)
		}
		if maxValue < 0 || maxValue > 255 {
			return fmt.Errorf("invalid max value: %d (must be between 0 and 255)", maxValue)
		}

		pixels, size, err := imageops.LoadGray(args[0])
		if err != nil {
			return err
		}

		binary := imageops.Threshold(pixels, uint8(value), uint8(maxValue))
		if err := imageops.SaveGray(outputFile, binary, size); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", outputFile, size.Width, size.Height)
		return nil
	},
}

// resizeCmd represents the resize command.
var resizeCmd = &cobra.Command{
	Use:   "resize <image>",
	Short: "Resize a grayscale image",
	Long: `Load an image, convert it to 8-bit grayscale and resample it to the
given dimensions.

Examples:
  nextcv resize photo.png --width 320 --height 240 --output small.png
  nextcv resize photo.png --width 64 --height 64 --method nearest --output thumb.png`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile == "" {
			return errors.New("no output file provided (use --output)")
		}
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")
		method, _ := cmd.Flags().GetString("method")

		pixels, size, err := imageops.LoadGray(args[0])
		if err != nil {
			return err
		}

		target := imageops.Size{Width: width, Height: height}
		resized, err := imageops.ResizeGray(pixels, size, target, method)
		if err != nil {
			return err
		}
		if err := imageops.SaveGray(outputFile, resized, target); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", outputFile, target.Width, target.Height)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(invertCmd)
	invertCmd.Flags().StringP("output", "o", "", "output image path")

	rootCmd.AddCommand(thresholdCmd)
	thresholdCmd.Flags().Int("value", 127, "threshold value (0-255)")
	thresholdCmd.Flags().Int("max-value", 255, "value assigned to pixels above the threshold")
	thresholdCmd.Flags().StringP("output", "o", "", "output image path")

	rootCmd.AddCommand(resizeCmd)
	resizeCmd.Flags().Int("width", 0, "target width in pixels")
	resizeCmd.Flags().Int("height", 0, "target height in pixels")
	resizeCmd.Flags().String("method", "bilinear", "resample filter (nearest, bilinear)")
	resizeCmd.Flags().StringP("output", "o", "", "output image path")
}
