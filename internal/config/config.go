package config

import (
	"fmt"
)

// Config represents the complete configuration for the nextcv tool. It is
// loaded from configuration files, environment variables, and CLI flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// NMS defaults
	NMS NMSConfig `mapstructure:"nms" yaml:"nms" json:"nms"`

	// Image operation defaults
	Image ImageConfig `mapstructure:"image" yaml:"image" json:"image"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// NMSConfig contains Non-Maximum Suppression defaults.
type NMSConfig struct {
	// IoU cutoff above which a lower-ranked box is suppressed.
	IoUThreshold float64 `mapstructure:"iou_threshold" yaml:"iou_threshold" json:"iou_threshold"`
	// Strict makes a boxes/scores length mismatch an error instead of an
	// empty result.
	Strict bool `mapstructure:"strict" yaml:"strict" json:"strict"`

	// Soft-NMS settings
	SoftMethod      string  `mapstructure:"soft_method" yaml:"soft_method" json:"soft_method"`
	SoftSigma       float64 `mapstructure:"soft_sigma" yaml:"soft_sigma" json:"soft_sigma"`
	SoftScoreThresh float64 `mapstructure:"soft_score_thresh" yaml:"soft_score_thresh" json:"soft_score_thresh"`
}

// ImageConfig contains pixel operation defaults.
type ImageConfig struct {
	ThresholdValue int `mapstructure:"threshold_value" yaml:"threshold_value" json:"threshold_value"`
	MaxValue       int `mapstructure:"max_value" yaml:"max_value" json:"max_value"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxBodyMB       int64  `mapstructure:"max_body_mb" yaml:"max_body_mb" json:"max_body_mb"`
	TimeoutSec      int    `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		NMS: NMSConfig{
			IoUThreshold:    0.5,
			SoftMethod:      "gaussian",
			SoftSigma:       0.5,
			SoftScoreThresh: 0.001,
		},
		Image: ImageConfig{
			ThresholdValue: 127,
			MaxValue:       255,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxBodyMB:       50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (must be debug, info, warn or error)", c.LogLevel)
	}
	if err := validateUnitRange(c.NMS.IoUThreshold, "nms.iou_threshold"); err != nil {
		return err
	}
	if !contains([]string{"hard", "linear", "gaussian"}, c.NMS.SoftMethod) {
		return fmt.Errorf("invalid nms.soft_method %q (must be hard, linear or gaussian)", c.NMS.SoftMethod)
	}
	if c.NMS.SoftSigma < 0 {
		return fmt.Errorf("nms.soft_sigma must be non-negative, got %v", c.NMS.SoftSigma)
	}
	if c.Image.ThresholdValue < 0 || c.Image.ThresholdValue > 255 {
		return fmt.Errorf("image.threshold_value must be in [0,255], got %d", c.Image.ThresholdValue)
	}
	if c.Image.MaxValue < 0 || c.Image.MaxValue > 255 {
		return fmt.Errorf("image.max_value must be in [0,255], got %d", c.Image.MaxValue)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Server.MaxBodyMB < 1 {
		return fmt.Errorf("server.max_body_mb must be positive, got %d", c.Server.MaxBodyMB)
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func validateUnitRange(value float64, name string) error {
	if value < 0 || value > 1 {
		return fmt.Errorf("%s must be in [0,1], got %v", name, value)
	}
	return nil
}
