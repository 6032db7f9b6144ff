package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Extraction ExtractionConfig
	Batch      BatchConfig
	Archive    ArchiveConfig
}

// ExtractionConfig holds tunable thresholds for the extraction pipeline.
// The multi-shipment values are heuristics over document structure, so they
// stay configurable rather than hard-coded.
type ExtractionConfig struct {
	MinDetectionConfidence   float64
	MultiShipmentRatio       float64 // subtotal > total*ratio signals multi-shipment
	MathTolerancePct         float64 // base tolerance as a fraction of total
	MathToleranceFloor       float64 // absolute tolerance floor
	MultiShipmentWiden       float64 // tolerance multiplier for multi-shipment orders
	MultiShipmentFloorPct    float64 // widened tolerance floor as a fraction of total
	PartialUsableConfidence  float64 // overall confidence gate for partial recovery
	ExtractionBudget         time.Duration
	QuantityRoundTripEpsilon float64 // table extractor quantity correction tolerance
	MaxQuantity              int
}

// BatchConfig holds cross-document batch processing configuration.
type BatchConfig struct {
	Workers int
}

// ArchiveConfig holds the local record archive configuration.
type ArchiveConfig struct {
	DSN string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			MinDetectionConfidence:   getEnvAsFloat("MIN_DETECTION_CONFIDENCE", 0.3),
			MultiShipmentRatio:       getEnvAsFloat("MULTI_SHIPMENT_RATIO", 2.0),
			MathTolerancePct:         getEnvAsFloat("MATH_TOLERANCE_PCT", 0.01),
			MathToleranceFloor:       getEnvAsFloat("MATH_TOLERANCE_FLOOR", 0.10),
			MultiShipmentWiden:       getEnvAsFloat("MULTI_SHIPMENT_WIDEN", 3.0),
			MultiShipmentFloorPct:    getEnvAsFloat("MULTI_SHIPMENT_FLOOR_PCT", 0.05),
			PartialUsableConfidence:  getEnvAsFloat("PARTIAL_USABLE_CONFIDENCE", 0.3),
			ExtractionBudget:         getEnvAsDuration("EXTRACTION_BUDGET", 10*time.Second),
			QuantityRoundTripEpsilon: getEnvAsFloat("QTY_ROUNDTRIP_EPSILON", 0.10),
			MaxQuantity:              getEnvAsInt("MAX_QUANTITY", 100),
		},
		Batch: BatchConfig{
			Workers: getEnvAsInt("BATCH_WORKERS", 4),
		},
		Archive: ArchiveConfig{
			DSN: getEnv("ARCHIVE_DSN", "file:invoices.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Extraction.MultiShipmentRatio <= 1 {
		return NewAppError("CONFIG_ERROR", "MULTI_SHIPMENT_RATIO must be > 1", ErrInvalidInput)
	}
	if c.Batch.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "BATCH_WORKERS must be >= 1", ErrInvalidInput)
	}
	if c.Extraction.MaxQuantity < 1 {
		return NewAppError("CONFIG_ERROR", "MAX_QUANTITY must be >= 1", ErrInvalidInput)
	}
	return nil
}
