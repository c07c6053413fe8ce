package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jescuti/deepplant/internal/logger"
)

// Config carries all process configuration, sourced from the environment.
type Config struct {
	// Database Configuration
	DatabasePath string
	ImageDir     string
	OutputDir    string

	// OCR Engine Configuration
	OCREngine         string // "tesseract" or "vision"
	TesseractLanguage string
	TesseractPSM      int
	TesseractOEM      int

	// Normalizer Configuration
	LexiconPath    string // optional YAML lexicon (known names, stopwords, exclusions)
	MinTokenLength int
	DigitRunLength int
	ZipfCutoff     float64
	WordFreqTable  string // optional word-frequency table file

	// NER Configuration
	NERMode      string // "gazetteer", "http" or "openai"
	NERURL       string
	OpenAIAPIKey string

	// Matching Configuration
	MatchThreshold int

	// BDR Repository Configuration
	BDRBaseURL    string
	BDRCollection string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	config := &Config{
		DatabasePath:      getEnv("DEEPPLANT_DB", "./databases/db_labels.json"),
		ImageDir:          getEnv("DEEPPLANT_IMAGE_DIR", "./images"),
		OutputDir:         getEnv("DEEPPLANT_OUTPUT_DIR", "./output"),
		OCREngine:         getEnv("DEEPPLANT_OCR_ENGINE", "tesseract"),
		TesseractLanguage: getEnv("TESSERACT_LANG", "eng"),
		TesseractPSM:      getEnvInt("TESSERACT_PSM", 6),
		TesseractOEM:      getEnvInt("TESSERACT_OEM", 3),
		LexiconPath:       getEnv("DEEPPLANT_LEXICON", ""),
		MinTokenLength:    getEnvInt("DEEPPLANT_MIN_TOKEN_LENGTH", 4),
		DigitRunLength:    getEnvInt("DEEPPLANT_DIGIT_RUN_LENGTH", 5),
		ZipfCutoff:        getEnvFloat("DEEPPLANT_ZIPF_CUTOFF", 3.5),
		WordFreqTable:     getEnv("DEEPPLANT_WORDFREQ_TABLE", ""),
		NERMode:           getEnv("DEEPPLANT_NER_MODE", "gazetteer"),
		NERURL:            getEnv("DEEPPLANT_NER_URL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		MatchThreshold:    getEnvInt("DEEPPLANT_MATCH_THRESHOLD", 70),
		BDRBaseURL:        getEnv("BDR_BASE_URL", "https://repository.library.brown.edu"),
		BDRCollection:     getEnv("BDR_COLLECTION", "bdr:nz9qn2kb"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:     getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:         getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case "tesseract", "vision":
	default:
		return fmt.Errorf("DEEPPLANT_OCR_ENGINE must be 'tesseract' or 'vision', got %q", c.OCREngine)
	}
	switch c.NERMode {
	case "gazetteer", "http", "openai":
	default:
		return fmt.Errorf("DEEPPLANT_NER_MODE must be 'gazetteer', 'http' or 'openai', got %q", c.NERMode)
	}
	if c.NERMode == "http" && c.NERURL == "" {
		return fmt.Errorf("DEEPPLANT_NER_URL is required when DEEPPLANT_NER_MODE=http")
	}
	if c.NERMode == "openai" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when DEEPPLANT_NER_MODE=openai")
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 100 {
		return fmt.Errorf("DEEPPLANT_MATCH_THRESHOLD must be in [0,100], got %d", c.MatchThreshold)
	}
	if c.MinTokenLength < 1 {
		return fmt.Errorf("DEEPPLANT_MIN_TOKEN_LENGTH must be positive, got %d", c.MinTokenLength)
	}
	if c.DigitRunLength < 2 {
		return fmt.Errorf("DEEPPLANT_DIGIT_RUN_LENGTH must be at least 2, got %d", c.DigitRunLength)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
