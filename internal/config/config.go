package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"bgs-preprocess/internal/textindex"
)

const (
	// ExtractorFitz extracts PDF pages in-process with MuPDF.
	ExtractorFitz = "fitz"
	// ExtractorPDFToText shells out to poppler's pdftotext.
	ExtractorPDFToText = "pdftotext"
)

// Config holds all configuration for a preprocessing run.
type Config struct {
	SourcePath       string
	OutputDir        string
	ChunksFile       string
	IndexFile        string
	ChunkSize        int
	Overlap          int
	PDFExtractor     string
	DBPath           string
	BleveIndexPath   string
	QdrantURL        string
	QdrantCollection string
	LogLevel         slog.Level
	LogFormat        string
}

// fileConfig mirrors Config for the optional TOML file named by PREPROCESS_CONFIG.
type fileConfig struct {
	SourcePath       string `toml:"source_path"`
	OutputDir        string `toml:"output_dir"`
	ChunksFile       string `toml:"chunks_file"`
	IndexFile        string `toml:"index_file"`
	ChunkSize        int    `toml:"chunk_size"`
	Overlap          *int   `toml:"overlap"`
	PDFExtractor     string `toml:"pdf_extractor"`
	DBPath           string `toml:"db_path"`
	BleveIndexPath   string `toml:"bleve_index_path"`
	QdrantURL        string `toml:"qdrant_url"`
	QdrantCollection string `toml:"qdrant_collection"`
	LogLevel         string `toml:"log_level"`
	LogFormat        string `toml:"log_format"`
}

// Default returns the built-in configuration: the BGS guide under ./data,
// 900-character windows with a 150-character overlap, no optional mirrors.
func Default() *Config {
	return &Config{
		SourcePath:       "data/bgsguide.pdf",
		OutputDir:        "data",
		ChunksFile:       "bgs_chunks.json",
		IndexFile:        "bgs_index.json",
		ChunkSize:        900,
		Overlap:          150,
		PDFExtractor:     ExtractorFitz,
		QdrantCollection: "bgs_chunks",
		LogLevel:         slog.LevelWarn,
		LogFormat:        "text",
	}
}

// ChunksPath is the full path of the chunk store file.
func (c *Config) ChunksPath() string {
	return filepath.Join(c.OutputDir, c.ChunksFile)
}

// IndexPath is the full path of the index store file.
func (c *Config) IndexPath() string {
	return filepath.Join(c.OutputDir, c.IndexFile)
}

// Load reads configuration from environment variables and returns a Config struct.
// Precedence, lowest first: built-in defaults, the TOML file named by
// PREPROCESS_CONFIG, .env files, the process environment.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	// Walk up a few levels looking for a project-level .env
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := Default()

	if path := os.Getenv("PREPROCESS_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.SourcePath = getEnv("SOURCE_PATH", cfg.SourcePath)
	cfg.OutputDir = getEnv("OUTPUT_DIR", cfg.OutputDir)
	cfg.ChunksFile = getEnv("CHUNKS_FILE", cfg.ChunksFile)
	cfg.IndexFile = getEnv("INDEX_FILE", cfg.IndexFile)
	cfg.PDFExtractor = strings.ToLower(getEnv("PDF_EXTRACTOR", cfg.PDFExtractor))
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.BleveIndexPath = getEnv("BLEVE_INDEX_PATH", cfg.BleveIndexPath)
	cfg.QdrantURL = getEnv("QDRANT_URL", cfg.QdrantURL)
	cfg.QdrantCollection = getEnv("QDRANT_COLLECTION", cfg.QdrantCollection)
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))

	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", cfg.ChunkSize); err != nil {
		return nil, err
	}
	if cfg.Overlap, err = getEnvInt("CHUNK_OVERLAP", cfg.Overlap); err != nil {
		return nil, err
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, invalid("LOG_LEVEL", fmt.Sprintf("unknown level %q", level))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// SQLite will not create missing parent directories on its own
	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks the window parameters and enumerated settings.
func (c *Config) Validate() error {
	if c.SourcePath == "" {
		return invalid("SOURCE_PATH", "is required")
	}
	if c.OutputDir == "" {
		return invalid("OUTPUT_DIR", "is required")
	}
	if c.ChunksFile == "" {
		return invalid("CHUNKS_FILE", "is required")
	}
	if c.IndexFile == "" {
		return invalid("INDEX_FILE", "is required")
	}
	if c.ChunkSize <= 0 {
		return invalid("CHUNK_SIZE", "must be greater than 0")
	}
	if c.Overlap < 0 {
		return invalid("CHUNK_OVERLAP", "must not be negative")
	}
	// An overlap as wide as the window would never advance
	if c.Overlap >= c.ChunkSize {
		return invalid("CHUNK_OVERLAP", fmt.Sprintf("must be less than CHUNK_SIZE (%d)", c.ChunkSize))
	}
	switch c.PDFExtractor {
	case ExtractorFitz, ExtractorPDFToText:
	default:
		return invalid("PDF_EXTRACTOR", fmt.Sprintf("unknown extractor %q", c.PDFExtractor))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return invalid("LOG_FORMAT", fmt.Sprintf("unknown format %q", c.LogFormat))
	}
	if c.QdrantURL != "" && c.QdrantCollection == "" {
		return invalid("QDRANT_COLLECTION", "is required when QDRANT_URL is set")
	}
	// The text index directory is wiped on every run
	if c.BleveIndexPath != "" {
		err := textindex.CheckPath(c.BleveIndexPath, c.OutputDir, c.ChunksPath(), c.IndexPath(), c.SourcePath, c.DBPath)
		if err != nil {
			return invalid("BLEVE_INDEX_PATH", err.Error())
		}
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.SourcePath, fc.SourcePath)
	setString(&c.OutputDir, fc.OutputDir)
	setString(&c.ChunksFile, fc.ChunksFile)
	setString(&c.IndexFile, fc.IndexFile)
	setString(&c.PDFExtractor, strings.ToLower(fc.PDFExtractor))
	setString(&c.DBPath, fc.DBPath)
	setString(&c.BleveIndexPath, fc.BleveIndexPath)
	setString(&c.QdrantURL, fc.QdrantURL)
	setString(&c.QdrantCollection, fc.QdrantCollection)
	setString(&c.LogFormat, strings.ToLower(fc.LogFormat))
	if fc.ChunkSize != 0 {
		c.ChunkSize = fc.ChunkSize
	}
	if fc.Overlap != nil {
		c.Overlap = *fc.Overlap
	}
	if fc.LogLevel != "" {
		if err := c.LogLevel.UnmarshalText([]byte(fc.LogLevel)); err != nil {
			return invalid("log_level", fmt.Sprintf("unknown level %q", fc.LogLevel))
		}
	}
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, invalid(key, "must be a valid integer")
	}
	return n, nil
}
