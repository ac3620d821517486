package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every tunable of the ingestion pipeline. The historical
// fast / OCR / limited / continuous run modes are all this one struct with
// different values.
type Config struct {
	DatabaseURL string
	AIAPIKey    string
	EmbedModel  string

	CorpusRoot string
	TempDir    string
	NamesFile  string

	OCREnabled     bool
	OCRDPI         int
	OCRLanguage    string
	OCRTimeoutSecs int

	Workers        int
	MaxDocs        int
	EmbedBatchSize int

	ChunkSize     int
	ChunkOverlap  int
	MinChunkChars int

	MinTextLength int
	MinWordRatio  float64
	MinAlphaRatio float64

	MentionCap    int
	MaxContentLen int
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		AIAPIKey:    getEnv("GEMINI_API_KEY", ""),
		EmbedModel:  getEnv("EMBED_MODEL", "text-embedding-004"),

		CorpusRoot: getEnv("CORPUS_ROOT", defaultCorpusRoot()),
		TempDir:    getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "docvault-ocr")),
		NamesFile:  getEnv("NAMES_FILE", ""),

		OCREnabled:     getEnvBool("OCR_ENABLED", true),
		OCRDPI:         getEnvInt("OCR_DPI", 300),
		OCRLanguage:    getEnv("OCR_LANGUAGE", "eng"),
		OCRTimeoutSecs: getEnvInt("OCR_TIMEOUT_SECS", 60),

		Workers:        getEnvInt("WORKERS", 0),
		MaxDocs:        getEnvInt("MAX_DOCS", 0),
		EmbedBatchSize: getEnvInt("EMBED_BATCH_SIZE", 20),

		ChunkSize:     getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 50),
		MinChunkChars: getEnvInt("MIN_CHUNK_CHARS", 50),

		MinTextLength: getEnvInt("MIN_TEXT_LENGTH", 50),
		MinWordRatio:  getEnvFloat("MIN_WORD_RATIO", 0.2),
		MinAlphaRatio: getEnvFloat("MIN_ALPHA_RATIO", 0.4),

		MentionCap:    getEnvInt("MENTION_CAP", 50),
		MaxContentLen: getEnvInt("MAX_CONTENT_LEN", 100000),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// EffectiveWorkers resolves the worker pool size after all overrides are
// applied. An explicit setting always wins; otherwise OCR runs get a small
// pool, since OCR launches an external process per document and degrades
// badly when oversubscribed.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if c.OCREnabled {
		return 3
	}
	return 10
}

func defaultCorpusRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not a float, using default %g", key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
