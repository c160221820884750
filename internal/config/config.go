package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Gemini Configuration
	GeminiAPIKey          string
	GeminiModel           string
	GoogleEmbeddingsModel string
	GeminiTier            string
	VectorDimensions      int

	// Admin API authentication
	AdminJWTSecret string

	// Rate Limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Retrieval settings
	TopKRetrieval          int
	DenseWeight            float64
	SparseWeight           float64
	ContextBudget          int
	MinGroundedDocs        int
	MinRetrievalConfidence float64

	// Semantic cache settings
	CacheSimilarityThreshold float64
	CacheTTLHours            int
	CacheMaxEntries          int
	EmbedCacheSize           int

	// Routing settings
	RouterModelPath    string
	OverrideThreshold  float64
	EscalationFloor    float64
	MultiIntentEnabled bool

	// Upstream resilience
	UpstreamRetries int

	// Corpus ingestion
	PoliciesDir  string
	MaxChunkSize int
	ChunkOverlap int
	MinChunkSize int

	// Request handling
	RequestTimeoutSecs int

	// Telemetry
	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/onboarding_copilot"),
		DBName:      getEnv("DB_NAME", "onboarding_copilot"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),
		VectorDimensions:      getEnvInt("VECTOR_DIM", 768),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		TopKRetrieval:          getEnvInt("TOP_K_RETRIEVAL", 5),
		DenseWeight:            getEnvFloat64("FUSION_DENSE_WEIGHT", 0.7),
		SparseWeight:           getEnvFloat64("FUSION_SPARSE_WEIGHT", 0.3),
		ContextBudget:          getEnvInt("CONTEXT_CHAR_BUDGET", 6000),
		MinGroundedDocs:        getEnvInt("MIN_GROUNDED_DOCS", 1),
		MinRetrievalConfidence: getEnvFloat64("MIN_RETRIEVAL_CONFIDENCE", 0.4),

		CacheSimilarityThreshold: getEnvFloat64("CACHE_SIMILARITY_THRESHOLD", 0.92),
		CacheTTLHours:            getEnvInt("CACHE_TTL_HOURS", 24),
		CacheMaxEntries:          getEnvInt("CACHE_MAX_ENTRIES", 5000),
		EmbedCacheSize:           getEnvInt("EMBED_CACHE_SIZE", 2048),

		RouterModelPath:    getEnv("ROUTER_MODEL_PATH", "./data/models/question_router.json"),
		OverrideThreshold:  getEnvFloat64("OVERRIDE_CONFIDENCE_THRESHOLD", 0.6),
		EscalationFloor:    getEnvFloat64("ESCALATION_CONFIDENCE_FLOOR", 0.3),
		MultiIntentEnabled: getEnvBool("MULTI_INTENT_ENABLED", true),

		UpstreamRetries: getEnvInt("UPSTREAM_RETRIES", 2),

		PoliciesDir:  getEnv("POLICIES_DIR", "./data/policies"),
		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 50),
		MinChunkSize: getEnvInt("MIN_CHUNK_SIZE", 100),

		RequestTimeoutSecs: getEnvInt("REQUEST_TIMEOUT_SECONDS", 60),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.AdminJWTSecret == "" {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET is required - set it in .env file")
	}

	if cfg.DenseWeight+cfg.SparseWeight <= 0 {
		return nil, fmt.Errorf("fusion weights must sum to a positive value")
	}

	if cfg.CacheSimilarityThreshold <= 0 || cfg.CacheSimilarityThreshold > 1 {
		return nil, fmt.Errorf("CACHE_SIMILARITY_THRESHOLD must be in (0, 1]")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
