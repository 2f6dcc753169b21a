package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	DBFile string

	// Mail transport
	ImapServer    string
	ImapPort      int
	SmtpServer    string
	SmtpPort      int
	SmtpStartTLS  bool
	EmailAddress  string
	EmailPassword string
	LookbackDays  int

	// AI providers
	AIProvider       string // "openai" or "ollama"
	OpenAIBaseURL    string
	OpenAIAPIKey     string
	OpenAIModel      string
	EmbeddingBaseURL string
	EmbeddingModel   string
	EmbeddingDim     int
	OllamaBaseURL    string
	OllamaModel      string

	// Daily summary engine
	Whoami           string
	SummaryBudget    int
	SummaryCacheSize int

	// Vector indexing
	ChunkLines int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:   getEnv("PORT", "8000"),
		DBFile: getEnv("DB_FILE", "data/email_assistant.db"),

		ImapServer:    getEnv("IMAP_SERVER", ""),
		ImapPort:      getEnvInt("IMAP_PORT", 993),
		SmtpServer:    getEnv("SMTP_SERVER", ""),
		SmtpPort:      getEnvInt("SMTP_PORT", 465),
		SmtpStartTLS:  getEnvBool("SMTP_STARTTLS", false),
		EmailAddress:  getEnv("EMAIL_ADDRESS", ""),
		EmailPassword: getEnv("EMAIL_PASSWORD", ""),
		LookbackDays:  getEnvInt("LOOKBACK_DAYS", 1),

		AIProvider:       getEnv("AI_PROVIDER", "openai"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "qwen-plus"),
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-v3"),
		EmbeddingDim:     getEnvInt("EMBEDDING_DIM", 1024),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "llama3"),

		Whoami:           getEnv("WHOAMI", ""),
		SummaryBudget:    getEnvInt("SUMMARY_WINDOW_BUDGET", 2000),
		SummaryCacheSize: getEnvInt("SUMMARY_CACHE_SIZE", 100),

		ChunkLines: getEnvInt("CHUNK_LINES", 5),
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
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
