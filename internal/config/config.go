package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Sync     SyncConfig
	Security SecurityConfig
	Engine   EngineConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

// BackendConfig points the client core at the orchestration backend.
type BackendConfig struct {
	WsBaseURL string // e.g. ws://localhost:8000
	ApiURL    string // e.g. http://localhost:8000
	Token     string // pre-issued session token, optional
}

// SyncConfig tunes the derived-state components of the synchronizer.
type SyncConfig struct {
	AlertThreshold   float64
	AlertAutoReset   time.Duration // 0 disables the auto-reset timer
	TransitionWindow time.Duration
}

type SecurityConfig struct {
	JwtSecret string
}

// EngineConfig drives the simulator's scripted session.
type EngineConfig struct {
	Tick           time.Duration
	SessionTTL     time.Duration
	ConfusionDecay float64 // health lost per confusion event
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Backend: BackendConfig{
			WsBaseURL: getEnv("BACKEND_WS_URL", "ws://localhost:8000"),
			ApiURL:    getEnv("BACKEND_API_URL", "http://localhost:8000"),
			Token:     getEnv("SESSION_TOKEN", ""),
		},
		Sync: SyncConfig{
			AlertThreshold:   getEnvAsFloat("ALERT_THRESHOLD", 0.45),
			AlertAutoReset:   time.Duration(getEnvAsInt("ALERT_AUTO_RESET_MS", 0)) * time.Millisecond,
			TransitionWindow: time.Duration(getEnvAsInt("TRANSITION_WINDOW_MS", 3000)) * time.Millisecond,
		},
		Security: SecurityConfig{
			JwtSecret: getEnv("JWT_SECRET", "dev_secret"),
		},
		Engine: EngineConfig{
			Tick:           time.Duration(getEnvAsInt("ENGINE_TICK_MS", 1000)) * time.Millisecond,
			SessionTTL:     time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
			ConfusionDecay: getEnvAsFloat("ENGINE_CONFUSION_DECAY", 0.2),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
