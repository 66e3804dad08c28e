package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type Config struct {
	ServerBaseURL string
	ChannelURL    string
	LogLevel      string
	DBPath        string
	LogLines      int
	AskQuestions  bool
}

var (
	cacheTTL   = 10 * time.Second
	nowFunc    = time.Now
	cacheMu    sync.RWMutex
	cachedCfg  Config
	cachedAt   time.Time
	cacheValid bool
)

func LoadConfig() Config {
	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = nowFunc()
	cacheValid = true
	cacheMu.Unlock()
	return cfg
}

func GetConfig() *Config {
	now := nowFunc()
	cacheMu.RLock()
	valid := cacheValid && now.Sub(cachedAt) < cacheTTL
	if valid {
		out := cachedCfg
		cacheMu.RUnlock()
		return &out
	}
	cacheMu.RUnlock()

	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = now
	cacheValid = true
	cacheMu.Unlock()

	out := cfg
	return &out
}

func loadFromEnv() Config {
	base := os.Getenv("TASKDECK_SERVER_BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:3033"
	}

	channel := os.Getenv("TASKDECK_CHANNEL_URL")
	if channel == "" {
		channel = DeriveChannelURL(base)
	}

	level := os.Getenv("TASKDECK_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	dbPath := os.Getenv("TASKDECK_DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath()
	}

	logLines := atoiOrDefault(os.Getenv("TASKDECK_LOG_LINES"), 200)
	if logLines < 1 {
		logLines = 200
	}

	askQuestions := os.Getenv("TASKDECK_PLAN_ASK_QUESTIONS") != "0"

	return Config{
		ServerBaseURL: base,
		ChannelURL:    channel,
		LogLevel:      level,
		DBPath:        dbPath,
		LogLines:      logLines,
		AskQuestions:  askQuestions,
	}
}

// DeriveChannelURL turns the REST base into the websocket endpoint the
// server exposes at /ws.
func DeriveChannelURL(base string) string {
	u := strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Clean("taskdeck.db")
	}
	return filepath.Join(home, ".taskdeck", "taskdeck.db")
}

func atoiOrDefault(v string, fallback int) int {
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fallback
		}
		n = n*10 + int(v[i]-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}
