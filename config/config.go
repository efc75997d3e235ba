package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultWikipediaURL = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent    = "whatflower-bot/1.0 (https://github.com/whatflower)"
)

type Config struct {
	TelegramToken string
	HTTPAddr      string

	ModelPath    string
	MetadataPath string
	OnnxLibPath  string

	WikipediaURL       string
	WikipediaUserAgent string
	HTTPTimeout        time.Duration

	DatabaseURL  string
	QualityGate  bool
	HistoryLimit int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	timeout, err := getDuration("HTTP_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	limit, err := getInt("HISTORY_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	gate, err := getBool("QUALITY_GATE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),

		ModelPath:    getEnv("MODEL_PATH", "models/flower_classifier.onnx"),
		MetadataPath: getEnv("METADATA_PATH", "models/flower_classifier.json"),
		OnnxLibPath:  os.Getenv("ONNXRUNTIME_LIB"),

		WikipediaURL:       getEnv("WIKIPEDIA_URL", DefaultWikipediaURL),
		WikipediaUserAgent: getEnv("WIKIPEDIA_USER_AGENT", DefaultUserAgent),
		HTTPTimeout:        timeout,

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		QualityGate:  gate,
		HistoryLimit: limit,
	}

	return cfg, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ValueError{Key: k, Value: v, Err: err}
	}
	return d, nil
}

func getInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ValueError{Key: k, Value: v, Err: err}
	}
	return n, nil
}

func getBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &ValueError{Key: k, Value: v, Err: err}
	}
	return b, nil
}

// ValueError сообщает о некорректном значении переменной окружения.
type ValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return "invalid value " + strconv.Quote(e.Value) + " for " + e.Key + ": " + e.Err.Error()
}

func (e *ValueError) Unwrap() error { return e.Err }
