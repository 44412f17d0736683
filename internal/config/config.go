package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr              string
	WebhookURL        string
	WebhookEnabled    bool
	WebhookTimeoutSec int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "0", "false", "no", "off", "False", "FALSE":
			return false
		default:
			return true
		}
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func Load() Config {
	return Config{
		Addr:              getenv("IRDETECT_ADDR", ":8080"),
		WebhookURL:        getenv("IRDETECT_WEBHOOK_URL", ""),
		WebhookEnabled:    getenvBool("IRDETECT_WEBHOOK", true),
		WebhookTimeoutSec: getenvInt("IRDETECT_WEBHOOK_TIMEOUT", 5),
	}
}
