package logger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// instanceID distinguishes replicas of the same service in aggregated logs.
// Falls back to the service name when the hostname is unavailable.
func instanceID(cfg Config) string {
	if cfg.InstanceID != "" {
		return cfg.InstanceID
	}

	hn, err := os.Hostname()
	if err != nil || hn == "" {
		hn = cfg.Service
	}
	return fmt.Sprintf("%s-%s", hn, uuid.NewString()[:8])
}

func commonAttr(cfg Config) []slog.Attr {
	return []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", cfg.InstanceID),
	}
}
