package http

import (
	"log/slog"
)

const (
	serviceName = "idea-pool-service"
)

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "http",
		"layer", "adapter",
	)
}
