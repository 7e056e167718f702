package utils

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/abisalde/student-portal/pkg/logger"
)

const defaultPort = 8080

func getPort(raw string) int {
	port, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("invalid port, defaulting to 8080", zap.String("port", raw), zap.Error(err))
		return defaultPort
	}

	if port < 10 || port > 65535 {
		logger.Warn("port out of range (10-65535), defaulting to 8080", zap.Int("port", port))
		return defaultPort
	}

	return port
}

// GetListenAddress binds every interface in production and the default host otherwise.
func GetListenAddress(port, env string) string {
	p := getPort(port)

	if env == "production" {
		return fmt.Sprintf("0.0.0.0:%d", p)
	}
	return fmt.Sprintf(":%d", p)
}
