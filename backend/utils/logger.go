package utils

import "go.uber.org/zap"

// InitLogger builds the process logger: JSON output in production,
// console output everywhere else.
func InitLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
