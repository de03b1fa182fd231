package logger

import "go.uber.org/zap"

// New returns a JSON production logger for env "production" and a console logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
