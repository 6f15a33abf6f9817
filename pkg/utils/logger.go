package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger tagged with the service name. Debug uses the
// development config (console, debug level); otherwise production (JSON, info).
func NewLogger(debug bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Named("cyborgbench"), nil
}
