package main

import "go.uber.org/zap"

// zapLogger adapts a *zap.SugaredLogger to aes256filter.Logger. Messages
// pass through unchanged; the core already names itself in its own text.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newZapLogger(debug bool) (*zapLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &zapLogger{sugar: logger.Sugar()}, nil
}

// Notice implements aes256filter.Logger.
func (l *zapLogger) Notice(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warning implements aes256filter.Logger.
func (l *zapLogger) Warning(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error implements aes256filter.Logger.
func (l *zapLogger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

func (l *zapLogger) sync() error {
	return l.sugar.Sync()
}
