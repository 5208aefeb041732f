package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/zvrva/transferbooking/config"
)

// New builds a logrus instance from config. When a file path is configured
// output goes to a size-rotated file alongside stdout, otherwise stdout only.
// Callers inject the returned logger into components; core packages hold no
// global logger.
func New(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	} else {
		log.SetOutput(os.Stdout)
	}

	return log
}
