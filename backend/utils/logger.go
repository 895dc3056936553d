package utils

import (
	"io"
	"log"
	"os"
)

// LoggerConfig определяет конфигурацию для логгера
type LoggerConfig struct {
	// text или json
	Format string
	// Выходной поток (os.Stdout, файл и т.д.)
	Output io.Writer
	// Цвета для консоли
	EnableColors bool
}

// InitLogger инициализирует и возвращает логгер
func InitLogger(config ...LoggerConfig) *log.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	prefix := "[LearnHub] "

	if cfg.Format == "json" {
		return log.New(cfg.Output, prefix, log.LstdFlags|log.LUTC|log.Lmsgprefix)
	}
	if cfg.EnableColors {
		prefix = "\033[36m" + prefix + "\033[0m"
	}
	return log.New(cfg.Output, prefix, log.LstdFlags|log.Lshortfile|log.LUTC)
}

// Colors are only applied when the logger writes plain text.
func Colorize(logger *log.Logger, color, s string) string {
	if logger.Flags()&log.Lmsgprefix != 0 {
		return s
	}
	return color + s + "\033[0m"
}

func StatusColor(status int) string {
	switch {
	case status >= 500:
		return "\033[31m" // красный
	case status >= 400:
		return "\033[33m" // желтый
	case status >= 300:
		return "\033[36m"
	case status >= 200:
		return "\033[32m"
	default:
		return "\033[37m"
	}
}

func MethodColor(method string) string {
	switch method {
	case "GET":
		return "\033[34m"
	case "POST":
		return "\033[33m"
	case "PUT":
		return "\033[36m"
	case "DELETE":
		return "\033[31m"
	case "PATCH":
		return "\033[32m"
	default:
		return "\033[37m"
	}
}
