package utils

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logger.go - настройка логирования
//
// Назначение:
// Инициализация и настройка структурированного логирования (uber-go/zap).
//
// Функции:
// - InitLogger: создать и настроить logger
//   * Выбор формата (json, console)
//   * Уровни: debug, info, warn, error
//   * Ротация лог-файлов через lumberjack
// - Logger: глобальный доступ к настроенному logger'у
//
// Все периодические задачи логируют ошибки циклов и продолжают работу:
// транзиентные ошибки БД не фатальны для процесса.

var logger = zap.NewNop().Sugar()

// LogConfig - параметры инициализации логирования
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	File   string // путь к лог-файлу; пусто = только stdout
}

// InitLogger создает и публикует глобальный logger
//
// При указании файла логи пишутся одновременно в stdout и в файл
// с ротацией (100MB, 5 бэкапов, 7 дней, сжатие).
func InitLogger(opts LogConfig) (*zap.SugaredLogger, error) {
	level := parseLevel(opts.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(opts.Format, "console") {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}

	if opts.File != "" {
		rotation := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     7, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotation), level))
	}

	l := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	logger = l.Sugar()
	return logger, nil
}

// Logger возвращает глобальный logger.
// До вызова InitLogger возвращает no-op logger (удобно в тестах).
func Logger() *zap.SugaredLogger {
	return logger
}

// parseLevel преобразует строковый уровень в zapcore.Level
func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
