package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

var globalLogger *slog.Logger

// logFile InitLoggerWithFileで開いたログファイル
var logFile io.Closer

// ParseLevel ログレベル文字列をslog.Levelに変換
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// InitLogger ログレベルに応じてslogを初期化
func InitLogger(level string) error {
	return InitLoggerWithWriter(level, os.Stdout)
}

// InitLoggerWithWriter 出力先を指定してslogを初期化
func InitLoggerWithWriter(level string, w io.Writer) error {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return err
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slogLevel,
	})

	setLogger(slog.New(handler))
	return nil
}

// InitLoggerWithFile 標準出力とログファイル（JSON）の両方に出力するslogを初期化
// pathが空の場合はInitLoggerと同じ
func InitLoggerWithFile(level string, path string) error {
	if path == "" {
		return InitLogger(level)
	}

	slogLevel, err := ParseLevel(level)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	options := &slog.HandlerOptions{Level: slogLevel}
	handler := slogmulti.Fanout(
		slog.NewTextHandler(os.Stdout, options),
		slog.NewJSONHandler(f, options),
	)

	Close()
	logFile = f
	setLogger(slog.New(handler))
	return nil
}

// Close ログファイルを閉じる
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func setLogger(l *slog.Logger) {
	globalLogger = l
	slog.SetDefault(globalLogger)
}

// GetLogger グローバルロガーを取得
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		// デフォルトロガーを返す
		return slog.Default()
	}
	return globalLogger
}
