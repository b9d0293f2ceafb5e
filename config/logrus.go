package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

var logrusInstance *logrus.Logger

func GetLogrusInstance() *logrus.Logger {
	if logrusInstance == nil {
		logrusInstance = logrus.New()
		logrusInstance.SetFormatter(&logrus.JSONFormatter{})

		logDir := GetLogDir()
		if err := os.MkdirAll(filepath.Join(logDir, "daily"), 0o755); err == nil {
			name := filepath.Join(logDir, "daily", time.Now().Format("2006-01-02")+".log")
			file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				logrusInstance.SetOutput(io.MultiWriter(os.Stdout, file))
			}
		}
	}
	return logrusInstance
}

func GetLogDir() string {
	v := os.Getenv("LOG_DIR")
	if v == "" {
		return "logs"
	}
	return v
}

func GetLogRetentionDays() int {
	v := os.Getenv("LOG_RETENTION_DAYS")
	if v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 14
}

// RotateLogs removes daily log files older than the retention window.
// Files whose names do not parse as dates are left alone.
func RotateLogs(retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	dailyDir := filepath.Join(GetLogDir(), "daily")
	entries, err := os.ReadDir(dailyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read log dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		dateStr := entry.Name()[:len(entry.Name())-len(".log")]
		fileDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if fileDate.Before(cutoff) {
			if err := os.Remove(filepath.Join(dailyDir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
