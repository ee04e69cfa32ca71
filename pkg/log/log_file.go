package log

import (
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/6/8 1:21
 * @file: log_file.go
 * @description: logger writer file
 */

const defaultFilename = "sniper.log"

// getFileLogWriter returns the WriteSyncer for logging to a file.
func getFileLogWriter(conf *Conf) zapcore.WriteSyncer {
	name := conf.Filename
	if name == "" {
		name = defaultFilename
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(conf.Path, name),
		MaxSize:    conf.RotateSize,
		MaxBackups: conf.RotateNum,
		MaxAge:     conf.KeepHours,
		Compress:   true,
	})
}
