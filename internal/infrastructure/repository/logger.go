package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold 超過此時間的查詢以警告等級記錄
const slowQueryThreshold = 200 * time.Millisecond

// zapLogger 將 GORM 日誌轉到全域 zap logger
type zapLogger struct {
	level gormlogger.LogLevel
}

func newLogger(debug bool) gormlogger.Interface {
	if debug {
		return &zapLogger{level: gormlogger.Info}
	}
	return &zapLogger{level: gormlogger.Warn}
}

func (l *zapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &zapLogger{level: level}
}

func (l *zapLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		common.LogDebug(fmt.Sprintf(msg, args...))
	}
}

func (l *zapLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		common.LogWarn(fmt.Sprintf(msg, args...))
	}
}

func (l *zapLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		common.LogError(fmt.Sprintf(msg, args...))
	}
}

func (l *zapLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		common.LogError("資料庫查詢失敗", append(fields, zap.Error(err))...)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		common.LogWarn("資料庫慢查詢", fields...)
	case l.level >= gormlogger.Info:
		common.LogDebug("資料庫查詢", fields...)
	}
}
