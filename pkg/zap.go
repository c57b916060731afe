package pkg

import "go.uber.org/zap"

// zapLogger 基于zap的Logger实现
// sugar: zap的SugaredLogger实例
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger 创建基于zap的日志记录器
// l: zap日志实例
// 返回: Logger接口实现
// [注意] 调用方负责zap实例的Sync
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{sugar: l.Sugar()}
}

// Debugf 记录调试级别日志
func (l *zapLogger) Debugf(format string, a ...any) {
	l.sugar.Debugf(format, a...)
}

// Infof 记录信息级别日志
func (l *zapLogger) Infof(format string, a ...any) {
	l.sugar.Infof(format, a...)
}

// Warnf 记录警告级别日志
func (l *zapLogger) Warnf(format string, a ...any) {
	l.sugar.Warnf(format, a...)
}

// Errorf 记录错误级别日志
func (l *zapLogger) Errorf(format string, a ...any) {
	l.sugar.Errorf(format, a...)
}
