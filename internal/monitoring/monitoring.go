package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Init 初始化 sentry，dsn 为空时所有上报都是空操作
func Init(dsn, environment string) error {
	if dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return fmt.Errorf("sentry initialize failed: %w", err)
	}
	return nil
}

func Message(msg string) {
	sentry.CaptureMessage(msg)
}

func Error(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// Flush 等待缓冲的事件发送完成
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
