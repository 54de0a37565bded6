package port

import (
	"context"
	"time"

	"cwatch/internal/domain/model"
)

type Sink interface {
	// Live line: overwrite last line (no newline)
	WriteLive(line string) error
	// Snapshot line: append a historical line with timestamp
	WriteSnapshot(ts time.Time, line string) error
	// Normal newline (for logs)
	NewLine() error
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "success"
}

// Notifier 面向用户的瞬时提示（成功/失败）
type Notifier interface {
	Notify(sev Severity, msg string)
}

// QuotePublisher 可选：把最新行情转发到外部（如 redis）
type QuotePublisher interface {
	PublishQuote(ctx context.Context, source string, q model.PriceQuote, ts int64) error
}
