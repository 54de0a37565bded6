package console

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"cwatch/internal/application/port"
)

type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSink() *Sink { return NewSinkTo(os.Stdout) }

func NewSinkTo(w io.Writer) *Sink { return &Sink{w: w} }

func (s *Sink) WriteLive(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprint(s.w, line) // no newline
	return err
}

// A 方案：打印快照行后，留一个空行占位；不立刻重画 live，等下一次变化刷新
func (s *Sink) WriteSnapshot(ts time.Time, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "\n%s %s\n\n", ts.Format("2006-01-02 15:04:05"), line)
	return err
}

func (s *Sink) NewLine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprint(s.w, "\n")
	return err
}

// Notify 打印一条提示，独占一行
func (s *Sink) Notify(sev port.Severity, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[%s] %s\n", sev, msg)
}

var (
	_ port.Sink     = (*Sink)(nil)
	_ port.Notifier = (*Sink)(nil)
)
