package trace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	StartPrefix    = "-->"
	CompletePrefix = "<--"
	ExPrefix       = "<X-"
)

// Status is one open span, produced by Begin and consumed by End or Exception.
type Status struct {
	ID        ID
	Message   string
	StartTime time.Time
}

// LogTrace records nested entry, exit and exception events of a call chain.
type LogTrace interface {
	// Begin opens a span under the span carried by ctx, or starts a new
	// transaction if ctx carries none. The returned context carries the new span.
	Begin(ctx context.Context, message string) (context.Context, *Status)

	End(status *Status)

	Exception(status *Status, err error)
}

var _ LogTrace = (*Logger)(nil)

// Logger is a LogTrace writing one logrus record per event.
type Logger struct {
	log   logrus.FieldLogger
	clock func() time.Time
}

// NewLogger returns a Logger writing into log, or into the standard logrus logger if log is nil.
func NewLogger(log logrus.FieldLogger) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{
		log:   log,
		clock: time.Now,
	}
}

func (l *Logger) Begin(ctx context.Context, message string) (context.Context, *Status) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := NewID()
	if parent, ok := FromContext(ctx); ok {
		id = parent.Next()
	}
	l.entry(id).Info(addSpace(StartPrefix, id.Level) + message)

	status := &Status{
		ID:        id,
		Message:   message,
		StartTime: l.clock(),
	}
	return WithID(ctx, id), status
}

func (l *Logger) End(status *Status) {
	l.complete(status, nil)
}

func (l *Logger) Exception(status *Status, err error) {
	l.complete(status, err)
}

func (l *Logger) complete(status *Status, err error) {
	if status == nil {
		// begin 未完成，没有可结束的 span
		l.log.WithError(err).Warn("logtrace couldn't complete a span that never began")
		return
	}
	elapsed := l.clock().Sub(status.StartTime).Milliseconds()
	id := status.ID
	if err == nil {
		l.entry(id).Info(fmt.Sprintf("%s%s time=%dms",
			addSpace(CompletePrefix, id.Level), status.Message, elapsed))
		return
	}
	l.entry(id).Info(fmt.Sprintf("%s%s time=%dms ex=%s",
		addSpace(ExPrefix, id.Level), status.Message, elapsed, err.Error()))
}

func (l *Logger) entry(id ID) *logrus.Entry {
	return l.log.WithFields(logrus.Fields{
		"txid":  id.TransactionID,
		"level": id.Level,
	})
}

// level=0: -->
// level=1: |-->
// level=2: |   |-->
func addSpace(prefix string, level int) string {
	var sb strings.Builder
	for i := 0; i < level; i++ {
		if i == level-1 {
			sb.WriteString("|")
		} else {
			sb.WriteString("|   ")
		}
	}
	sb.WriteString(prefix)
	return sb.String()
}
