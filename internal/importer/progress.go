package importer

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ProgressLog is the ordered, human readable trail of one import. Every line
// is also sent to the structured logger.
type ProgressLog struct {
	mu     sync.Mutex
	lines  []string
	now    func() time.Time
	logger *logrus.Entry
}

func newProgressLog(now func() time.Time, logger *logrus.Entry) *ProgressLog {
	return &ProgressLog{now: now, logger: logger}
}

// Addf appends a timestamped line
func (p *ProgressLog) Addf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	p.mu.Lock()
	p.lines = append(p.lines, fmt.Sprintf("[%s] %s", p.now().Format("15:04:05"), msg))
	p.mu.Unlock()

	if p.logger != nil {
		p.logger.Info(msg)
	}
}

// Lines returns a copy of the log
func (p *ProgressLog) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}
