package terminal

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// LoadingStages are shown in turn while a request is in flight.
var LoadingStages = []string{
	"Searching vector database...",
	"Generating response with AI",
}

const stageInterval = 1500 * time.Millisecond

// Loading rotates the loading text on one line until stopped.
type Loading struct {
	out      io.Writer
	stages   []string
	interval time.Duration

	mu   sync.Mutex
	line string
}

// NewLoading creates a loading indicator with the default stages
func NewLoading(out io.Writer) *Loading {
	return &Loading{out: out, stages: LoadingStages, interval: stageInterval}
}

// Start shows the first stage and returns a function that stops the
// rotation and clears the line. The stop function waits for the rotation
// goroutine to exit.
func (l *Loading) Start() (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup

	l.show(l.stages[0])

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				i = (i + 1) % len(l.stages)
				l.show(l.stages[i])
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			l.clear()
		})
	}
}

func (l *Loading) show(stage string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "\r%*s\r%s", len(l.line), "", stage)
	l.line = stage
}

func (l *Loading) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "\r%*s\r", len(l.line), "")
	l.line = ""
}
