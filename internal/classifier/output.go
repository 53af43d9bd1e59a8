package classifier

import (
	"bytes"
	"io"
	"sync"
)

// cappedOutput collects stdout and stderr under one shared byte budget.
// Writes past the budget are accepted and dropped so the child never blocks on a full pipe.
type cappedOutput struct {
	mu         sync.Mutex
	limit      int64
	written    int64
	overflowed bool
	stdout     bytes.Buffer
	stderr     bytes.Buffer
}

func newCappedOutput(limit int64) *cappedOutput {
	return &cappedOutput{limit: limit}
}

func (o *cappedOutput) Stdout() io.Writer { return streamWriter{o: o, buf: &o.stdout} }
func (o *cappedOutput) Stderr() io.Writer { return streamWriter{o: o, buf: &o.stderr} }

func (o *cappedOutput) write(buf *bytes.Buffer, p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	remaining := o.limit - o.written
	if remaining <= 0 {
		o.overflowed = o.overflowed || len(p) > 0
		return len(p), nil
	}

	keep := p
	if int64(len(p)) > remaining {
		keep = p[:remaining]
		o.overflowed = true
	}
	buf.Write(keep)
	o.written += int64(len(keep))
	return len(p), nil
}

// Bytes returns copies of what was captured so far
func (o *cappedOutput) Bytes() (stdout, stderr []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return bytes.Clone(o.stdout.Bytes()), bytes.Clone(o.stderr.Bytes())
}

func (o *cappedOutput) Overflowed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.overflowed
}

type streamWriter struct {
	o   *cappedOutput
	buf *bytes.Buffer
}

func (w streamWriter) Write(p []byte) (int, error) {
	return w.o.write(w.buf, p)
}
