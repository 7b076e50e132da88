package supervise

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// maxCaptureBytes caps each captured stream; output past the limit is
// dropped rather than growing without bound.
const maxCaptureBytes = 1 << 20

// collector drains the child's stdout and stderr pipes into bounded
// in-memory buffers. It only collects; formatting and streaming are the
// caller's concern.
type collector struct {
	stdoutPipe io.Reader
	stderrPipe io.Reader

	mu     sync.Mutex
	stdout bytes.Buffer
	stderr bytes.Buffer

	wg sync.WaitGroup
}

func newCollector(stdout, stderr io.Reader) *collector {
	return &collector{stdoutPipe: stdout, stderrPipe: stderr}
}

func (c *collector) start() {
	c.wg.Add(2)
	go c.drain(c.stdoutPipe, &c.stdout)
	go c.drain(c.stderrPipe, &c.stderr)
}

// join blocks until both pipes have been read to EOF. It must be called
// before the process is waited on, which closes the pipes.
func (c *collector) join() {
	c.wg.Wait()
}

func (c *collector) drain(r io.Reader, buf *bytes.Buffer) {
	defer c.wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxCaptureBytes)
	for scanner.Scan() {
		c.mu.Lock()
		if buf.Len() < maxCaptureBytes {
			buf.Write(scanner.Bytes())
			buf.WriteByte('\n')
		}
		c.mu.Unlock()
	}
	// The scan loop stops on EOF, on a token over the buffer cap, or on a
	// read error. Keep consuming either way: a reader that stops mid-stream
	// fills the pipe and wedges the child.
	_, _ = io.Copy(io.Discard, r)
}

func (c *collector) contents() (stdout, stderr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stdout.String(), c.stderr.String()
}
