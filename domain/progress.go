package domain

import (
	"fmt"
	"io"
	"sync"
)

// TransferProgress accumulates bytes reported by a backend during a single
// upload. Add may be called from several goroutines at once.
type TransferProgress struct {
	fileName string
	size     int64
	out      io.Writer

	mu   sync.Mutex
	seen int64
}

func NewTransferProgress(fileName string, size int64, out io.Writer) *TransferProgress {
	if out == nil {
		out = io.Discard
	}
	return &TransferProgress{
		fileName: fileName,
		size:     size,
		out:      out,
	}
}

func (p *TransferProgress) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seen += n
	fmt.Fprintf(p.out, "\r%s  %d / %d  (%.2f%%)", p.fileName, p.seen, p.size, p.percent())
}

// Done terminates the overwritten progress line.
func (p *TransferProgress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.out)
}

func (p *TransferProgress) Seen() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.seen
}

func (p *TransferProgress) Size() int64 {
	return p.size
}

// percent must be called with mu held.
func (p *TransferProgress) percent() float64 {
	if p.size <= 0 {
		return 100
	}
	return float64(p.seen) / float64(p.size) * 100
}
