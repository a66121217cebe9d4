package s3

import (
	"io"
	"sync"

	"github.com/kavos113/assistant-artifacts/storage"
)

// progressBody exposes the file as io.ReaderAt + io.ReadSeeker so the upload
// manager reads parts in parallel. Each byte offset is reported once, so the
// SDK re-reading a range (payload checksum, retry) does not inflate progress.
type progressBody struct {
	f          file
	onProgress storage.ProgressFunc

	mu   sync.Mutex
	pos  int64
	seen coverage
}

type file interface {
	io.ReaderAt
	io.ReadSeeker
}

func newProgressBody(f file, onProgress storage.ProgressFunc) *progressBody {
	if onProgress == nil {
		onProgress = func(int64) {}
	}
	return &progressBody{f: f, onProgress: onProgress}
}

func (b *progressBody) Read(p []byte) (int, error) {
	n, err := b.f.Read(p)

	b.mu.Lock()
	start := b.pos
	b.pos += int64(n)
	b.mu.Unlock()

	b.report(start, n)
	return n, err
}

func (b *progressBody) ReadAt(p []byte, off int64) (int, error) {
	n, err := b.f.ReadAt(p, off)
	b.report(off, n)
	return n, err
}

func (b *progressBody) Seek(offset int64, whence int) (int64, error) {
	pos, err := b.f.Seek(offset, whence)
	if err != nil {
		return pos, err
	}

	b.mu.Lock()
	b.pos = pos
	b.mu.Unlock()
	return pos, nil
}

func (b *progressBody) report(off int64, n int) {
	if n <= 0 {
		return
	}

	b.mu.Lock()
	fresh := b.seen.add(off, off+int64(n))
	b.mu.Unlock()

	if fresh > 0 {
		b.onProgress(fresh)
	}
}

// coverage is a sorted set of disjoint [start, end) byte ranges.
type coverage struct {
	spans [][2]int64
}

// add marks [start, end) as seen and returns how many of those bytes were new.
func (c *coverage) add(start, end int64) int64 {
	fresh := end - start
	lo, hi := start, end

	kept := make([][2]int64, 0, len(c.spans)+1)
	for _, s := range c.spans {
		if s[1] < start || s[0] > end {
			kept = append(kept, s)
			continue
		}
		if overlap := min(s[1], end) - max(s[0], start); overlap > 0 {
			fresh -= overlap
		}
		lo = min(lo, s[0])
		hi = max(hi, s[1])
	}

	i := 0
	for i < len(kept) && kept[i][0] < lo {
		i++
	}
	kept = append(kept, [2]int64{})
	copy(kept[i+1:], kept[i:])
	kept[i] = [2]int64{lo, hi}

	c.spans = kept
	return fresh
}
