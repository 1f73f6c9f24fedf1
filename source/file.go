// Package source provides byte sources a tsdemux.Demuxer can be built
// over: a plain file, a growing capture file tailed with fsnotify, and a
// UDP/RTP multicast socket.
package source

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/fsnotify/fsnotify"
)

// File opens path for reading. The returned ReadCloser is a plain
// *os.File; callers that want to follow a file still being written to
// should use Tail instead.
func File(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// tailReader reads path as it grows, blocking on EOF until either more
// bytes are written (reported by fsnotify) or the context is canceled.
type tailReader struct {
	f       *os.File
	watcher *fsnotify.Watcher
	ctx     context.Context
	l       astikit.CompleteLogger
}

// Tail opens path and returns an io.ReadCloser that, instead of returning
// io.EOF when it catches up to the writer, waits for a filesystem write
// event and keeps reading. This is grounded in how a live TS capture file
// (e.g. one being written by a tuner process) is consumed while recording
// is still in progress.
func Tail(ctx context.Context, path string, l astikit.CompleteLogger) (io.ReadCloser, error) {
	if l == nil {
		l = astikit.AdaptStdLogger(log.Default())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := w.Add(path); err != nil {
		f.Close()
		w.Close()
		return nil, err
	}
	return &tailReader{f: f, watcher: w, ctx: ctx, l: l}, nil
}

func (t *tailReader) Read(p []byte) (int, error) {
	for {
		n, err := t.f.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return n, err
		}

		select {
		case <-t.ctx.Done():
			return 0, t.ctx.Err()
		case ev, ok := <-t.watcher.Events:
			if !ok {
				return 0, io.EOF
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
		case werr, ok := <-t.watcher.Errors:
			if ok {
				t.l.Errorf("tsdemux/source: watcher error: %s", werr)
			}
		case <-time.After(time.Second):
			// Poll as a fallback in case the notify event was missed.
		}
	}
}

func (t *tailReader) Close() error {
	t.watcher.Close()
	return t.f.Close()
}
