package tailer

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/watcher"
)

// Options tune a Tailer.
type Options struct {
	// FromStart reads files without a checkpoint from offset 0 instead of EOF.
	FromStart bool
	// SaveInterval is how often offsets are flushed to the checkpoint.
	SaveInterval time.Duration
	Logger       *slog.Logger
}

// Tailer reads newly appended lines from watched files and emits RawLine values.
type Tailer struct {
	mu     sync.Mutex
	files  map[string]*trackedFile
	out    chan model.RawLine
	ckpt   *Checkpoint
	events <-chan watcher.Event
	watch  *watcher.Watcher
	opts   Options
	log    *slog.Logger
}

type trackedFile struct {
	path   string
	file   *os.File
	reader *bufio.Reader
	offset int64
	buf    string // partial line waiting for its newline
}

// New creates a Tailer that reads events from the given Watcher.
func New(w *watcher.Watcher, ckpt *Checkpoint, opts Options) *Tailer {
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Tailer{
		files:  make(map[string]*trackedFile),
		out:    make(chan model.RawLine, 512),
		ckpt:   ckpt,
		events: w.Events,
		watch:  w,
		opts:   opts,
		log:    opts.Logger,
	}
}

// Lines returns the channel where raw log lines are sent.
func (t *Tailer) Lines() <-chan model.RawLine {
	return t.out
}

// Start processes watcher events until ctx is cancelled. It closes Lines on return.
func (t *Tailer) Start(ctx context.Context) {
	defer close(t.out)

	for _, p := range t.watch.Paths() {
		t.openFile(p)
		if t.opts.FromStart {
			t.readNewLines(ctx, p)
		}
	}

	saveTicker := time.NewTicker(t.opts.SaveInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.saveCheckpoint()
			t.closeAll()
			return

		case ev, ok := <-t.events:
			if !ok {
				t.saveCheckpoint()
				t.closeAll()
				return
			}
			t.handleEvent(ctx, ev)

		case <-saveTicker.C:
			t.saveCheckpoint()
		}
	}
}

func (t *Tailer) handleEvent(ctx context.Context, ev watcher.Event) {
	switch {
	case ev.Op&fsnotify.Write != 0:
		t.readNewLines(ctx, ev.Path)

	case ev.Op&fsnotify.Create != 0:
		t.openFile(ev.Path)
		t.readNewLines(ctx, ev.Path)

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		// Rotated or deleted: the replacement starts from offset 0.
		t.closeFile(ev.Path)
		t.ckpt.Set(ev.Path, 0)
		go t.reconnect(ctx, ev.Path)
	}
}

// openFile opens a file for tailing, resuming from the checkpointed offset.
func (t *Tailer) openFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		t.log.Warn("cannot open file", "path", path, "error", err)
		return
	}

	var offset int64
	if saved, ok := t.ckpt.Get(path); ok {
		offset = saved
		if st, err := f.Stat(); err == nil && st.Size() < offset {
			// Truncated since the checkpoint was written.
			offset = 0
		}
	} else if !t.opts.FromStart {
		offset, _ = f.Seek(0, io.SeekEnd)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		t.log.Warn("cannot seek file", "path", path, "offset", offset, "error", err)
		f.Close()
		return
	}

	t.files[path] = &trackedFile{
		path:   path,
		file:   f,
		reader: bufio.NewReader(f),
		offset: offset,
	}
}

// readNewLines reads from the last offset to EOF and emits complete lines.
// A trailing fragment without a newline is held until the next write.
func (t *Tailer) readNewLines(ctx context.Context, path string) {
	t.mu.Lock()
	tf, ok := t.files[path]
	t.mu.Unlock()
	if !ok {
		return
	}

	// Truncated in place (copytruncate): start over from the beginning.
	if st, err := tf.file.Stat(); err == nil && st.Size() < tf.offset {
		if _, err := tf.file.Seek(0, io.SeekStart); err != nil {
			t.log.Warn("cannot rewind truncated file", "path", path, "error", err)
			return
		}
		t.log.Info("file truncated, reading from start", "path", path, "size", st.Size(), "offset", tf.offset)
		tf.reader.Reset(tf.file)
		tf.offset = 0
		tf.buf = ""
		t.ckpt.Set(path, 0)
	}

	for {
		chunk, err := tf.reader.ReadString('\n')
		tf.offset += int64(len(chunk))

		if err != nil {
			tf.buf += chunk
			if err != io.EOF {
				t.log.Error("read error", "path", path, "error", err)
			}
			break
		}

		line := strings.TrimRight(tf.buf+chunk, "\r\n")
		tf.buf = ""

		select {
		case t.out <- model.RawLine{Text: line, Source: path}:
		case <-ctx.Done():
			return
		}
	}

	// Offsets only advance past complete lines.
	t.ckpt.Set(path, tf.offset-int64(len(tf.buf)))
}

func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tf, ok := t.files[path]; ok {
		tf.file.Close()
		delete(t.files, path)
	}
}

// reconnect polls for a file to reappear after rotation (up to 5 retries).
func (t *Tailer) reconnect(ctx context.Context, path string) {
	for i := 0; i < 5; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
		if _, err := os.Stat(path); err == nil {
			t.log.Info("reconnected to rotated file", "path", path)
			if err := t.watch.ReWatch(path); err != nil {
				t.log.Warn("cannot re-watch rotated file", "path", path, "error", err)
			}
			t.openFile(path)
			return
		}
	}
	t.log.Warn("gave up reconnecting", "path", path, "retries", 5)
}

func (t *Tailer) saveCheckpoint() {
	if err := t.ckpt.Save(); err != nil {
		t.log.Error("checkpoint save failed", "error", err)
	}
}

func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tf := range t.files {
		tf.file.Close()
		delete(t.files, path)
	}
}
