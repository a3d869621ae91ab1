package vectorize

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

//go:embed worker.py
var workerScript string

// DefaultPython is the interpreter used to run model workers
const DefaultPython = "python3"

const (
	maxWorkerLine = 16 << 20
	closeTimeout  = 10 * time.Second
)

// PythonLoader starts one sentence-transformers worker process per model
type PythonLoader struct {
	Python      string
	LoadTimeout time.Duration
}

// NewPythonLoader returns a loader running python, or an error when the
// interpreter cannot be found
func NewPythonLoader(python string) (*PythonLoader, error) {
	if python == "" {
		python = DefaultPython
	}
	path, err := exec.LookPath(python)
	if err != nil {
		return nil, fmt.Errorf("python not found in PATH: %w", err)
	}
	return &PythonLoader{Python: path, LoadTimeout: 5 * time.Minute}, nil
}

type workerReply struct {
	ID        uint64    `json:"id"`
	Ready     bool      `json:"ready"`
	Dimension int       `json:"dimension"`
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

type workerRequest struct {
	ID   uint64 `json:"id"`
	Text string `json:"text"`
}

func (l *PythonLoader) Load(ctx context.Context, model string) (Encoder, error) {
	cmd := exec.Command(l.Python, "-u", "-c", workerScript, model)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start python worker: %w", err)
	}

	w := &PythonEncoder{
		model:   model,
		cmd:     cmd,
		stdin:   stdin,
		replies: make(chan workerReply),
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
	}
	go w.readLoop(stdout)

	if l.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.LoadTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := w.next(ctx)
	if err != nil {
		w.stop()
		return nil, fmt.Errorf("%w: %s: %v", ErrModelNotFound, model, err)
	}
	if !reply.Ready {
		w.stop()
		return nil, fmt.Errorf("%w: %s: %s", ErrModelNotFound, model, reply.Error)
	}

	slog.Info("python worker ready",
		"model", model,
		"pid", cmd.Process.Pid,
		"dimension", reply.Dimension,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return w, nil
}

// PythonEncoder talks to one worker process. Requests are serialized and
// tagged with an id; replies to requests whose caller gave up are dropped.
type PythonEncoder struct {
	model string
	cmd   *exec.Cmd
	stdin io.WriteCloser

	// readLoop owns stdout and the process; done is closed once it has exited
	replies chan workerReply
	done    chan struct{}
	exitErr error
	waitErr error

	quit      chan struct{}
	quitOnce  sync.Once
	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex
	nextID uint64
}

func (w *PythonEncoder) readLoop(stdout io.Reader) {
	defer close(w.done)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxWorkerLine)
	for scanner.Scan() {
		var r workerReply
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			slog.Warn("dropping invalid worker reply", "model", w.model, "error", err)
			continue
		}
		select {
		case w.replies <- r:
		case <-w.quit:
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	w.exitErr = fmt.Errorf("worker exited: %w", err)
	w.waitErr = w.cmd.Wait()
}

// next waits for the next reply line, the worker exiting or ctx ending
func (w *PythonEncoder) next(ctx context.Context) (workerReply, error) {
	select {
	case r := <-w.replies:
		return r, nil
	case <-w.done:
		return workerReply{}, w.exitErr
	case <-ctx.Done():
		return workerReply{}, ctx.Err()
	}
}

// Alive reports whether the worker can still serve requests
func (w *PythonEncoder) Alive() bool {
	select {
	case <-w.done:
		return false
	case <-w.quit:
		return false
	default:
		return true
	}
}

func (w *PythonEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.Alive() {
		return nil, fmt.Errorf("%w: worker for %s is not running", ErrEncodingFailed, w.model)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFailed, err)
	}

	w.nextID++
	id := w.nextID
	line, err := json.Marshal(workerRequest{ID: id, Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	if _, err := w.stdin.Write(append(line, '\n')); err != nil {
		w.stop()
		return nil, fmt.Errorf("%w: failed to write to worker: %v", ErrEncodingFailed, err)
	}

	for {
		reply, err := w.next(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodingFailed, err)
		}
		if reply.ID != id {
			slog.Debug("dropping stale worker reply", "model", w.model, "id", reply.ID)
			continue
		}
		if reply.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrEncodingFailed, reply.Error)
		}

		out := make([]float32, len(reply.Embedding))
		for i, v := range reply.Embedding {
			out[i] = float32(v)
		}
		return out, nil
	}
}

func (w *PythonEncoder) signalQuit() {
	w.quitOnce.Do(func() { close(w.quit) })
}

// stop kills the worker and waits for readLoop to reap it
func (w *PythonEncoder) stop() {
	w.signalQuit()
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	<-w.done
}

// Close ends the worker by closing its stdin and waits for it to exit
func (w *PythonEncoder) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.shutdown()
	})
	return w.closeErr
}

func (w *PythonEncoder) shutdown() error {
	w.signalQuit()
	if err := w.stdin.Close(); err != nil {
		w.stop()
		return fmt.Errorf("failed to close worker stdin: %w", err)
	}

	select {
	case <-w.done:
		var exitErr *exec.ExitError
		if w.waitErr != nil && !errors.As(w.waitErr, &exitErr) {
			return fmt.Errorf("failed to wait for worker: %w", w.waitErr)
		}
		return nil
	case <-time.After(closeTimeout):
		w.stop()
		return fmt.Errorf("worker for %s did not exit and was killed", w.model)
	}
}
