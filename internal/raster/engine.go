package raster

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Transport is an open duplex channel to one printer. Write must send the
// whole buffer. Read waits at most timeout for status data and returns
// (0, nil) when nothing arrived in time.
type Transport interface {
	Write(p []byte) (int, error)
	Read(p []byte, timeout time.Duration) (int, error)
}

// Engine drives print sessions over a Transport. It is single-threaded:
// callers needing concurrency must serialize Print/Cancel/QueryStatus
// themselves. The engine never caches printer status between operations.
type Engine struct {
	tr  Transport
	cfg Config

	// Polling policy. The defaults suit real hardware; tests shrink them.
	StatusTimeout      time.Duration // per-read deadline
	StatusAttempts     int           // reads per ReadStatus call
	StatusInterval     time.Duration // pause between status read attempts
	CompletionAttempts int           // reads while waiting for job completion
	CompletionInterval time.Duration // pause between completion reads
}

// NewEngine validates the config and binds an engine to the transport.
// The engine keeps its own copy of cfg.
func NewEngine(tr Transport, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		tr:                 tr,
		cfg:                cfg,
		StatusTimeout:      time.Second,
		StatusAttempts:     10,
		StatusInterval:     time.Second,
		CompletionAttempts: 30,
		CompletionInterval: 500 * time.Millisecond,
	}, nil
}

// Config returns a copy of the engine's print configuration.
func (e *Engine) Config() Config { return e.cfg }

// write sends the whole buffer, treating a short write as an error.
func (e *Engine) write(p []byte) error {
	n, err := e.tr.Write(p)
	if err != nil {
		return fmt.Errorf("printer write: %w", err)
	}
	if n != len(p) {
		return fmt.Errorf("printer write: only %d of %d bytes sent", n, len(p))
	}
	return nil
}

// readFrame reads one status frame with the per-read deadline. A short,
// empty or unparsable read returns (nil, nil): no frame yet.
func (e *Engine) readFrame() (*Status, error) {
	buf := make([]byte, StatusFrameSize)
	n, err := e.tr.Read(buf, e.StatusTimeout)
	if err != nil {
		return nil, fmt.Errorf("printer read: %w", err)
	}
	if n != StatusFrameSize {
		slog.Debug("status not ready", "bytes", n)
		return nil, nil
	}
	st, err := ParseStatus(buf)
	if err != nil {
		slog.Debug("discarding garbled status frame", "err", err)
		return nil, nil
	}
	return st, nil
}

// RequestStatus asks the printer to emit one status frame.
func (e *Engine) RequestStatus() error {
	return e.write(MarshalStatusRequest())
}

// ReadStatus polls for a status frame, retrying short reads up to
// StatusAttempts times.
func (e *Engine) ReadStatus() (*Status, error) {
	for attempt := 0; attempt < e.StatusAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(e.StatusInterval)
		}
		st, err := e.readFrame()
		if err != nil {
			return nil, err
		}
		if st != nil {
			slog.Debug("status frame", "type", st.Type, "phase", st.Phase, "media", st.Media, "error", st.Error)
			return st, nil
		}
	}
	return nil, ErrReadStatusTimeout
}

// QueryStatus requests and reads one status frame.
func (e *Engine) QueryStatus() (*Status, error) {
	if err := e.RequestStatus(); err != nil {
		return nil, err
	}
	return e.ReadStatus()
}

// Print sends the pages as one job and waits for the printer to confirm
// completion. The installed media must match the configured one; nothing
// beyond the status request is written otherwise.
func (e *Engine) Print(pages []Page) error {
	if len(pages) == 0 {
		return fmt.Errorf("%w: job has no pages", ErrInvalidConfig)
	}
	rowBytes := e.cfg.Model.RowBytes()
	for i, page := range pages {
		if err := page.validate(rowBytes); err != nil {
			return fmt.Errorf("page %d: %w", i, err)
		}
		if page.TwoColor() != e.cfg.TwoColor {
			return fmt.Errorf("%w: page %d and config disagree on two-color", ErrInvalidConfig, i)
		}
	}

	// Step 1: status handshake.
	slog.Debug("print step 1: status handshake")
	st, err := e.QueryStatus()
	if err != nil {
		return err
	}

	// Step 2: verify the installed media.
	slog.Debug("print step 2: media check", "installed", st.Media, "configured", e.cfg.Media)
	if err := st.CheckMedia(e.cfg.Media); err != nil {
		return err
	}

	// Step 3: stream the pages, one buffered write per page.
	for i, page := range pages {
		first := i == 0
		last := i == len(pages)-1
		buf, err := e.marshalPage(page, first)
		if err != nil {
			return err
		}
		if last {
			buf = append(buf, cmdPrintEject)
		} else {
			buf = append(buf, cmdPrintPage)
		}
		slog.Debug("print step 3: sending page", "page", i, "rows", page.Rows(), "bytes", len(buf))
		if err := e.write(buf); err != nil {
			return err
		}
		if !last {
			// One status read per page feed keeps the printer's receive
			// buffer from overrunning on long jobs.
			if _, err := e.ReadStatus(); err != nil {
				return err
			}
		}
	}

	// Step 4: wait for the job to complete.
	slog.Debug("print step 4: waiting for completion")
	if err := e.waitCompletion(); err != nil {
		if errors.Is(err, ErrPrintTimeout) {
			if werr := e.write(MarshalInitialize()); werr != nil {
				slog.Debug("invalidate after timeout failed", "err", werr)
			}
		}
		return err
	}

	// Step 5: leave the printer invalidated for the next job.
	slog.Debug("print step 5: job complete, resetting")
	return e.write(MarshalInitialize())
}

// marshalPage assembles the byte stream for one page. The first page is
// prefixed with the job preamble.
func (e *Engine) marshalPage(page Page, first bool) ([]byte, error) {
	var buf bytes.Buffer
	if first {
		buf.Write(MarshalInitialize())
		buf.Write(MarshalRasterMode())
		buf.Write(MarshalNotifyMode())
		buf.Write(MarshalCompression(e.cfg.Compress))
		mode, err := MarshalModeCommands(e.cfg)
		if err != nil {
			return nil, err
		}
		buf.Write(mode)
	}
	buf.Write(MarshalMediaHeader(e.cfg, page.Rows(), first))

	switch {
	case page.TwoColor():
		for i := range page.Black {
			buf.Write(MarshalTwoColorRow(planeBlack, page.Black[i]))
			buf.Write(MarshalTwoColorRow(planeRed, page.Red[i]))
		}
	case e.cfg.Compress:
		for _, row := range page.Black {
			buf.Write(MarshalRasterRow(PackBits(row)))
		}
	default:
		for _, row := range page.Black {
			buf.Write(MarshalRasterRow(row))
		}
	}
	return buf.Bytes(), nil
}

// waitCompletion polls until the printer reports a fault or settles back
// into the receiving phase.
func (e *Engine) waitCompletion() error {
	for attempt := 0; attempt < e.CompletionAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(e.CompletionInterval)
		}
		st, err := e.readFrame()
		if err != nil {
			return err
		}
		if st == nil {
			continue
		}
		switch {
		case st.Type == StatusError || !st.Error.IsClear():
			return &FaultError{Condition: st.Error}
		case st.Phase == PhaseReceiving:
			slog.Debug("print confirmed", "type", st.Type)
			return nil
		case st.Type == StatusCompleted && st.Phase == PhasePrinting:
			// The closing frame usually arrives right behind this one;
			// confirm the transition to receiving without the pause.
			confirm, err := e.readFrame()
			if err != nil {
				return err
			}
			if confirm == nil {
				continue
			}
			if confirm.Type == StatusError || !confirm.Error.IsClear() {
				return &FaultError{Condition: confirm.Error}
			}
			if confirm.Phase == PhaseReceiving {
				slog.Debug("print confirmed", "type", confirm.Type)
				return nil
			}
		default:
			slog.Debug("printer still settling", "type", st.Type, "phase", st.Phase)
		}
	}
	return ErrPrintTimeout
}

// Cancel aborts whatever the printer is doing by invalidating its buffer.
func (e *Engine) Cancel() error {
	slog.Debug("cancel: invalidating printer buffer")
	return e.write(MarshalInitialize())
}
