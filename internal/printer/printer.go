// Package printer is the high-level interface to a QL label printer. A
// Printer owns the transport and the raster engine, serializes operations
// so the single-threaded engine is safe to share, and keeps a record of
// the last print job for the web UI.
package printer

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/gousb"

	"github.com/mzyy94/qlabel/internal/raster"
	"github.com/mzyy94/qlabel/internal/usb"
)

// Printer wraps a raster engine with operation locking and job bookkeeping.
type Printer struct {
	mu         sync.Mutex
	tr         raster.Transport
	engine     *raster.Engine
	archiveDir string
	job        PrintJobStatus
}

// New wires a Printer over an existing transport.
func New(tr raster.Transport, cfg raster.Config) (*Printer, error) {
	eng, err := raster.NewEngine(tr, cfg)
	if err != nil {
		return nil, err
	}
	return &Printer{tr: tr, engine: eng}, nil
}

// Connect opens the configured model over USB and wires a Printer on it.
func Connect(cfg raster.Config) (*Printer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dev, err := usb.Open(gousb.ID(raster.VendorID), gousb.ID(cfg.Model.PID()), cfg.Serial)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Model, err)
	}
	p, err := New(dev, cfg)
	if err != nil {
		dev.Close()
		return nil, err
	}
	slog.Info("printer connected", "model", cfg.Model, "serial", dev.Serial(), "product", dev.Product())
	return p, nil
}

// Config returns the active print configuration.
func (p *Printer) Config() raster.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Config()
}

// Reconfigure replaces the print configuration for subsequent jobs,
// keeping the transport and the engine's polling policy.
func (p *Printer) Reconfigure(cfg raster.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	eng, err := raster.NewEngine(p.tr, cfg)
	if err != nil {
		return err
	}
	eng.StatusTimeout = p.engine.StatusTimeout
	eng.StatusAttempts = p.engine.StatusAttempts
	eng.StatusInterval = p.engine.StatusInterval
	eng.CompletionAttempts = p.engine.CompletionAttempts
	eng.CompletionInterval = p.engine.CompletionInterval
	p.engine = eng
	return nil
}

// Job returns a copy of the last job's status. It does not wait for
// in-flight operations, so it stays responsive while a job is printing.
func (p *Printer) Job() PrintJobStatus { return p.job.Snapshot() }

// SetArchiveDir sets the directory PDF job records are written to after
// each successful print. Empty disables archiving.
func (p *Printer) SetArchiveDir(dir string) {
	p.mu.Lock()
	p.archiveDir = dir
	p.mu.Unlock()
}

// Status queries the printer for a live status frame.
func (p *Printer) Status() (*raster.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.QueryStatus()
}

// Print sends the pages as one job and records the outcome. When an
// archive directory is set, a successful job is also rendered to a PDF
// there; archive failures are logged but do not fail the print.
func (p *Printer) Print(pages []raster.Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows := 0
	for _, page := range pages {
		rows += page.Rows()
	}

	p.job.SetPrinting(true)
	err := p.engine.Print(pages)

	archivePath := ""
	if err == nil && p.archiveDir != "" {
		path, aerr := writeArchive(p.archiveDir, p.engine.Config(), pages)
		if aerr != nil {
			slog.Warn("job archive failed", "dir", p.archiveDir, "err", aerr)
		} else {
			slog.Info("job archived", "path", path)
			archivePath = path
		}
	}
	p.job.SetResult(err, len(pages), rows, archivePath)
	return err
}

// Cancel resets the printer, abandoning any buffered job data.
func (p *Printer) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Cancel()
}

// Close releases the underlying transport.
func (p *Printer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.tr.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
