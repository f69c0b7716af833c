package printer

import (
	"sync"
	"time"
)

// PrintJobStatus tracks the state of the most recent print job.
type PrintJobStatus struct {
	mu          sync.RWMutex
	Printing    bool   `json:"printing"`
	LastError   string `json:"lastError,omitempty"`
	LastPrint   string `json:"lastPrint,omitempty"` // RFC3339
	Pages       int    `json:"pages"`
	Rows        int    `json:"rows"`
	ArchivePath string `json:"archivePath,omitempty"`
}

// Snapshot returns a copy of the current status.
func (s *PrintJobStatus) Snapshot() PrintJobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PrintJobStatus{
		Printing:    s.Printing,
		LastError:   s.LastError,
		LastPrint:   s.LastPrint,
		Pages:       s.Pages,
		Rows:        s.Rows,
		ArchivePath: s.ArchivePath,
	}
}

// SetPrinting marks a job as in-progress.
func (s *PrintJobStatus) SetPrinting(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Printing = v
	if v {
		s.LastError = ""
	}
}

// SetResult records the outcome of a completed job.
func (s *PrintJobStatus) SetResult(err error, pages, rows int, archivePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Printing = false
	s.LastPrint = time.Now().UTC().Format(time.RFC3339)
	s.Pages = pages
	s.Rows = rows
	s.ArchivePath = archivePath
	if err != nil {
		s.LastError = err.Error()
	} else {
		s.LastError = ""
	}
}
