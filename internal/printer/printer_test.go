package printer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mzyy94/qlabel/internal/raster"
)

// fakeTransport records writes and replays a scripted queue of reads.
type fakeTransport struct {
	writes [][]byte
	reads  [][]byte
	closed bool
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
	return len(p), nil
}

func (f *fakeTransport) Read(p []byte, _ time.Duration) (int, error) {
	if len(f.reads) == 0 {
		return 0, nil
	}
	head := f.reads[0]
	f.reads = f.reads[1:]
	return copy(p, head), nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// statusFrame builds a 32-byte reply for a QL-800 with plain 62mm
// continuous tape installed.
func statusFrame(statusType, phase byte) []byte {
	f := make([]byte, raster.StatusFrameSize)
	f[0], f[1], f[2], f[3] = 0x80, 0x20, 0x42, 0x34
	f[4] = 0x38  // QL-800
	f[10] = 62   // media width mm
	f[11] = 0x0A // continuous
	f[18] = statusType
	f[19] = phase
	f[25] = 0x01 // plain black-only media
	return f
}

// testPrinter builds a Printer over tr with polling pauses removed.
func testPrinter(t *testing.T, tr raster.Transport, cfg raster.Config) *Printer {
	t.Helper()
	p, err := New(tr, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.engine.StatusInterval = 0
	p.engine.CompletionInterval = 0
	return p
}

func blankPage(rows int) raster.Page {
	black := make([][]byte, rows)
	for i := range black {
		black[i] = make([]byte, raster.RowBytesNormal)
	}
	return raster.Page{Black: black}
}

func TestPrinterPrint(t *testing.T) {
	tr := &fakeTransport{reads: [][]byte{
		statusFrame(0x00, 0x00), // handshake reply
		statusFrame(0x06, 0x00), // back to receiving
	}}
	p := testPrinter(t, tr, raster.DefaultConfig(raster.QL800, "", raster.Continuous62))

	if err := p.Print([]raster.Page{blankPage(12)}); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if got := len(tr.writes); got != 3 {
		t.Fatalf("got %d writes, want status request + page + reset", got)
	}

	job := p.Job()
	if job.Printing {
		t.Error("job still marked printing")
	}
	if job.LastError != "" {
		t.Errorf("job.LastError = %q, want empty", job.LastError)
	}
	if job.Pages != 1 || job.Rows != 12 {
		t.Errorf("job recorded %d pages / %d rows, want 1 / 12", job.Pages, job.Rows)
	}
	if _, err := time.Parse(time.RFC3339, job.LastPrint); err != nil {
		t.Errorf("job.LastPrint = %q: %v", job.LastPrint, err)
	}
	if job.ArchivePath != "" {
		t.Errorf("job.ArchivePath = %q, want empty without an archive dir", job.ArchivePath)
	}
}

func TestPrinterPrint_MediaMismatch(t *testing.T) {
	tr := &fakeTransport{reads: [][]byte{statusFrame(0x00, 0x00)}}
	p := testPrinter(t, tr, raster.DefaultConfig(raster.QL800, "", raster.DieCut29x90))

	err := p.Print([]raster.Page{blankPage(4)})
	var mismatch *raster.MediaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Print returned %v, want MediaMismatchError", err)
	}
	if job := p.Job(); job.LastError == "" {
		t.Error("job.LastError empty after a failed print")
	}
}

func TestPrinterPrint_Archive(t *testing.T) {
	tr := &fakeTransport{reads: [][]byte{
		statusFrame(0x00, 0x00),
		statusFrame(0x06, 0x00),
	}}
	p := testPrinter(t, tr, raster.DefaultConfig(raster.QL800, "", raster.Continuous62))
	dir := t.TempDir()
	p.SetArchiveDir(dir)

	if err := p.Print([]raster.Page{blankPage(8)}); err != nil {
		t.Fatalf("Print: %v", err)
	}

	job := p.Job()
	if job.ArchivePath == "" {
		t.Fatal("job.ArchivePath empty with an archive dir set")
	}
	if got := filepath.Dir(job.ArchivePath); got != dir {
		t.Errorf("archive written to %s, want %s", got, dir)
	}
	base := filepath.Base(job.ArchivePath)
	if !strings.HasPrefix(base, "label-") || !strings.HasSuffix(base, ".pdf") {
		t.Errorf("archive name = %q, want label-<timestamp>.pdf", base)
	}
	data, err := os.ReadFile(job.ArchivePath)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("archive does not start with a PDF header")
	}
}

func TestPrinterStatus(t *testing.T) {
	tr := &fakeTransport{reads: [][]byte{statusFrame(0x00, 0x00)}}
	p := testPrinter(t, tr, raster.DefaultConfig(raster.QL800, "", raster.Continuous62))

	st, err := p.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Model != raster.QL800 || st.Media != raster.Continuous62 {
		t.Errorf("got model %s media %s, want QL-800 with 62mm tape", st.Model, st.Media)
	}
}

func TestPrinterCancel(t *testing.T) {
	tr := &fakeTransport{}
	p := testPrinter(t, tr, raster.DefaultConfig(raster.QL800, "", raster.Continuous62))

	if err := p.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(tr.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(tr.writes))
	}
	if !bytes.Equal(tr.writes[0], raster.MarshalInitialize()) {
		t.Error("Cancel did not write the initialize sequence")
	}
}

func TestPrinterClose(t *testing.T) {
	tr := &fakeTransport{}
	p := testPrinter(t, tr, raster.DefaultConfig(raster.QL800, "", raster.Continuous62))

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !tr.closed {
		t.Error("transport not closed")
	}
}

func TestPrinterReconfigure(t *testing.T) {
	tr := &fakeTransport{}
	p := testPrinter(t, tr, raster.DefaultConfig(raster.QL800, "", raster.Continuous62))

	next := raster.DefaultConfig(raster.QL800, "", raster.DieCut62x29)
	if err := p.Reconfigure(next); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if got := p.Config().Media; got != raster.DieCut62x29 {
		t.Errorf("active media = %s, want 62x29 die-cut", got)
	}
	if p.engine.CompletionInterval != 0 {
		t.Error("polling policy not carried over")
	}

	bad := next
	bad.FeedDots = 10 // die-cut media must not feed
	if err := p.Reconfigure(bad); !errors.Is(err, raster.ErrInvalidConfig) {
		t.Fatalf("Reconfigure returned %v, want ErrInvalidConfig", err)
	}
	if got := p.Config().Media; got != raster.DieCut62x29 {
		t.Error("failed Reconfigure replaced the active config")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := raster.DefaultConfig(raster.QL800, "", raster.Continuous62)
	cfg.FeedDots = 0
	if _, err := New(&fakeTransport{}, cfg); !errors.Is(err, raster.ErrInvalidConfig) {
		t.Fatalf("New returned %v, want ErrInvalidConfig", err)
	}
}

func TestJobStatusLifecycle(t *testing.T) {
	var job PrintJobStatus

	job.SetResult(errors.New("boom"), 0, 0, "")
	job.SetPrinting(true)
	if s := job.Snapshot(); !s.Printing || s.LastError != "" {
		t.Errorf("after SetPrinting(true): printing=%v lastError=%q", s.Printing, s.LastError)
	}

	job.SetResult(nil, 2, 240, "/tmp/labels/a.pdf")
	s := job.Snapshot()
	if s.Printing || s.Pages != 2 || s.Rows != 240 || s.ArchivePath != "/tmp/labels/a.pdf" {
		t.Errorf("snapshot = %+v", s)
	}
	if _, err := time.Parse(time.RFC3339, s.LastPrint); err != nil {
		t.Errorf("LastPrint = %q: %v", s.LastPrint, err)
	}
}
