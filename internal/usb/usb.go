// Package usb drives QL printers over their bulk USB endpoints and adapts
// them to the raster Transport contract.
package usb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/gousb"

	"github.com/mzyy94/qlabel/internal/raster"
)

// ErrMissingEndpoint is returned when the printer interface lacks the bulk
// endpoint pair the raster protocol needs.
var ErrMissingEndpoint = errors.New("printer interface has no bulk endpoint pair")

// ErrNotFound is returned when no matching printer is connected.
var ErrNotFound = errors.New("printer not found")

// Device is an open QL printer. It implements raster.Transport; Write and
// Read are safe for concurrent use.
type Device struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	cfg     *gousb.Config
	iface   *gousb.Interface
	out     *gousb.OutEndpoint
	in      *gousb.InEndpoint
	serial  string
	product string

	mu sync.Mutex
}

// Open claims the printer with the given vendor and product id. A non-empty
// serial selects between several identical printers; otherwise the first
// match wins.
func Open(vid, pid gousb.ID, serial string) (*Device, error) {
	ctx := gousb.NewContext()
	dev, err := findDevice(ctx, vid, pid, serial)
	if err != nil {
		ctx.Close()
		return nil, err
	}

	d := &Device{ctx: ctx, dev: dev}
	if err := d.claim(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// findDevice opens all vid/pid matches and keeps the requested one.
func findDevice(ctx *gousb.Context, vid, pid gousb.ID, serial string) (*gousb.Device, error) {
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vid && desc.Product == pid
	})
	if err != nil && len(devs) == 0 {
		return nil, fmt.Errorf("enumerating %04x:%04x: %w", uint16(vid), uint16(pid), err)
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("%w: %04x:%04x", ErrNotFound, uint16(vid), uint16(pid))
	}

	keep := -1
	if serial == "" {
		keep = 0
	} else {
		for i, dev := range devs {
			s, err := dev.SerialNumber()
			if err == nil && s == serial {
				keep = i
				break
			}
		}
	}
	for i, dev := range devs {
		if i != keep {
			dev.Close()
		}
	}
	if keep < 0 {
		return nil, fmt.Errorf("%w: %04x:%04x serial %q", ErrNotFound, uint16(vid), uint16(pid), serial)
	}
	return devs[keep], nil
}

// claim detaches the kernel driver, claims configuration 1 interface 0 and
// resolves the bulk endpoint pair.
func (d *Device) claim() error {
	if runtime.GOOS == "linux" {
		if err := d.dev.SetAutoDetach(true); err != nil {
			return fmt.Errorf("detaching kernel driver: %w", err)
		}
	}

	cfg, err := d.dev.Config(1)
	if err != nil {
		return fmt.Errorf("claiming configuration: %w", err)
	}
	d.cfg = cfg

	iface, err := cfg.Interface(0, 0)
	if err != nil {
		return fmt.Errorf("claiming printer interface: %w", err)
	}
	d.iface = iface

	for _, ep := range iface.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			if d.out == nil {
				d.out, err = iface.OutEndpoint(ep.Number)
			}
		case gousb.EndpointDirectionIn:
			if d.in == nil {
				d.in, err = iface.InEndpoint(ep.Number)
			}
		}
		if err != nil {
			return fmt.Errorf("opening endpoint %d: %w", ep.Number, err)
		}
	}
	if d.out == nil || d.in == nil {
		return ErrMissingEndpoint
	}

	d.serial, _ = d.dev.SerialNumber()
	d.product, _ = d.dev.Product()
	slog.Debug("usb printer claimed", "product", d.product, "serial", d.serial)
	return nil
}

// Serial returns the USB serial number, or "" when the descriptor read
// failed.
func (d *Device) Serial() string { return d.serial }

// Product returns the USB product string.
func (d *Device) Product() string { return d.product }

// Write sends the whole buffer to the bulk-out endpoint.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.out.Write(p)
	if err != nil {
		return n, fmt.Errorf("bulk write: %w", err)
	}
	if n != len(p) {
		return n, fmt.Errorf("bulk write: sent %d of %d bytes", n, len(p))
	}
	return n, nil
}

// Read waits at most timeout for data on the bulk-in endpoint. A deadline
// expiry is not an error: it returns (0, nil) per the Transport contract.
func (d *Device) Read(p []byte, timeout time.Duration) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := d.in.ReadContext(ctx, p)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, gousb.TransferTimedOut) {
		return 0, nil
	}
	if err != nil {
		return n, fmt.Errorf("bulk read: %w", err)
	}
	return n, nil
}

// Close releases the interface and closes the device and context.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.iface != nil {
		d.iface.Close()
		d.iface = nil
	}
	var errs []error
	if d.cfg != nil {
		if err := d.cfg.Close(); err != nil {
			errs = append(errs, err)
		}
		d.cfg = nil
	}
	if d.dev != nil {
		if err := d.dev.Close(); err != nil {
			errs = append(errs, err)
		}
		d.dev = nil
	}
	if d.ctx != nil {
		if err := d.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
		d.ctx = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing printer: %v", errs)
	}
	return nil
}

// Info describes one connected printer.
type Info struct {
	Model   raster.Model
	Serial  string
	Product string
}

// ListPrinters enumerates connected QL-series printers by their well-known
// product ids.
func ListPrinters() ([]Info, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if desc.Vendor != gousb.ID(raster.VendorID) {
			return false
		}
		_, known := raster.ModelByPID(uint16(desc.Product))
		return known
	})
	if err != nil && len(devs) == 0 {
		return nil, fmt.Errorf("enumerating printers: %w", err)
	}

	infos := make([]Info, 0, len(devs))
	for _, dev := range devs {
		model, _ := raster.ModelByPID(uint16(dev.Desc.Product))
		info := Info{Model: model}
		info.Serial, _ = dev.SerialNumber()
		info.Product, _ = dev.Product()
		infos = append(infos, info)
		dev.Close()
	}
	return infos, nil
}
