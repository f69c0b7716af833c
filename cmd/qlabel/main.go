package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/OpenPrinting/go-mfp/util/uuid"
	"github.com/grandcat/zeroconf"
	"github.com/spf13/viper"

	"github.com/mzyy94/qlabel/internal/config"
	"github.com/mzyy94/qlabel/internal/printer"
	"github.com/mzyy94/qlabel/internal/raster"
	"github.com/mzyy94/qlabel/internal/usb"
	"github.com/mzyy94/qlabel/internal/webui"
)

func main() {
	// Configuration from QLABEL_* environment variables
	viper.SetEnvPrefix("qlabel")
	viper.AutomaticEnv()
	viper.SetDefault("MODEL", "QL-800")
	viper.SetDefault("LISTEN_PORT", 8080)
	viper.SetDefault("LOG_LEVEL", "info")

	logLevel := parseLogLevel(viper.GetString("LOG_LEVEL"))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	model, err := raster.ParseModel(viper.GetString("MODEL"))
	if err != nil {
		slog.Error("unsupported printer model", "err", err)
		os.Exit(1)
	}
	serial := viper.GetString("SERIAL")
	listenPort := viper.GetInt("LISTEN_PORT")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Settings store
	var store *config.Store
	if dataDir := viper.GetString("DATA_DIR"); dataDir != "" {
		store, err = config.NewStore(dataDir)
		if err != nil {
			slog.Error("settings store unavailable", "dir", dataDir, "err", err)
			os.Exit(1)
		}
	} else {
		store = config.NewMemoryStore()
		slog.Info("QLABEL_DATA_DIR not set, settings are not persisted")
	}

	// Environment overrides for the stored settings
	settings := store.Get()
	changed := false
	if media := viper.GetString("MEDIA"); media != "" && media != settings.Media {
		settings.Media = media
		changed = true
	}
	if dir := viper.GetString("ARCHIVE_DIR"); dir != "" && settings.ArchiveDir == "" {
		settings.ArchiveDir = dir
		changed = true
	}
	if changed {
		if err := store.Update(settings); err != nil {
			slog.Warn("failed to save settings", "err", err)
		}
	}

	cfg, err := settings.PrintConfig(model, serial)
	if err != nil {
		slog.Error("invalid print settings", "err", err)
		os.Exit(1)
	}

	// Connect to the printer
	p, err := printer.Connect(cfg)
	if err != nil {
		slog.Error("printer connection failed", "model", model, "err", err)
		logAvailablePrinters()
		os.Exit(1)
	}
	defer p.Close()
	p.SetArchiveDir(settings.ArchiveDir)

	// Probe once so media trouble shows up before the first job
	if st, err := p.Status(); err != nil {
		slog.Warn("status probe failed", "err", err)
	} else {
		slog.Info("printer ready", "phase", st.Phase, "media", st.Media)
		if st.Media != raster.MediaUnknown && st.Media != cfg.Media {
			slog.Warn("installed media differs from configured media", "installed", st.Media, "configured", cfg.Media)
		}
	}

	seed := serial
	if seed == "" {
		seed = model.String()
	}
	deviceUUID := uuid.SHA1(uuid.NameSpaceDNS, "qlabel."+seed)

	info := webui.DeviceInfo{
		Model:   model.String(),
		Serial:  serial,
		Product: "Brother " + model.String(),
		UUID:    deviceUUID.String(),
	}

	addr := fmt.Sprintf(":%d", listenPort)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: logMiddleware(webui.NewHandler(p, store, info)),
	}

	// Advertise the web UI over mDNS
	serviceName := fmt.Sprintf("QL Label Server (%s)", model)
	mdnsServer, err := zeroconf.Register(
		serviceName,
		"_http._tcp",
		"local.",
		listenPort,
		[]string{
			"txtvers=1",
			"ty=" + info.Product,
			"note=label printer",
			"uuid=" + info.UUID,
		},
		nil,
	)
	if err != nil {
		slog.Error("mDNS registration failed", "err", err)
		os.Exit(1)
	}
	defer mdnsServer.Shutdown()
	slog.Info("mDNS registered", "name", serviceName, "service", "_http._tcp")

	// Start HTTP server
	go func() {
		slog.Info("web ui starting", "addr", addr, "url", fmt.Sprintf("http://%s/", net.JoinHostPort(localIP(), strconv.Itoa(listenPort))))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}

// logAvailablePrinters lists every recognized QL printer on the bus to help
// diagnose a failed connection.
func logAvailablePrinters() {
	infos, err := usb.ListPrinters()
	if err != nil {
		slog.Warn("printer enumeration failed", "err", err)
		return
	}
	if len(infos) == 0 {
		slog.Info("no QL printers detected on USB")
		return
	}
	for _, info := range infos {
		slog.Info("detected printer", "model", info.Model, "serial", info.Serial, "product", info.Product)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// localIP returns the interface address used to reach the local network.
func localIP() string {
	conn, err := net.Dial("udp4", net.JoinHostPort("224.0.0.1", "80"))
	if err != nil {
		return "0.0.0.0"
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP.String()
}

// responseRecorder captures the status code for logging.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(rec, r)
		slog.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
