// Command tsdemux-capture reads a transport stream from a multicast UDP
// address, archives the raw packets to a bounded capture file, re-emits
// decoded SI/PSI events to Prometheus and a live WebSocket feed, and
// periodically snapshots the decoded model to SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mpegdemux/tsdemux"
	"github.com/mpegdemux/tsdemux/bridge"
	"github.com/mpegdemux/tsdemux/metrics"
	"github.com/mpegdemux/tsdemux/sink"
	"github.com/mpegdemux/tsdemux/source"
	"github.com/mpegdemux/tsdemux/store"
)

func main() {
	var (
		input      = flag.String("i", "", "multicast source, e.g. 239.1.1.1:5000")
		capturePath = flag.String("capture", "capture.ts", "bounded capture file path")
		captureMax = flag.Int64("capture-max-bytes", 256<<20, "capture file size before it wraps")
		logPath    = flag.String("log", "", "log file path; rotated with lumberjack. Empty logs to stderr")
		dbPath     = flag.String("db", "tsdemux.db", "SQLite snapshot database path")
		metricsAddr = flag.String("metrics-addr", ":9102", "Prometheus/WebSocket listen address")
		snapshotEvery = flag.Duration("snapshot-every", 5*time.Second, "model snapshot interval")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "tsdemux-capture: -i is required")
		os.Exit(2)
	}

	var logOut io.Writer = os.Stderr
	if *logPath != "" {
		logOut = &lumberjack.Logger{Filename: *logPath, MaxSize: 50, MaxBackups: 5, MaxAge: 14, Compress: true}
	}
	stdLogger := log.New(logOut, "tsdemux-capture: ", log.LstdFlags)
	l := astikit.AdaptStdLogger(stdLogger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	src, err := source.UDP(source.UDPConfig{Addr: *input}, l)
	if err != nil {
		l.Fatalf("tsdemux-capture: opening source: %s", err)
	}
	defer src.Close()

	queue, err := sink.NewFileQueue(*capturePath, *captureMax, 0)
	if err != nil {
		l.Fatalf("tsdemux-capture: opening capture file: %s", err)
	}
	defer queue.Close()

	st, err := store.OpenSQLite(ctx, *dbPath)
	if err != nil {
		l.Fatalf("tsdemux-capture: opening database: %s", err)
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	exporter, err := metrics.NewExporter(reg)
	if err != nil {
		l.Fatalf("tsdemux-capture: registering metrics: %s", err)
	}

	ws := bridge.NewWebSocket()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/events", ws)
	httpServer := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("tsdemux-capture: http server: %s", err)
		}
	}()
	defer httpServer.Close()

	d := tsdemux.NewDemuxer(io.TeeReader(src, queue), tsdemux.DemuxerOptLogger(l), tsdemux.DemuxerOptHidePacketSeen())

	ticker := time.NewTicker(*snapshotEvery)
	defer ticker.Stop()

	for ctx.Err() == nil {
		select {
		case <-ticker.C:
			if err := st.SnapshotModel(ctx, d.Model(), time.Now()); err != nil {
				l.Errorf("tsdemux-capture: snapshot failed: %s", err)
			}
		default:
		}

		ev, err := d.NextEvent()
		if err != nil {
			if err != io.EOF {
				l.Errorf("tsdemux-capture: %s", err)
			}
			break
		}
		exporter.Observe(ev)
		ws.Send(ev)
	}
}
