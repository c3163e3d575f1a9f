package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/stats"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

var conf = config.Get()

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(parseLogLevel(conf.Configuration.LogLevel))
}

func main() {
	log.Infof("%s LRCLIB %s (timeout %v), native fallback: %v",
		logcolors.LogConfig, conf.LRCLib.BaseURL, conf.RequestTimeout(), conf.FeatureFlags.NativeFallback)

	a := newApp(conf, setupBridge(conf))
	defer a.close()

	server := &http.Server{
		Addr:              ":" + conf.Configuration.Port,
		Handler:           a.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("%s Listening on port %s", logcolors.LogServer, conf.Configuration.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("%s %v", logcolors.LogServer, err)
		}
	case <-ctx.Done():
		log.Infof("%s Shutting down", logcolors.LogServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("%s Shutdown: %v", logcolors.LogServer, err)
		}

		s := stats.Get()
		log.Infof("%s Served %d requests over %v, cache hit rate %.1f%%",
			logcolors.LogStats, s.TotalRequests.Load(), s.Uptime().Round(time.Second), s.CacheHitRate())
	}
}
