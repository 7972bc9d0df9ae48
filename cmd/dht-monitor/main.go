// Command dht-monitor reads the firmware console from a serial port or
// stdin and republishes readings over MQTT and HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"dhtcode-go/host/api"
	"dhtcode-go/host/config"
	"dhtcode-go/host/monitor"
	"dhtcode-go/host/mqttsink"
)

func main() {
	cfgPath := "dht-monitor.yaml"
	listPorts := false
	flag.StringVar(&cfgPath, "config", cfgPath, "Path to the YAML config.")
	flag.BoolVar(&listPorts, "list-ports", listPorts, "List serial ports and exit.")
	flag.Parse()
	defer glog.Flush()

	if listPorts {
		ports, err := monitor.Ports()
		if err != nil {
			glog.Exitf("%v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if err := run(cfgPath); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks []monitor.Sink
	if cfg.MQTT.Broker != "" {
		s, err := mqttsink.Dial(cfg.MQTT)
		if err != nil {
			return err
		}
		defer s.Close()
		sinks = append(sinks, s)
	}
	mon := monitor.New(sinks...)

	if cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.NewRouter(mon.Readings(), cfg.StaleAfter),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			glog.Infof("http listening on %s", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				glog.Errorf("http: %v", err)
				stop()
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	src, err := monitor.Open(cfg.Serial)
	if err != nil {
		return err
	}
	// Closing the source unblocks the scanner on shutdown.
	go func() {
		<-ctx.Done()
		glog.Info("stop requested")
		src.Close()
	}()

	glog.Infof("reading console from %s", cfg.Serial.Port)
	err = mon.Run(ctx, src)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err == nil && cfg.HTTP.Addr != "" {
		// Keep serving the last readings after the source ends.
		<-ctx.Done()
	}
	return err
}
