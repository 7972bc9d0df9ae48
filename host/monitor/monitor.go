// Package monitor turns the firmware's console stream into per-sensor
// readings and hands each update to a set of sinks.
package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"dhtcode-go/host/config"
	"dhtcode-go/services/console"
)

// Sink receives every updated reading.
type Sink interface {
	Publish(r Reading) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r Reading) error

func (f SinkFunc) Publish(r Reading) error { return f(r) }

// Monitor reads console lines and maintains an Aggregator.
type Monitor struct {
	agg   *Aggregator
	sinks []Sink

	lines, bad int
}

func New(sinks ...Sink) *Monitor {
	return &Monitor{agg: NewAggregator(), sinks: sinks}
}

// Readings exposes the aggregated state.
func (m *Monitor) Readings() *Aggregator { return m.agg }

// Run consumes r line by line until EOF or ctx ends. Malformed lines, such
// as boot chatter on the same UART, are skipped.
func (m *Monitor) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.lines++
		rec, err := console.ParseLine(sc.Text())
		if err != nil {
			m.bad++
			if glog.V(2) {
				glog.Infof("skipping line %q", sc.Text())
			}
			continue
		}
		m.Handle(rec)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("reading console: %w", err)
	}
	glog.Infof("console closed after %d lines (%d skipped)", m.lines, m.bad)
	return ctx.Err()
}

// Handle applies one record and fans the result out.
func (m *Monitor) Handle(rec console.Record) {
	rd, ok := m.agg.Apply(rec)
	if !ok {
		return
	}
	if glog.V(1) {
		glog.Infof("%s: link=%s err=%q", rd.Name, rd.Link, rd.Error)
	}
	for _, s := range m.sinks {
		if err := s.Publish(rd); err != nil {
			glog.Warningf("sink publish for %s failed: %v", rd.Name, err)
		}
	}
}

// Open returns the console source described by cfg: stdin for "-",
// otherwise the named serial port. Closing it unblocks Run.
func Open(cfg config.SerialConfig) (io.ReadCloser, error) {
	if cfg.Port == config.StdinPort {
		return os.Stdin, nil
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	return port, nil
}

// Ports lists the serial ports present on this host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
