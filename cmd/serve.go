// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Eilik CFW Project

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eilik-cfw/eilikemu/internal/config"
	"github.com/eilik-cfw/eilikemu/pkg/emulator"
	"github.com/eilik-cfw/eilikemu/pkg/protocol"
)

var (
	serveListen   string
	serveLogLevel string
	serveTickMs   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the device emulator",
	Long: `Run a software emulation of the Eilik motor-control unit.

The emulator speaks the full protocol: servo motion with simulated physics,
the safety monitor, animations and behaviors, staged firmware updates, and
the debug log. Simulated time advances on a fixed tick.

Transports:
  Serial:    --port /dev/ttyUSB0   (e.g. one end of a socat PTY pair)
  WebSocket: --listen 127.0.0.1:8765

A YAML file given with --config overrides identity, safety limits,
simulation rates, and behavior timing.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "WebSocket listen address")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().IntVar(&serveTickMs, "tick-ms", 10, "Simulation tick interval in milliseconds")
}

// deviceRequest is one decoded frame awaiting dispatch, with the channel the
// encoded response goes back on.
type deviceRequest struct {
	packet *protocol.Packet
	reply  chan<- []byte
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := config.Validate(loaded); err != nil {
			return err
		}
		cfg = loaded
	}

	if cfg.Serve.Listen != "" && serveListen == "" {
		serveListen = cfg.Serve.Listen
	}
	if cfg.Serve.Port != "" && portName == "" {
		portName = cfg.Serve.Port
	}
	if cfg.Serve.Baud != 0 && baudRate == 115200 {
		baudRate = cfg.Serve.Baud
	}
	if cfg.Serve.LogLevel != "" && serveLogLevel == "info" {
		serveLogLevel = cfg.Serve.LogLevel
	}
	if cfg.Emulator.Sim.TickMs > 0 {
		serveTickMs = cfg.Emulator.Sim.TickMs
	}

	logger, err := buildLogger(serveLogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	device := emulator.NewDevice(append(
		config.DeviceOptions(cfg),
		emulator.WithLogger(logger.Named("device")),
	)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	requests := make(chan deviceRequest, 16)
	go deviceLoop(ctx, device, requests, time.Duration(serveTickMs)*time.Millisecond)

	switch {
	case serveListen != "":
		return serveWebSocket(ctx, logger, requests)
	case portName != "":
		return serveSerial(ctx, logger, requests)
	default:
		return fmt.Errorf("either --port or --listen must be specified")
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %v", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	return cfg.Build()
}

// deviceLoop owns the device: all command dispatch and time advancement
// happen on this goroutine, so the device itself needs no locking.
func deviceLoop(ctx context.Context, device *emulator.Device, requests <-chan deviceRequest, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return

		case req := <-requests:
			resp := device.Handle(req.packet)
			select {
			case req.reply <- protocol.MustEncode(resp):
			case <-ctx.Done():
				return
			}

		case now := <-ticker.C:
			device.Tick(float64(now.Sub(last)) / float64(time.Millisecond))
			last = now
		}
	}
}

// pumpConnection reads frames from one transport connection, dispatches them
// to the device loop, and writes responses back. Checksum failures are
// answered directly with a CRC_MISMATCH status; the device never sees the
// corrupt frame.
func pumpConnection(ctx context.Context, logger *zap.Logger, conn Connection, requests chan<- deviceRequest) error {
	reply := make(chan []byte, 1)
	decoder := protocol.NewDecoder()
	buf := make([]byte, 256)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}

		for i := 0; i < n; i++ {
			packet, decodeErr := decoder.DecodeByte(buf[i])
			if decodeErr != nil {
				if ce, ok := decodeErr.(*protocol.ChecksumError); ok {
					logger.Warn("dropping corrupt frame", zap.Error(ce))
					nak := protocol.NewResponse(ce.Command, protocol.StatusCRCMismatch, nil)
					if _, err := conn.Write(protocol.MustEncode(nak)); err != nil {
						return err
					}
				}
				continue
			}
			if packet == nil {
				continue
			}

			select {
			case requests <- deviceRequest{packet: packet, reply: reply}:
			case <-ctx.Done():
				return ctx.Err()
			}

			select {
			case frame := <-reply:
				if _, err := conn.Write(frame); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func serveSerial(ctx context.Context, logger *zap.Logger, requests chan<- deviceRequest) error {
	conn, err := OpenSerialConnection(portName, baudRate)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("emulator listening",
		zap.String("transport", "serial"),
		zap.String("port", portName),
		zap.Int("baud", baudRate))

	// Unblock the serial read on shutdown
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	err = pumpConnection(ctx, logger, conn, requests)
	if ctx.Err() != nil {
		logger.Info("emulator stopped")
		return nil
	}
	return err
}

func serveWebSocket(ctx context.Context, logger *zap.Logger, requests chan<- deviceRequest) error {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("upgrade failed", zap.Error(err))
			return
		}
		remote := wsConn.RemoteAddr().String()
		logger.Info("client connected", zap.String("remote", remote))

		conn := &WebSocketConnection{conn: wsConn}
		defer conn.Close()

		if err := pumpConnection(ctx, logger, conn, requests); err != nil && ctx.Err() == nil {
			logger.Info("client disconnected", zap.String("remote", remote), zap.Error(err))
		}
	})

	server := &http.Server{Addr: serveListen, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("emulator listening",
		zap.String("transport", "websocket"),
		zap.String("addr", serveListen))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	logger.Info("emulator stopped")
	return nil
}
