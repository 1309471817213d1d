// Command usp-agent simulates a TR-369 agent talking to the controller over WebSocket or MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/logging"
	"github.com/dexter939/EvoAcs-sub001/pkg/config"
	"github.com/dexter939/EvoAcs-sub001/pkg/version"
)

func main() {
	envFile := flag.String("env", "", "Optional .env file with agent settings")
	mtpType := flag.String("mtp", "", "Transport override: websocket or mqtt")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion("usp-agent"))
		return
	}

	cfg, err := config.LoadTR369Config(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *mtpType != "" {
		cfg.MTPType = *mtpType
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, "usp-agent").With().Str("endpoint_id", cfg.EndpointID).Logger()

	var transport Transport
	switch cfg.MTPType {
	case "websocket":
		transport = NewWebSocketTransport(cfg.WebSocketURL, log)
	case "mqtt":
		transport = NewMQTTTransport(cfg, log)
	default:
		log.Fatal().Str("mtp", cfg.MTPType).Msg("❌ Unsupported MTP type")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, NewAgent(cfg, log), transport, log); err != nil {
		log.Error().Err(err).Msg("❌ Agent stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, agent *Agent, t Transport, log zerolog.Logger) error {
	if err := t.Connect(); err != nil {
		return err
	}
	defer t.Close()

	boot, err := agent.BootRecord()
	if err != nil {
		return err
	}
	if err := t.Send(boot); err != nil {
		return fmt.Errorf("failed to send boot notification: %w", err)
	}
	log.Info().Str("mtp", t.Name()).Msg("🚀 USP agent running")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("🛑 USP agent stopping")
			return nil
		case raw, ok := <-t.Inbound():
			if !ok {
				return fmt.Errorf("%s transport closed", t.Name())
			}
			reply, err := agent.HandleRecord(raw)
			if err != nil {
				log.Warn().Err(err).Msg("⚠️ Undecodable record from controller")
				continue
			}
			if reply == nil {
				continue
			}
			if err := t.Send(reply); err != nil {
				log.Error().Err(err).Msg("❌ Failed to send response")
			}
		}
	}
}
