// Command cwmp-agent simulates a TR-069 CPE: it informs the ACS, executes the RPCs it is
// given and answers Digest-authenticated connection requests.
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

	"github.com/dexter939/EvoAcs-sub001/internal/logging"
	"github.com/dexter939/EvoAcs-sub001/pkg/config"
	"github.com/dexter939/EvoAcs-sub001/pkg/version"
)

func main() {
	envFile := flag.String("env", "", "Optional .env file with CPE settings")
	acsURL := flag.String("acs", "", "ACS URL override")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion("cwmp-agent"))
		return
	}

	cfg, err := config.LoadTR069Config(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *acsURL != "" {
		cfg.ACSURL = *acsURL
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, "cwmp-agent").With().Str("serial", cfg.SerialNumber).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cpe := NewCPE(cfg, log)
	mux := http.NewServeMux()
	mux.Handle("/", NewConnectionRequestHandler(cfg.ConnectionRequestUsername, cfg.ConnectionRequestPassword,
		cfg.ConnectionRequestRealm, cpe.Wake, log))
	srv := &http.Server{Addr: cfg.ConnectionRequestAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info().Str("addr", cfg.ConnectionRequestAddr).Str("url", cfg.ConnectionRequestURL).Msg("📞 Connection request listener started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("❌ Connection request listener failed")
			stop()
		}
	}()

	log.Info().Str("acs", cfg.ACSURL).Msg("🚀 CPE simulator running")
	runErr := cpe.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if runErr != nil {
		log.Error().Err(runErr).Msg("❌ CPE stopped")
		os.Exit(1)
	}
}
