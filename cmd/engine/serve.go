package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/httpapi"
	"jobsearch-engine/internal/scheduler"
	"jobsearch-engine/internal/secrets"
	"jobsearch-engine/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Runs the HTTP API on 127.0.0.1, refreshing records from the configured sheets on the configured interval.",
	RunE:  runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Interface to bind")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port (default app.port from config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// one server per data dir; the snapshot db has a single writer
	lock := flock.New(filepath.Join(a.cfg.App.DataDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return fmt.Errorf("another engine is already serving %s", a.cfg.App.DataDir)
	}
	defer func() { _ = lock.Unlock() }()

	var cfgVal atomic.Value // stores config.Config
	cfgVal.Store(a.cfg)

	hub := events.NewHub()
	deps := httpapi.Deps{
		Data:        a.data,
		Hub:         hub,
		RefTree:     a.tree,
		CfgVal:      &cfgVal,
		UserCfgPath: a.cfgPath,
		LoadCfg:     func() (config.Config, error) { return loadConfig(a.cfgPath) },
		OnConfig: func(c config.Config) {
			if flagOffline {
				return
			}
			l, err := newLoader(c)
			if err != nil {
				log.Printf("[config] new source: %v (keeping previous)", err)
				return
			}
			a.data.SetLoader(l)
		},
		SetToken:    secrets.SetSourceToken,
		DeleteToken: secrets.DeleteSourceToken,
	}
	deps.Sessions = session.NewStore(
		time.Duration(a.cfg.Sessions.TTLMinutes)*time.Minute,
		a.cfg.Sessions.Max,
		deps.NewForm,
	)

	reload := httpapi.ReloadHandler{Data: a.data, Hub: hub}
	go scheduler.Every(ctx, time.Duration(a.cfg.Source.RefreshMinutes)*time.Minute, "refresh", func(ctx context.Context) error {
		_, err := reload.Refresh(ctx, "")
		return err
	})
	go scheduler.Every(ctx, time.Minute, "sessions", func(context.Context) error {
		if n := deps.Sessions.Sweep(); n > 0 {
			log.Printf("[sessions] expired %d", n)
		}
		return nil
	})

	port := servePort
	if port == 0 {
		port = a.cfg.App.Port
	}
	addr := net.JoinHostPort(serveHost, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := httpapi.NewMux(deps)
	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
			httpapi.Cors(a.cfg.App.CORSOrigin),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(16)
	if err != nil {
		return err
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

	log.Printf("engine listening on http://%s (db=%s)", ln.Addr(), filepath.Join(a.cfg.App.DataDir, dbFile))
	// the parent process reads this line to stop the engine cleanly
	fmt.Printf("SHUTDOWN_TOKEN=%s\n", token)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Printf("engine stopped")
	return nil
}
