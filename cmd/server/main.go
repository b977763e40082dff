package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-fb-ads-gateway/auth"
	"github.com/jrsteele09/go-fb-ads-gateway/graph"
	"github.com/jrsteele09/go-fb-ads-gateway/internal/config"
	"github.com/jrsteele09/go-fb-ads-gateway/internal/logging"
	"github.com/jrsteele09/go-fb-ads-gateway/oauthstate"
	"github.com/jrsteele09/go-fb-ads-gateway/permissions"
	"github.com/jrsteele09/go-fb-ads-gateway/provider/facebook"
	"github.com/jrsteele09/go-fb-ads-gateway/server"
	"github.com/jrsteele09/go-fb-ads-gateway/tokencipher"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
			if errors.Is(err, errConfig) {
				os.Exit(1)
			}
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

var errConfig = errors.New("invalid configuration")

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())
	if c.UsesDevTokenEncryptionKey() {
		log.Warn().Msg("TOKEN_ENCRYPTION_KEY is not set: sealing tokens with the built-in DEV key, never use this outside local development")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states, closeStates, err := newStateStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeStates()

	handler, err := newHandler(c, states)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// newStateStore uses Redis when REDIS_URL is set so several replicas share
// pending authorizations. Otherwise states live in process memory.
func newStateStore(ctx context.Context, c config.Config) (oauthstate.Store, func(), error) {
	if c.GetRedisURL() == "" {
		store := oauthstate.NewInMemoryStore(c.GetOAuthStateTTL())
		go store.RunSweeper(ctx, c.GetStateSweepInterval())
		log.Info().Msg("OAuth state store: in-memory")
		return store, func() {}, nil
	}

	opts, err := redis.ParseURL(c.GetRedisURL())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse redis URL: %v", errConfig, err)
	}
	opts.PoolSize = c.GetRedisPoolSize()
	opts.DialTimeout = c.GetRedisDialTimeout()

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, c.GetRedisDialTimeout())
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info().Str("addr", opts.Addr).Msg("OAuth state store: redis")
	store := oauthstate.NewRedisStore(client, oauthstate.WithTTL(c.GetOAuthStateTTL()))
	return store, func() { _ = client.Close() }, nil
}

func newHandler(c config.Config, states oauthstate.Store) (http.Handler, error) {
	cipher, err := tokencipher.New(c.GetTokenEncryptionKey())
	if err != nil {
		return nil, err
	}

	fb, err := facebook.New(facebook.ConfigFrom(c))
	if err != nil {
		return nil, err
	}
	graphClient := graph.New(cipher, fb, graph.WithMaxPages(c.GetGraphMaxPages()))

	authService, err := auth.NewAuthorizationService(auth.Deps{
		States:     states,
		Provider:   fb,
		Gate:       permissions.NewGate(permissions.Policy{Required: c.GetRequiredScopes()}),
		Sealer:     cipher,
		AdAccounts: graphClient,
	})
	if err != nil {
		return nil, err
	}

	return server.New(c, authService, graphClient, promhttp.Handler())
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
