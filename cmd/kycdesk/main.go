// Command kycdesk is the reviewer console for the kycdesk backend.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"kycdesk/internal/desk/api"
	"kycdesk/internal/desk/screen"
	"kycdesk/internal/desk/session"
	"kycdesk/internal/platform/logger"
	"kycdesk/internal/platform/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, flags, rest, err := loadConfig(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if len(rest) == 0 {
		printUsage(stderr)
		return 2
	}
	log := logger.NewWithWriter(stderr, cfg.LogLevel)
	lang := screen.ParseLang(cfg.Lang)

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, "session storage:", err)
		return 1
	}
	defer closeStore()

	sess := session.New(store, session.WithLogger(log))
	if err := sess.Init(ctx); err != nil {
		log.Warn("failed to restore session", "error", err)
	}
	client := api.New(cfg.Server, cfg.Timeout, sess, api.WithLogger(log))
	a := &app{
		cfg:    cfg,
		flags:  flags,
		sess:   sess,
		client: client,
		desk:   screen.New(client, sess, screen.WithLogger(log)),
		in:     stdin,
		out:    stdout,
		logger: log,
	}

	if err := a.dispatch(ctx, rest[0], rest[1:]); err != nil {
		if to, ok := screen.IsRedirect(err); ok && to == screen.RouteLogin {
			fmt.Fprintln(stderr, screen.Message(err, lang))
			fmt.Fprintln(stderr, "run: kycdesk login <username>")
			return 1
		}
		fmt.Fprintln(stderr, screen.Message(err, lang))
		return 1
	}
	return 0
}

func openSessionStore(ctx context.Context, cfg *consoleConfig) (session.Storage, func(), error) {
	switch cfg.Session.Store {
	case "", "file":
		return session.NewFileStore(cfg.Session.Path), func() {}, nil
	case "redis":
		client, err := redis.New(ctx, redis.Config{URL: cfg.Redis.URL})
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("redis.url is required for the redis session store")
		}
		return session.NewRedisStore(client.Client, cfg.Session.Profile), func() { _ = client.Close() }, nil
	case "memory":
		return session.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// app carries the wired console for one command.
type app struct {
	cfg    *consoleConfig
	flags  *commandFlags
	sess   *session.Session
	client *api.Client
	desk   *screen.Dispatcher
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}
