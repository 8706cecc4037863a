// waste-client - консольный клиент маркетплейса вывоза отходов.
//
//	waste-client [-config path] login <email>
//	waste-client [-config path] register <email> [display name]
//	waste-client [-config path] whoami | logout | requests [status] | areas
//
// Пароль берётся из WASTE_PASSWORD или из первой строки stdin.
// Результат печатается в stdout как JSON, логи идут в stderr.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/go-waste-client/internal/clients"
	"github.com/pribylovaa/go-waste-client/internal/config"
	"github.com/pribylovaa/go-waste-client/internal/metrics"
	"github.com/pribylovaa/go-waste-client/internal/models"
	"github.com/pribylovaa/go-waste-client/internal/session"
	"github.com/pribylovaa/go-waste-client/internal/storage/backend"
	"github.com/pribylovaa/go-waste-client/internal/tokenstore"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var errUsage = errors.New("usage: waste-client [-config path] <login|register|whoami|logout|requests|areas> [args]")

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log, flag.Args()); err != nil {
		log.Error("command_failed", slog.String("err", err.Error()))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	kv, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	store := tokenstore.New(kv, tokenstore.Options{Namespace: cfg.Storage.Namespace, Logger: log})
	sess := newSession(cfg, store, log, prometheus.DefaultRegisterer)
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("session_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	// Невалидная сохранённая сессия - не ошибка команды: она уже очищена.
	if _, err := sess.Initialize(ctx); err != nil && !errors.Is(err, session.ErrSessionNotVerified) {
		return err
	}

	cl := clients.New(sess.Client(), cfg.API.BaseURL)

	switch cmd, rest := args[0], args[1:]; cmd {
	case "login":
		if len(rest) < 1 {
			return errUsage
		}

		pw, err := readPassword()
		if err != nil {
			return err
		}

		if err := sess.Login(ctx, models.LoginRequest{Email: rest[0], Password: pw}); err != nil {
			return err
		}

		return printJSON(sess.State())

	case "register":
		if len(rest) < 1 {
			return errUsage
		}

		pw, err := readPassword()
		if err != nil {
			return err
		}

		req := models.RegisterRequest{Email: rest[0], Password: pw, DisplayName: strings.Join(rest[1:], " ")}
		if err := sess.Register(ctx, req); err != nil {
			return err
		}

		return printJSON(sess.State())

	case "whoami":
		return printJSON(sess.State())

	case "logout":
		sess.Logout(ctx)
		return printJSON(sess.State())

	case "requests":
		var f models.WasteRequestFilter
		if len(rest) > 0 {
			f.Status = strings.ToUpper(rest[0])
		}

		page, err := cl.API.ListWasteRequests(ctx, f)
		if err != nil {
			return err
		}

		return printJSON(page)

	case "areas":
		areas, err := cl.API.ListServiceAreas(ctx)
		if err != nil {
			return err
		}

		return printJSON(areas)

	default:
		return errUsage
	}
}

// newSession собирает сессию с метриками пайплайна в reg.
func newSession(cfg *config.Config, store session.TokenStore, log *slog.Logger, reg prometheus.Registerer) *session.Session {
	return session.New(store, session.Options{
		BaseURL:        cfg.API.BaseURL,
		UserAgent:      cfg.API.UserAgent,
		RequestTimeout: cfg.Timeouts.Request,
		RefreshTimeout: cfg.Timeouts.Refresh,
		Logger:         log,
		Metrics:        metrics.NewClient(reg),
	})
}

func readPassword() (string, error) {
	if pw := os.Getenv("WASTE_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setupLogger пишет в stderr: stdout занят результатом команды.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
}
