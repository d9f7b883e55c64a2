// Command tglog forwards lines read from stdin to a Telegram chat.
//
//	tglog -config tglog.toml [-async] [-queued] [-redis addr] [key=value ...]
//
// Without -config the token and chat come from TGLOG_TOKEN and TGLOG_CHAT_ID
// or from key=value overrides.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tglog"
	"github.com/lixenwraith/tglog/redisgate"
)

const maxLineSize = 1 << 20

func main() {
	configPath := flag.String("config", "", "TOML config file (keys under [tglog])")
	async := flag.Bool("async", false, "deliver from a background worker")
	queued := flag.Bool("queued", false, "buffer records in a bounded queue")
	redisAddr := flag.String("redis", "", "share rate limiting through this Redis")
	verbose := flag.Bool("v", false, "log each delivery failure")
	flag.Parse()

	zerolog.TimeFieldFormat = time.TimeOnly
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	if err := run(log, *configPath, *async, *queued, *redisAddr, *verbose, flag.Args()); err != nil {
		log.Error().Err(err).Msg("tglog failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger, configPath string, async, queued bool, redisAddr string, verbose bool, overrides []string) error {
	cfg, err := loadConfig(configPath, overrides)
	if err != nil {
		return err
	}

	builder := tglog.NewBuilderFromConfig(cfg)
	if async {
		builder.Async()
	}
	if queued {
		builder.Queued()
	}

	var failures atomic.Int64
	builder.OnError(func(err error) {
		failures.Add(1)
		if verbose {
			log.Warn().Err(err).Msg("delivery failed")
		}
	})

	if redisAddr != "" {
		limiter, err := redisgate.New(redisgate.Config{Addr: redisAddr}, cfg.Token, cfg.ChatID,
			time.Duration(cfg.MinIntervalMs)*time.Millisecond)
		if err != nil {
			return err
		}
		defer limiter.Close()
		builder.With(tglog.WithLimiter(limiter))
	}

	h, err := builder.Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	count := 0
loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if line == "" {
				continue
			}
			h.Handle(tglog.NewRecord(tglog.LevelInfo, line))
			count++
		case <-ctx.Done():
			log.Info().Msg("interrupted, flushing")
			break loop
		}
	}

	closeErr := h.Close()

	ev := log.Info().Int("lines", count)
	if s, ok := h.(interface{ Stats() tglog.Stats }); ok {
		st := s.Stats()
		ev = ev.Uint64("sent", st.Sent).Uint64("failed", st.Failed).Uint64("dropped", st.Dropped)
	}
	ev.Msg("done")

	select {
	case err := <-readErr:
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	default:
	}
	if closeErr != nil {
		return closeErr
	}
	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%d delivery failures", n)
	}
	return nil
}

// loadConfig layers the file (or defaults), TGLOG_TOKEN / TGLOG_CHAT_ID and
// the command line overrides, validating only the result
func loadConfig(path string, overrides []string) (*tglog.Config, error) {
	cfg := tglog.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = tglog.LoadConfigFile(path); err != nil {
			return nil, err
		}
	}

	var env []string
	if v := os.Getenv("TGLOG_TOKEN"); v != "" {
		env = append(env, "token="+v)
	}
	if v := os.Getenv("TGLOG_CHAT_ID"); v != "" {
		env = append(env, "chat_id="+v)
	}
	if err := cfg.ApplyOverride(append(env, overrides...)...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
