// FILE: example/fasthttp/main.go
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/tglog"
	"github.com/lixenwraith/tglog/compat"
)

func main() {
	cfg := tglog.DefaultConfig()
	err := cfg.ApplyOverride(
		"token="+os.Getenv("TGLOG_TOKEN"),
		"chat_id="+os.Getenv("TGLOG_CHAT_ID"),
		"level=0",
		"parse_mode=HTML",
		"queue_size=256",
	)
	if err != nil {
		panic(err)
	}

	builder := compat.NewBuilder().WithConfig(cfg, tglog.WithErrorCallback(func(err error) {
		fmt.Fprintf(os.Stderr, "telegram delivery: %v\n", err)
	}))
	logger, err := builder.GetLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	// Create fasthttp adapter with custom level detection
	fasthttpAdapter, err := builder.BuildFastHTTP(
		compat.WithDefaultLevel(tglog.LevelInfo),
		compat.WithLevelDetector(customLevelDetector),
	)
	if err != nil {
		panic(err)
	}

	// Configure fasthttp server
	server := &fasthttp.Server{
		Handler: requestHandler,
		Logger:  fasthttpAdapter,

		Name:         "MyServer",
		Concurrency:  fasthttp.DefaultConcurrency,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("server starting", "addr", ":8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		logger.Error("server stopped", "error", err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
}

func customLevelDetector(msg string) int64 {
	if strings.Contains(msg, "connection cannot be served") {
		return tglog.LevelWarn
	}
	if strings.Contains(msg, "error when serving connection") {
		return tglog.LevelError
	}

	// Use default detection
	return compat.DetectLogLevel(msg)
}
