// FILE: example/zerolog/main.go
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tglog"
	"github.com/lixenwraith/tglog/compat"
)

func main() {
	handler, err := tglog.NewBuilder().
		Token(os.Getenv("TGLOG_TOKEN")).
		ChatID(os.Getenv("TGLOG_CHAT_ID")).
		Format("json").
		ParseMode("MarkdownV2").
		Async().
		Build()
	if err != nil {
		panic(err)
	}
	defer handler.Close()

	// Console gets everything, the chat gets warnings and above
	tg := compat.NewZerologWriter(handler,
		compat.WithZerologMinLevel(zerolog.WarnLevel),
		compat.WithZerologName("billing"),
	)
	log := zerolog.New(zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr}, tg)).
		With().Timestamp().Logger()

	log.Info().Str("invoice", "INV-1").Msg("invoice created")
	log.Warn().Str("invoice", "INV-1").Int("attempt", 3).Msg("payment retried")
	log.Error().Err(errors.New("card declined")).Msg("payment failed")

	// The same handler behind log/slog
	slogger := slog.New(compat.NewSlogHandler(handler, compat.WithSlogName("billing")))
	slogger.WithGroup("job").Error("reconcile failed", "id", 42)
}
