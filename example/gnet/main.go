// FILE: example/gnet/main.go
package main

import (
	"os"

	"github.com/panjf2000/gnet/v2"

	"github.com/lixenwraith/tglog"
	"github.com/lixenwraith/tglog/compat"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	// Only warnings and errors from the engine reach the chat
	handler, err := tglog.NewBuilder().
		Token(os.Getenv("TGLOG_TOKEN")).
		ChatID(os.Getenv("TGLOG_CHAT_ID")).
		LevelString("warn").
		Async().
		Build()
	if err != nil {
		panic(err)
	}

	gnetAdapter, err := compat.NewBuilder().WithHandler(handler).BuildStructuredGnet()
	if err != nil {
		panic(err)
	}

	// Configure gnet server with the logger
	err = gnet.Run(
		&echoServer{},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	_ = handler.Close()
	if err != nil {
		panic(err)
	}
}
