package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"voxchat/internal/config"
	"voxchat/internal/ipc"
	"voxchat/pkg/protocol"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: voxchat-ctl [flags] reset|quit|ask <text>\n\n")
	cli.PrintDefaults()
}

func main() {
	socket := cli.StringP("socket", "s", envOr("CONTROL_SOCKET", config.DefaultControlSocket), "Control socket of the interactive assistant")
	addr := cli.StringP("addr", "a", envOr("HTTP_ADDR", config.DefaultHTTPAddr), "Address of voxchat-server (for ask)")
	session := cli.StringP("session", "S", "", "Session id")
	timeout := cli.DurationP("timeout", "t", 60*time.Second, "Timeout for ask")
	cli.Usage = usage
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case ipc.CmdReset, ipc.CmdQuit:
		if err := ipc.Send(*socket, ipc.ControlMessage{Cmd: args[0], SessionID: *session}); err != nil {
			fmt.Println("voxchat not running:", err)
			os.Exit(1)
		}
	case "ask":
		text := strings.TrimSpace(strings.Join(args[1:], " "))
		if text == "" {
			usage()
			os.Exit(2)
		}
		if err := ask(*addr, *session, text, *timeout); err != nil {
			fmt.Fprintln(os.Stderr, "ask failed:", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func ask(addr, session, text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := protocol.Dial(ctx, "ws://"+addr+"/api/ws", timeout)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.Query(ctx, session, text)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
