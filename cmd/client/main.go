// Command client is an interactive relay peer, useful for poking at a
// running server: it can register an identifier, broadcast text, and send
// addressed binary frames.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tunnelvision/server/internal/logging"
	"github.com/tunnelvision/server/pkg/relay"
	wstransport "github.com/tunnelvision/server/pkg/transport/websocket"
)

func main() {
	cmd := &cli.Command{
		Name:  "tunnelvision-client",
		Usage: "interactive relay peer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "ws://127.0.0.1:8765/ws",
				Usage:   "relay server URL",
			},
			&cli.StringFlag{
				Name:  "hash",
				Usage: "identifier to register on connect (22 bytes)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "log level (debug, info, warn, error)",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := logging.New(logging.Config{
		Level:  cmd.String("log-level"),
		Format: "text",
	})

	client, err := wstransport.Dial(ctx, cmd.String("server"), wstransport.DefaultConnOptions())
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("connected", "server", cmd.String("server"))

	if hash := cmd.String("hash"); hash != "" {
		if err := client.Register(hash); err != nil {
			return err
		}
		logger.Info("registered", "hash", hash)
	}

	go readLoop(client, logger)

	return interact(client)
}

// readLoop prints every frame the relay delivers until the connection
// drops.
func readLoop(client *wstransport.Client, logger *logging.Logger) {
	for {
		env, err := client.ReadEnvelope()
		if err != nil {
			logger.Info("connection closed", "error", err)
			os.Exit(0)
		}

		switch env.Kind {
		case relay.KindText:
			fmt.Printf("<< text: %s\n", env.Text)
		case relay.KindBinary:
			fmt.Printf("<< binary: %d bytes\n", len(env.Data))
		case relay.KindClose:
			logger.Info("relay closed the connection", "code", env.Code, "reason", env.Reason)
			os.Exit(0)
		}
	}
}

func interact(client *wstransport.Client) error {
	fmt.Println("Commands:")
	fmt.Println("  register <hash>      - register an identifier")
	fmt.Println("  text <message>       - broadcast a text message")
	fmt.Println("  send <hash> <data>   - send data to the peer registered under hash")
	fmt.Println("  quit                 - exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		parts := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "register":
			if len(parts) < 2 {
				fmt.Println("Usage: register <hash>")
				continue
			}
			if err := client.Register(parts[1]); err != nil {
				fmt.Printf("register failed: %v\n", err)
			}

		case "text":
			if len(parts) < 2 {
				fmt.Println("Usage: text <message>")
				continue
			}
			if err := client.SendText(strings.Join(parts[1:], " ")); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}

		case "send":
			if len(parts) < 3 {
				fmt.Println("Usage: send <hash> <data>")
				continue
			}
			body := []byte(strings.Join(parts[2:], " "))
			if err := client.SendTo(parts[1], body); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}

		case "quit":
			return nil

		default:
			fmt.Printf("Unknown command: %s\n", parts[0])
		}
	}
}
