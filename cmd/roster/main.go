// Command roster connects to a running relay, requests the online
// list, and renders it as a table. Handy for checking who is connected
// without opening a browser client.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"relay-lab/client"
	"relay-lab/domain"
)

type Config struct {
	RelayURL string        `env:"RELAY_URL,default=ws://localhost:10080/ws"`
	Nickname string        `env:"ROSTER_NICKNAME,default=roster"`
	Token    string        `env:"ROSTER_TOKEN"`
	Timeout  time.Duration `env:"ROSTER_TIMEOUT,default=5s"`
	LogLevel string        `env:"LOG_LEVEL,default=WARN"`
	Colours  bool          `env:"ROSTER_COLOURS,default=true"`
}

func main() {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	agent, err := client.Dial(ctx, config.RelayURL, logger)
	if err != nil {
		log.Fatalf("Failed to reach relay at %s: %v", config.RelayURL, err)
	}
	defer agent.Close()

	listCh := make(chan []domain.Profile, 1)

	agent.On(client.EventConnect, func([]json.RawMessage) {
		_ = agent.List(nil)
	})
	agent.On(client.EventList, func(args []json.RawMessage) {
		var profiles []domain.Profile
		if len(args) > 0 {
			_ = json.Unmarshal(args[0], &profiles)
		}
		listCh <- profiles
	})
	agent.On(client.EventError, func(args []json.RawMessage) {
		logger.Warn("relay error", "args", args)
	})

	if err := agent.Connect(domain.Credentials{Nickname: config.Nickname, Token: config.Token}); err != nil {
		log.Fatalf("Connect failed: %v", err)
	}

	select {
	case <-ctx.Done():
		log.Fatalf("No roster received within %v", config.Timeout)
	case profiles := <-listCh:
		render(config, profiles)
	}

	_ = agent.Disconnect()
}

func render(config Config, profiles []domain.Profile) {
	header := fmt.Sprintf("  ====== Online sessions: %d ======", len(profiles))
	if config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Session", "Nickname", "Friends", "Groups"})

	rows := lo.Map(profiles, func(p domain.Profile, _ int) []string {
		return []string{
			p.SessionID,
			p.Nickname,
			strings.Join(p.Friends, ","),
			strings.Join(p.Groups, ","),
		}
	})
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}
