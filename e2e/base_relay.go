package e2e

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/stretchr/testify/suite"

	"relay-lab/client"
	"relay-lab/domain"
)

// BaseRelaySuite dials agents against an externally running relay. It
// skips every scenario when RELAY_ADDR is unset, so the package stays
// harmless in a plain unit-test run.
type BaseRelaySuite struct {
	suite.Suite
	Config Config
}

func (s *BaseRelaySuite) SetupSuite() {
	cfg, err := LoadConfig()
	s.Require().NoError(err)
	if cfg.RelayAddr == "" {
		s.T().Skip("RELAY_ADDR not set, skipping relay scenarios")
	}
	s.Config = cfg
}

// DialAgent opens one agent, registers a connect listener, and
// authenticates under the given nickname. It blocks until the relay
// acks the session.
func (s *BaseRelaySuite) DialAgent(nickname string) *client.Agent {
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.Timeout)
	defer cancel()

	agent, err := client.Dial(ctx, s.Config.RelayAddr, slog.Default())
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = agent.Close() })

	connected := make(chan struct{}, 1)
	agent.On(client.EventConnect, func([]json.RawMessage) {
		connected <- struct{}{}
	})

	err = agent.Connect(domain.Credentials{Nickname: nickname, Token: s.Config.Token})
	s.Require().NoError(err)

	select {
	case <-connected:
	case <-ctx.Done():
		s.Require().FailNowf("connect timeout", "no ms:connect for %s within %v", nickname, s.Config.Timeout)
	}
	s.Require().NotNil(agent.Session(), "connect acked but no session for %s", nickname)
	return agent
}
