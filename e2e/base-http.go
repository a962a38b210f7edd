package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseHttpSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and skips when no relay is reachable.
func (s *BaseHttpSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayAddr == "" {
		s.T().Skip("RELAY_ADDR not set, skipping end-to-end tests")
	}
}

// Event is one server-sent event as read from the stream.
type Event struct {
	Kind string
	Data json.RawMessage
}

// Client is one connection to the relay: an event stream plus a command endpoint.
type Client struct {
	t         *testing.T
	suite     *BaseHttpSuite
	name      string
	SessionID string
	events    chan Event
	cancel    context.CancelFunc
}

// Connect opens an event stream and waits for the session handle.
func (s *BaseHttpSuite) Connect(name string) *Client {
	t := s.T()
	header := fmt.Sprintf("  ====== %s connects ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Config.RelayAddr+"/events", nil)
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err, "Failed to open stream at "+s.Config.RelayAddr)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	c := &Client{t: t, suite: s, name: name, events: make(chan Event, 64), cancel: cancel}
	go c.read(resp)
	t.Cleanup(cancel)

	session := c.Expect("session")
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	s.Require().NoError(json.Unmarshal(session.Data, &payload))
	c.SessionID = payload.SessionID
	return c
}

func (c *Client) read(resp *http.Response) {
	defer resp.Body.Close()
	defer close(c.events)
	scanner := bufio.NewScanner(resp.Body)
	var current Event
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Kind = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.Data = json.RawMessage(strings.TrimPrefix(line, "data: "))
		case line == "" && current.Kind != "":
			c.events <- current
			current = Event{}
		}
	}
}

// Send posts one command envelope and asserts it was accepted.
func (c *Client) Send(kind string, payload any) {
	c.SendExpecting(kind, payload, http.StatusAccepted)
}

func (c *Client) SendExpecting(kind string, payload any, status int) {
	body, err := json.Marshal(map[string]any{"type": kind, "payload": payload})
	c.suite.Require().NoError(err)
	if c.suite.Config.DebugJSON {
		c.t.Logf("%s -> %s", c.name, body)
	}
	url := fmt.Sprintf("%s/sessions/%s/events", c.suite.Config.RelayAddr, c.SessionID)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	c.suite.Require().NoError(err)
	defer resp.Body.Close()
	c.suite.Require().Equal(status, resp.StatusCode, "%s sending %s", c.name, kind)
}

// Expect skips keep-alive noise and returns the next event of the given kind.
func (c *Client) Expect(kind string) Event {
	deadline := time.After(c.suite.Config.EventTimeout)
	for {
		select {
		case <-deadline:
			c.suite.FailNow(fmt.Sprintf("%s never received %s", c.name, kind))
			return Event{}
		case evt, ok := <-c.events:
			c.suite.Require().True(ok, "%s stream closed while waiting for %s", c.name, kind)
			if c.suite.Config.DebugJSON {
				c.t.Logf("%s <- %s %s", c.name, evt.Kind, evt.Data)
			}
			if evt.Kind == kind {
				return evt
			}
		}
	}
}

// Close ends the session on the server side.
func (c *Client) Close() {
	url := fmt.Sprintf("%s/sessions/%s", c.suite.Config.RelayAddr, c.SessionID)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	c.suite.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	c.suite.Require().NoError(err)
	_ = resp.Body.Close()
	c.cancel()
}
