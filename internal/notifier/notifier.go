// Package notifier delivers match reports to Discord.
package notifier

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
)

// Transport sends one message payload to a delivery channel.
type Transport interface {
	Send(content string) error
	Describe() string
}

// Result reports what a Notify call did with the matches it was given.
type Result struct {
	Sent    int
	Skipped int
}

// Notifier formats matches into chunked messages and pushes them through
// the configured transport. In dry-run mode nothing is sent; matches are
// printed as JSON instead.
type Notifier struct {
	transport Transport
	dryRun    bool
	out       io.Writer
}

// New builds a Notifier from the notify configuration. Transport selection
// prefers the webhook; a bot token plus channel id is the alternative. No
// credentials yields a notifier that can still dry-run but errors on send.
func New(cfg *config.NotifyConfig) *Notifier {
	n := &Notifier{dryRun: cfg.DryRun, out: os.Stdout}
	switch {
	case cfg.DiscordWebhookURL != "":
		n.transport = NewWebhookTransport(cfg.DiscordWebhookURL)
	case cfg.DiscordBotToken != "" && cfg.DiscordChannelID != "":
		n.transport = NewBotTransport(cfg.DiscordBotToken, cfg.DiscordChannelID)
	}
	return n
}

// NewWithTransport builds a Notifier around an explicit transport.
func NewWithTransport(transport Transport, dryRun bool, out io.Writer) *Notifier {
	if out == nil {
		out = os.Stdout
	}
	return &Notifier{transport: transport, dryRun: dryRun, out: out}
}

// Notify delivers the matches. An empty slice is a no-op. In dry-run mode
// every match is reported as skipped and printed instead of sent.
func (n *Notifier) Notify(matches []model.Match) (Result, error) {
	if len(matches) == 0 {
		return Result{}, nil
	}
	if n.dryRun {
		n.printMatches(matches)
		return Result{Skipped: len(matches)}, nil
	}

	payloads := buildPayloads(matches)
	if err := n.sendAll(payloads); err != nil {
		return Result{}, err
	}
	log.Printf("[INFO] notified %d matches in %d messages via %s",
		len(matches), len(payloads), n.transport.Describe())
	return Result{Sent: len(payloads)}, nil
}

// Test sends a single literal message, bypassing formatting and dry-run.
func (n *Notifier) Test(message string) error {
	return n.sendAll([]string{message})
}

func (n *Notifier) sendAll(payloads []string) error {
	if n.transport == nil {
		return fmt.Errorf("Discord credentials not configured. Set DISCORD_WEBHOOK_URL or DISCORD_TOKEN + DISCORD_CHANNEL_ID")
	}
	for _, payload := range payloads {
		if err := n.transport.Send(payload); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) printMatches(matches []model.Match) {
	for _, match := range matches {
		payload := map[string]any{
			"title":      match.Opportunity.Title(),
			"source":     match.Opportunity.Source,
			"agency":     match.Opportunity.Agency,
			"close_date": match.Opportunity.CloseDate,
			"url":        match.Opportunity.URL,
			"score":      match.Score,
			"keywords":   match.MatchedKeywords,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			log.Printf("[WARN] marshal dry-run match: %v", err)
			continue
		}
		fmt.Fprintln(n.out, string(data))
	}
}
