package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BotTransport posts messages through the Discord REST API using a bot
// token. The token is stored without the "Bot " prefix; config
// normalization strips it from pasted values.
type BotTransport struct {
	Token     string
	ChannelID string
	Client    *http.Client

	// baseURL is overridable in tests.
	baseURL string
}

// NewBotTransport creates the transport for one channel.
func NewBotTransport(token, channelID string) *BotTransport {
	return &BotTransport{
		Token:     token,
		ChannelID: channelID,
		Client:    &http.Client{Timeout: 20 * time.Second},
		baseURL:   "https://discord.com/api/v10",
	}
}

func (t *BotTransport) Describe() string { return "discord bot" }

// Send posts one message to the configured channel.
func (t *BotTransport) Send(content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/channels/%s/messages", t.baseURL, t.ChannelID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+t.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
