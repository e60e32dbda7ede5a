package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsDispatch/internal/domain"
	"NewsDispatch/internal/ports"
)

const defaultAPIBase = "https://discord.com/api/v10"

// Transport posts rendered messages to Discord channels via the Bot API.
// The destination identifier is the target channel ID.
type Transport struct {
	botToken string
	apiBase  string
	client   *http.Client
}

var _ ports.Transport = (*Transport)(nil)

// NewTransport registers the bot token; apiBase is overridable for tests.
func NewTransport(botToken, apiBase string) *Transport {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Transport{
		botToken: botToken,
		apiBase:  strings.TrimSuffix(apiBase, "/"),
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type embedAuthor struct {
	Name string `json:"name,omitempty"`
}

type embedFooter struct {
	Text string `json:"text,omitempty"`
}

type embedThumbnail struct {
	URL string `json:"url,omitempty"`
}

type embed struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	URL         string          `json:"url,omitempty"`
	Author      *embedAuthor    `json:"author,omitempty"`
	Footer      *embedFooter    `json:"footer,omitempty"`
	Thumbnail   *embedThumbnail `json:"thumbnail,omitempty"`
}

// Send posts the message as a single embed to the destination channel.
func (t *Transport) Send(ctx context.Context, destination string, msg domain.Message) error {
	if t.botToken == "" || t.client == nil {
		return fmt.Errorf("discord transport misconfigured")
	}
	if destination == "" {
		return fmt.Errorf("empty destination channel")
	}

	payload := embed{
		Title:       msg.Title,
		Description: msg.Description,
		URL:         msg.URL,
	}
	if msg.Author != "" {
		payload.Author = &embedAuthor{Name: msg.Author}
	}
	if msg.Footer != "" {
		payload.Footer = &embedFooter{Text: msg.Footer}
	}
	if msg.ImageURL != "" {
		payload.Thumbnail = &embedThumbnail{URL: msg.ImageURL}
	}

	body, err := json.Marshal(map[string]any{
		"embeds": []embed{payload},
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/channels/%s/messages", t.apiBase, destination)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+t.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	return nil
}
