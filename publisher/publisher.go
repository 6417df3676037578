package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"rubika_content_bot/config"
)

const (
	sendPhotoMethod   = "sendPhoto"
	sendMessageMethod = "sendMessage"
	publishTimeout    = 15 * time.Second
	parseModeHTML     = "HTML"
)

var (
	// ErrMissingCredential means the bot token or chat id is not configured.
	ErrMissingCredential = errors.New("missing rubika credentials")
	// ErrPublishRejected covers non-200 responses and transport failures.
	ErrPublishRejected = errors.New("publish rejected")
)

// RejectedError carries the bot API's answer for a non-200 response.
type RejectedError struct {
	StatusCode  int
	Description string
}

func (e *RejectedError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("rubika api status %d", e.StatusCode)
	}
	return fmt.Sprintf("rubika api status %d: %s", e.StatusCode, e.Description)
}

func (e *RejectedError) Unwrap() error { return ErrPublishRejected }

type sendPhotoPayload struct {
	ChatID    string `json:"chat_id"`
	Photo     string `json:"photo"`
	Caption   string `json:"caption"`
	ParseMode string `json:"parse_mode"`
}

type sendMessagePayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Publisher posts captions to a Rubika channel.
type Publisher struct {
	cfg    config.Bot
	client *http.Client
	logger *logrus.Logger
}

// New creates a Publisher. Credentials are checked per Publish call so a run
// without them still reads and logs its content.
func New(cfg config.Bot, client *http.Client, logger *logrus.Logger) *Publisher {
	if client == nil {
		client = &http.Client{Timeout: publishTimeout}
	}
	if cfg.APIBase == "" {
		cfg.APIBase = config.DefaultRubikaAPIBase
	}
	return &Publisher{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// Publish sends caption with imageURL via sendPhoto, or as a plain message
// via sendMessage when imageURL is empty. It never retries.
func (p *Publisher) Publish(ctx context.Context, imageURL, caption string) error {
	if !p.cfg.HasCredentials() {
		return ErrMissingCredential
	}

	var (
		method  string
		payload any
	)
	if imageURL != "" {
		method = sendPhotoMethod
		payload = sendPhotoPayload{ChatID: p.cfg.ChatID, Photo: imageURL, Caption: caption, ParseMode: parseModeHTML}
	} else {
		method = sendMessageMethod
		payload = sendMessagePayload{ChatID: p.cfg.ChatID, Text: caption, ParseMode: parseModeHTML}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublishRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// The URL embeds the token; drop it from transport errors.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%w: %v", ErrPublishRejected, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return &RejectedError{StatusCode: resp.StatusCode, Description: describe(respBody)}
	}
	if p.logger != nil {
		p.logger.WithField("method", method).Debug("Rubika accepted post")
	}
	return nil
}

func (p *Publisher) endpoint(method string) string {
	return fmt.Sprintf("%s/v3/%s/%s", p.cfg.APIBase, p.cfg.Token, method)
}

// describe pulls a human readable message out of an error body.
func describe(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"description", "status_det", "message", "error"} {
			if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}
	r := []rune(strings.TrimSpace(string(body)))
	if len(r) > 200 {
		r = r[:200]
	}
	return string(r)
}
