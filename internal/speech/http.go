package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultPlayer reads audio from stdin and exits when done.
var DefaultPlayer = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "error", "-"}

// HTTPSpeaker fetches audio from a TTS endpoint and plays it.
type HTTPSpeaker struct {
	URL     string
	Token   string
	Player  []string
	Timeout time.Duration

	client *http.Client
}

// NewHTTPSpeaker returns a speaker for the endpoint url.
func NewHTTPSpeaker(url, token string) *HTTPSpeaker {
	return &HTTPSpeaker{
		URL:     url,
		Token:   token,
		Player:  DefaultPlayer,
		Timeout: DefaultTimeout,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        1,
				MaxIdleConnsPerHost: 1,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

// Fetch returns the synthesized audio for text.
func (h *HTTPSpeaker) Fetch(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(synthesizeRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	client := h.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech: tts API error %d: %s", resp.StatusCode, strings.TrimSpace(string(audio)))
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech: tts API returned no audio")
	}
	return audio, nil
}

// Speak fetches the audio and pipes it to the player.
func (h *HTTPSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	audio, err := h.Fetch(ctx, text)
	if err != nil {
		return err
	}
	player := h.Player
	if len(player) == 0 {
		player = DefaultPlayer
	}
	return run(ctx, 0, player[0], player[1:], bytes.NewReader(audio))
}
