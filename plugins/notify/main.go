// Package main is a mudra hook plugin that shows a desktop notification
// for session events. It uses osascript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Sign      string          `json:"sign,omitempty"`
	Text      string          `json:"text"`
	Seq       uint64          `json:"seq"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type options struct {
	Title string `json:"title"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	opts := options{Title: "mudra"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &opts); err != nil {
			writeResponse(fmt.Errorf("invalid config: %w", err))
			return
		}
	}

	body, ok := message(req)
	if !ok {
		writeResponse(nil)
		return
	}
	writeResponse(notify(opts.Title, body))
}

// message returns the notification text for a request, or false for
// events that are not worth a notification.
func message(req Request) (string, bool) {
	switch req.Event {
	case "spoken":
		if req.Text == "" {
			return "", false
		}
		return req.Text, true
	case "confirmed":
		if req.Sign == "" {
			return "", false
		}
		return "Signed " + req.Sign, true
	case "cleared":
		return "Sentence cleared", true
	}
	return "", false
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		script := "display notification " + strconv.Quote(body) + " with title " + strconv.Quote(title)
		cmd = exec.Command("osascript", "-e", script)
	} else {
		cmd = exec.Command("notify-send", title, body)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, out)
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
