// Package main provides a CI-friendly smoke test for the Rollcall live feed.
//
// It validates:
//   - login -> bearer token
//   - WebSocket handshake + subprotocol selection
//   - attendance mark fanout over the feed
//   - attendance unmark fanout over the feed
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const (
	subprotocol  = "rollcall.livefeed.v1"
	maxReadBytes = 1 << 20 // 1MiB
)

type feedEvent struct {
	Action    string `json:"action"`
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
	MarkedBy  int64  `json:"marked_by"`
}

func main() {
	var (
		apiURL   = flag.String("api", "http://127.0.0.1:8000", "Rollcall API base URL")
		origin   = flag.String("origin", "http://localhost", "Origin header to send (browser-like WS handshake)")
		username = flag.String("username", "", "Staff username to log in with")
		pass     = flag.String("password", "", "Password for -username")
		student  = flag.Int64("student", 0, "Student ID to mark")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if *username == "" || *pass == "" || *student <= 0 {
		fatalf("-username, -password and -student are required")
	}
	base, err := url.Parse(*apiURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		fatalf("invalid -api: %q", *apiURL)
	}
	if err := validateOrigin(*origin); err != nil {
		fatalf("invalid -origin: %v", err)
	}

	root := context.Background()

	token := mustLogin(root, base, *username, *pass, *timeout)
	if *verbose {
		fmt.Printf("logged in as %q\n", *username)
	}

	conn, inbox := mustConnect(root, base, *origin, token, *timeout)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	today := time.Now().UTC().Format("2006-01-02")

	mustMark(root, base, token, *student, today, *timeout)
	mustReceive(inbox, "marked", *student, *timeout)

	mustUnmark(root, base, token, *student, today, *timeout)
	mustReceive(inbox, "unmarked", *student, *timeout)

	fmt.Printf("OK: student=%d date=%s\n", *student, today)
}

func validateOrigin(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must be http/https, got: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("origin missing host")
	}
	return nil
}

func mustLogin(parent context.Context, base *url.URL, username, pass string, stepTimeout time.Duration) string {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	body := mustJSON(map[string]string{
		"username":    username,
		"password":    pass,
		"device_name": "ws-smoke",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.JoinPath("/api/v1/auth/login").String(), bytes.NewReader(body))
	if err != nil {
		fatalf("build login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fatalf("login: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fatalf("decode login response: %v", err)
	}
	if strings.TrimSpace(out.Token) == "" {
		fatalf("login response missing token")
	}
	return out.Token
}

func mustConnect(parent context.Context, base *url.URL, origin, token string, stepTimeout time.Duration) (*websocket.Conn, <-chan feedEvent) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	wsURL := *base
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/ws"

	h := http.Header{}
	if strings.TrimSpace(origin) != "" {
		h.Set("Origin", origin)
	}
	h.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.Dial(ctx, wsURL.String(), &websocket.DialOptions{
		Subprotocols: []string{subprotocol},
		HTTPHeader:   h,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("connect: %v", err)
	}
	if got := conn.Subprotocol(); got != "" && got != subprotocol {
		fatalf("subprotocol mismatch: got %q want %q", got, subprotocol)
	}
	conn.SetReadLimit(maxReadBytes)

	inbox := make(chan feedEvent, 64)
	go func() {
		defer close(inbox)
		for {
			_, data, err := conn.Read(parent)
			if err != nil {
				return
			}
			var ev feedEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				continue
			}
			inbox <- ev
		}
	}()
	return conn, inbox
}

func mustMark(parent context.Context, base *url.URL, token string, studentID int64, date string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	body := mustJSON(map[string]any{"student_id": studentID, "date": date})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.JoinPath("/api/v1/attendance").String(), bytes.NewReader(body))
	if err != nil {
		fatalf("build mark request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("mark: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		fatalf("mark: unexpected status %d", resp.StatusCode)
	}
}

func mustUnmark(parent context.Context, base *url.URL, token string, studentID int64, date string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	u := base.JoinPath("/api/v1/attendance")
	q := u.Query()
	q.Set("student_id", fmt.Sprint(studentID))
	q.Set("date", date)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.String(), nil)
	if err != nil {
		fatalf("build unmark request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("unmark: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		fatalf("unmark: unexpected status %d", resp.StatusCode)
	}
}

func mustReceive(inbox <-chan feedEvent, action string, studentID int64, stepTimeout time.Duration) {
	deadline := time.After(stepTimeout)
	for {
		select {
		case ev, ok := <-inbox:
			if !ok {
				fatalf("feed closed while waiting for %q", action)
			}
			if ev.Action == action && ev.StudentID == studentID {
				return
			}
		case <-deadline:
			fatalf("timed out waiting for %q event for student %d", action, studentID)
		}
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		fatalf("marshal: %v", err)
	}
	return b
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ws-smoke: "+format+"\n", args...)
	os.Exit(1)
}
