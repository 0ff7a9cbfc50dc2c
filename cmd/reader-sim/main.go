// reader-sim is a development client that exercises the engagement pipeline
// end to end: it logs in, drives a dwell detector over a scripted visibility
// timeline, posts the resulting view, and tails the live view-count feed.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/pageturn/backend/internal/dwell"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
)

func main() {
	root := &cobra.Command{
		Use:   "reader-sim",
		Short: "Simulates a reading client against a pageturn server",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "API base URL")
	root.PersistentFlags().StringVar(&token, "token", "", "bearer token (or use login)")

	root.AddCommand(loginCmd(), watchCmd(), readCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Tail the live view-count feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws"
			if token != "" {
				wsURL += "?token=" + token
			}

			conn, _, err := websocket.Dial(cmd.Context(), wsURL, nil)
			if err != nil {
				return fmt.Errorf("dial %s: %w", wsURL, err)
			}
			defer conn.Close(websocket.StatusNormalClosure, "")

			fmt.Println("connected, waiting for events")
			for {
				var msg struct {
					Type    string          `json:"type"`
					Payload json.RawMessage `json:"payload"`
				}
				if err := wsjson.Read(cmd.Context(), conn, &msg); err != nil {
					return err
				}
				if msg.Type != "articleViewed" {
					continue
				}
				var payload struct {
					ArticleID string `json:"articleId"`
					Views     int64  `json:"views"`
				}
				if err := json.Unmarshal(msg.Payload, &payload); err != nil {
					continue
				}
				fmt.Printf("%s article %s now has %d views\n",
					time.Now().Format(time.TimeOnly), payload.ArticleID, payload.Views)
			}
		},
	}
}

func readCmd() *cobra.Command {
	var (
		articleID   string
		contentType string
		timeline    string
	)
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Simulate reading an article through the dwell detector",
		Long: `Drives a dwell detector over a visibility timeline. The timeline is a
comma-separated list of segments alternating visible/hidden, e.g.
"6s,2s,5s" means visible 6s, hidden 2s, visible 5s.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("--token is required (use the login command)")
			}

			segments, err := parseTimeline(timeline)
			if err != nil {
				return err
			}

			reporter := dwell.NewReporter(serverURL, token)
			done := make(chan struct{})

			detector := dwell.New(articleID, dwell.ContentType(contentType),
				func(contentID string, dwellTime time.Duration) {
					fmt.Printf("view triggered after %s of visible time\n", dwellTime.Round(time.Millisecond))
					if err := reporter.ReportView(cmd.Context(), contentID, dwellTime); err != nil {
						fmt.Fprintln(os.Stderr, "report failed:", err)
					}
					close(done)
				})
			defer detector.Close()
			detector.Start()

			visible := true
			for _, seg := range segments {
				detector.SetVisible(visible)
				fmt.Printf("visible=%v for %s (dwell so far %s)\n",
					visible, seg, detector.Dwell().Round(time.Millisecond))
				select {
				case <-time.After(seg):
				case <-done:
					return nil
				}
				visible = !visible
			}
			detector.SetVisible(false)

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				fmt.Println("timeline ended without crossing the dwell threshold")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&articleID, "article", "", "article id to read")
	cmd.Flags().StringVar(&contentType, "type", "article", "content type: article, short_video, long_video")
	cmd.Flags().StringVar(&timeline, "timeline", "6s,2s,5s", "visibility timeline")
	_ = cmd.MarkFlagRequired("article")
	return cmd
}

func parseTimeline(s string) ([]time.Duration, error) {
	parts := strings.Split(s, ",")
	segments := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad timeline segment %q: %w", p, err)
		}
		segments = append(segments, d)
	}
	return segments, nil
}

func login(ctx context.Context, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %s", resp.Status)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}
