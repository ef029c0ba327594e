// Command client is a small terminal chat client, handy for poking a
// running server: it registers a name, joins a board, renders the
// backlog and streams events until interrupted.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"board-chat/domain"
	"board-chat/infrastructure/web"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	ServerURL string `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	Board     string `envconfig:"BOARD" default:"general"`
	Name      string `envconfig:"NAME" default:"guest"`
	History   int    `envconfig:"HISTORY" default:"20"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("config error: %v", err)
	}

	identity, err := register(cfg)
	if err != nil {
		log.Fatalf("registration failed: %v", err)
	}
	color.Green.Printf("Registered as %s [%s]\n", identity.DisplayName, identity.ID)

	if err := printHistory(cfg); err != nil {
		log.Fatalf("history fetch failed: %v", err)
	}

	conn, err := dial(cfg)
	if err != nil {
		log.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	join := map[string]any{"boardId": cfg.Board, "identity": identity}
	if err := writeEvent(conn, "join_board", join); err != nil {
		log.Fatalf("join failed: %v", err)
	}

	go readLoop(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}
		payload := map[string]any{
			"boardId":    cfg.Board,
			"text":       text,
			"identityId": identity.ID,
		}
		if err := writeEvent(conn, "send_message", payload); err != nil {
			log.Fatalf("send failed: %v", err)
		}
	}
}

func register(cfg Config) (domain.Identity, error) {
	body, _ := json.Marshal(map[string]string{"displayName": cfg.Name})
	resp, err := http.Post(cfg.ServerURL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return domain.Identity{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Identity{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var identity domain.Identity
	err = json.NewDecoder(resp.Body).Decode(&identity)
	return identity, err
}

func printHistory(cfg Config) error {
	endpoint := fmt.Sprintf("%s/api/boards/%s/messages?limit=%d", cfg.ServerURL, cfg.Board, cfg.History)
	resp, err := http.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var messages []domain.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return err
	}
	if len(messages) == 0 {
		color.Gray.Println("(no history)")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Author", "Message"})
	for _, m := range messages {
		table.Append([]string{
			m.CreatedAt.Local().Format(time.Kitchen),
			m.DisplayName,
			m.Text,
		})
	}
	table.Render()
	return nil
}

func dial(cfg Config) (*websocket.Conn, error) {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	return conn, err
}

func writeEvent(conn *websocket.Conn, kind string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return conn.WriteJSON(web.Envelope{Type: kind, Data: raw})
}

func readLoop(conn *websocket.Conn) {
	for {
		var envelope web.Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			color.Red.Println("connection closed")
			os.Exit(0)
		}
		render(envelope)
	}
}

func render(envelope web.Envelope) {
	switch envelope.Type {
	case "new_message":
		var m domain.Message
		if json.Unmarshal(envelope.Data, &m) == nil {
			color.Cyan.Printf("[%s] %s: %s\n", m.BoardID, m.DisplayName, m.Text)
		}
	case "online_users_update":
		var roster struct {
			Users []struct {
				DisplayName string `json:"displayName"`
			} `json:"users"`
			Count int `json:"count"`
		}
		if json.Unmarshal(envelope.Data, &roster) == nil {
			names := make([]string, 0, len(roster.Users))
			for _, u := range roster.Users {
				names = append(names, u.DisplayName)
			}
			color.Magenta.Printf("online (%d): %v\n", roster.Count, names)
		}
	case "confetti_trigger":
		color.Yellow.Println("🎉 confetti!")
	case "notice":
		color.Green.Printf("notice: %s\n", string(envelope.Data))
	case "error":
		color.Red.Printf("error: %s\n", string(envelope.Data))
	case "user_count_update":
		// Redundant legacy form of online_users_update; nothing to show.
	default:
		color.Gray.Printf("%s: %s\n", envelope.Type, string(envelope.Data))
	}
}
