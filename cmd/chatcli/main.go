// Command chatcli is a line-oriented client for smoke testing the relay.
//
// Every stdin line is sent to the current room. Commands:
//
//	/history       request the room's history
//	/join <room>   switch rooms
//	/leave         leave the current room
//	/quit          exit
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/campus-connect/relay/src/types"
	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "relay host:port")
	room := flag.String("room", "room-1", "room to join on connect")
	userID := flag.String("user", "cli", "user id sent with messages")
	name := flag.String("name", "", "display name (defaults to user id)")
	flag.Parse()

	if *name == "" {
		*name = *userID
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: url.Values{"userId": {*userID}}.Encode()}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", u.String(), err)
		os.Exit(1)
	}
	defer conn.Close()

	s := &session{conn: conn, room: *room, user: types.User{ID: *userID, Name: *name}}
	go s.readLoop()

	if err := s.send(types.EventJoinRoom, types.RoomPayload{RoomID: s.room}); err != nil {
		fmt.Fprintln(os.Stderr, "join:", err)
		os.Exit(1)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}
		if err := s.handleLine(line); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

type session struct {
	conn *websocket.Conn
	room string
	user types.User
}

func (s *session) handleLine(line string) error {
	switch {
	case line == "/history":
		return s.send(types.EventGetHistory, types.RoomPayload{RoomID: s.room})
	case line == "/leave":
		return s.send(types.EventLeaveRoom, types.RoomPayload{RoomID: s.room})
	case strings.HasPrefix(line, "/join "):
		s.room = strings.TrimSpace(strings.TrimPrefix(line, "/join "))
		return s.send(types.EventJoinRoom, types.RoomPayload{RoomID: s.room})
	default:
		now := time.Now()
		return s.send(types.EventSendMessage, types.SendPayload{
			RoomID:          s.room,
			User:            s.user,
			Text:            line,
			ClientTimestamp: &now,
		})
	}
}

func (s *session) send(event string, data any) error {
	env, err := types.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	return s.conn.WriteJSON(env)
}

func (s *session) readLoop() {
	for {
		var env types.Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			fmt.Fprintln(os.Stderr, "disconnected:", err)
			os.Exit(0)
		}
		fmt.Println(format(env))
	}
}

func format(env types.Envelope) string {
	switch env.Event {
	case types.EventReceiveMessage:
		var msg types.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err == nil {
			return formatMessage(msg)
		}
	case types.EventRoomJoined:
		var p types.RoomPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			return "* joined " + p.RoomID
		}
	case types.EventRoomLeft:
		var p types.RoomPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			return "* left " + p.RoomID
		}
	case types.EventMessageError:
		var p types.ErrorPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			return "! " + p.Error
		}
	case types.EventRoomHistory:
		var p types.HistoryPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			lines := []string{fmt.Sprintf("* history of %s (%d)", p.RoomID, len(p.Messages))}
			for _, msg := range p.Messages {
				lines = append(lines, "  "+formatMessage(msg))
			}
			return strings.Join(lines, "\n")
		}
	}
	return env.Event + " " + string(env.Data)
}

func formatMessage(msg types.ChatMessage) string {
	return fmt.Sprintf("[%s] %s <%s> %s",
		msg.ServerTimestamp.Local().Format("15:04:05"), msg.RoomID, msg.User.Name, msg.Text)
}
