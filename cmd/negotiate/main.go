// Command negotiate is a terminal participant for a negotiation session.
// It subscribes to the event stream, seeds a live view, and maps stdin
// commands onto the session operations. Useful for poking a running server
// and for watching lock-out happen across two terminals.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
	"github.com/groupnest/groupnest/pkg/sessionview"
)

func main() {
	var (
		serverURL  = flag.String("server", "http://localhost:8080", "negotiation server base URL")
		sessionStr = flag.String("session", "", "session ID to join (omit to open one)")
		contextKey = flag.String("context", "", "context key when opening a session")
		rosterStr  = flag.String("roster", "", "comma-separated user IDs when opening a session")
		userID     = flag.String("user", "", "participant user ID")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *userID == "" {
		logger.Fatal().Msg("-user is required")
	}

	client := sessionview.NewClient(*serverURL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionID, err := resolveSession(ctx, client, *sessionStr, *contextKey, *rosterStr)
	if err != nil {
		logger.Fatal().Err(err).Msg("resolve session")
	}

	view := sessionview.NewView(client, *userID, sessionview.DefaultDebounce, func(err error) {
		logger.Warn().Err(err).Msg("operation rejected, rolled back")
	})

	// Subscribe before seeding so no event falls into the gap.
	streamReady := make(chan struct{}, 1)
	go func() {
		streamReady <- struct{}{}
		if err := client.Stream(ctx, sessionID, *userID, func(ev *negotiation.Event) {
			view.OnEvent(ev)
			logger.Info().Str("type", string(ev.Type)).Str("from", ev.UserID).Msg("event")
		}); err != nil {
			logger.Error().Err(err).Msg("stream closed")
		}
		cancel()
	}()
	<-streamReady
	time.Sleep(100 * time.Millisecond)

	state, err := client.GetSession(ctx, sessionID)
	if err != nil {
		logger.Fatal().Err(err).Msg("fetch session")
	}
	view.Seed(state)
	render(view)

	fmt.Println("commands: set <pct> | confirm | revoke | show | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "set":
			if len(fields) != 2 {
				fmt.Println("usage: set <pct>")
				continue
			}
			value, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				fmt.Println("not a number:", fields[1])
				continue
			}
			if err := view.SetPercentage(value); err != nil {
				logger.Warn().Err(err).Msg("set rejected")
			}
		case "confirm":
			if err := view.Confirm(ctx); err == nil {
				fmt.Println("confirmed")
			}
		case "revoke":
			if err := view.Revoke(ctx); err == nil {
				fmt.Println("back to adjusting")
			}
		case "show":
			render(view)
		case "quit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func resolveSession(ctx context.Context, client *sessionview.Client, sessionStr, contextKey, rosterStr string) (uuid.UUID, error) {
	if sessionStr != "" {
		return uuid.Parse(sessionStr)
	}
	if contextKey == "" || rosterStr == "" {
		return uuid.Nil, fmt.Errorf("either -session or both -context and -roster are required")
	}
	var roster []negotiation.RosterMember
	for _, id := range strings.Split(rosterStr, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			roster = append(roster, negotiation.RosterMember{UserID: id})
		}
	}
	state, err := client.OpenSession(ctx, contextKey, uuid.New(), roster)
	if err != nil {
		return uuid.Nil, err
	}
	fmt.Println("session:", state.Session.SessionID)
	return state.Session.SessionID, nil
}

func render(view *sessionview.View) {
	state := view.Snapshot()
	fmt.Printf("session %s [%s] total %.2f%%\n", state.Session.SessionID, state.Session.Status, state.Session.TotalPercentage)
	for _, p := range state.Participants {
		online := " "
		if p.IsOnline {
			online = "*"
		}
		fmt.Printf("  %s %-16s %6.2f%%  %s\n", online, p.UserID, p.CurrentPercentage, p.Status)
	}
}
