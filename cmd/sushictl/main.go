// File: /cmd/sushictl/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"sushicount-api/client"
	"sushicount-api/models"
)

const usage = `usage: sushictl [flags] <command>

commands:
  login <email> <password>
  logout
  whoami
  count add [n]
  count show
  count reset
  count commit <session-id> [rating]
  sessions mine
  sessions open

flags:
`

func main() {
	_ = godotenv.Load()

	defaultState, err := client.DefaultStorePath()
	if err != nil {
		defaultState = "sushicount-state.json"
	}

	var (
		apiURL    = flag.String("api", envOr("SUSHICOUNT_API_URL", "http://localhost:8080"), "Base URL of the SushiCount API")
		statePath = flag.String("state", envOr("SUSHICOUNT_STATE", defaultState), "Path to the local state file")
		timeout   = flag.Duration("timeout", 15*time.Second, "Request timeout")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	store := client.NewLocalStore(*statePath)
	c := client.New(client.Config{BaseURL: *apiURL, Timeout: *timeout, Store: store})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, c, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		log.Fatalf("sushictl: %v", err)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, c *client.Client, args []string) error {
	switch args[0] {
	case "login":
		if len(args) != 3 {
			return errUsage
		}
		user, err := c.Users.Login(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
		return nil

	case "logout":
		if err := c.Users.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil

	case "whoami":
		user, err := c.Users.LoggedIn()
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("Not logged in")
			return nil
		}
		fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.ID)
		return nil

	case "count":
		return runCount(ctx, c, args[1:])

	case "sessions":
		return runSessions(ctx, c, args[1:])
	}
	return errUsage
}

func runCount(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "add":
		delta := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count %q", args[1])
			}
			delta = n
		}
		total, err := c.Participants.AddCount(delta)
		if err != nil {
			return err
		}
		fmt.Println(total)
		return nil

	case "show":
		total, err := c.Participants.CurrentCount()
		if err != nil {
			return err
		}
		fmt.Println(total)
		return nil

	case "reset":
		return c.Participants.ResetCount()

	case "commit":
		if len(args) < 2 {
			return errUsage
		}
		user, err := loggedIn(c)
		if err != nil {
			return err
		}

		var rating *int
		if len(args) > 2 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[2])
			}
			rating = &n
		}

		total, err := c.Participants.CurrentCount()
		if err != nil {
			return err
		}
		if err := c.Participants.Commit(ctx, args[1], user.ID, rating); err != nil {
			return err
		}
		fmt.Printf("Committed %d to session %s\n", max(0, total), args[1])
		return nil
	}
	return errUsage
}

func runSessions(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	user, err := loggedIn(c)
	if err != nil {
		return err
	}

	var sessions []models.Session
	switch args[0] {
	case "mine":
		sessions, err = c.Sessions.Mine(ctx, user.ID)
	case "open":
		sessions, err = c.Sessions.Open(ctx, user.ID)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}

	for _, s := range sessions {
		state := "closed"
		if s.IsActive {
			state = "open"
		}
		rating := "-"
		if s.Rating != nil {
			rating = strconv.Itoa(*s.Rating)
		}
		fmt.Printf("%s\t%s\t%s\ttotal=%d\trating=%s\n", s.ID, s.Title, state, s.TotalCount, rating)
	}
	return nil
}

func loggedIn(c *client.Client) (*models.User, error) {
	user, err := c.Users.LoggedIn()
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("not logged in; run `sushictl login` first")
	}
	return user, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
