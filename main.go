package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
)

const usage = `Usage: gcalagenda <command> [arguments]

Commands:
  login                              authorize the configured account
  logout                             forget the stored token
  calendars [--details]              list calendars and their visibility
  toggle <calendar-id>               hide or show a calendar
  events [calendar-id]               events of the past days
  upcoming [--details] [--json]      events and tasks of the coming days
  tasks                              tasks of every task list
  create [title]                     create an event interactively
  delete <calendar-id> <event-id>    delete an event
  export [file|-]                    write upcoming events as iCalendar`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Println(usage)
		return
	}

	config, err := loadConfig(configFileName)
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	initOAuthConfig(config)
	logger := newLogger(config, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, config, logger)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	err = run(ctx, s, command, args)
	s.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var apiCommands = map[string]bool{
	"calendars": true, "list": true, "toggle": true, "events": true, "upcoming": true,
	"tasks": true, "create": true, "add": true, "delete": true, "export": true,
}

func run(ctx context.Context, s *session, command string, args []string) error {
	switch command {
	case "login":
		return login(ctx, s)
	case "logout":
		return logout(ctx, s)
	}
	if !apiCommands[command] {
		return fmt.Errorf("unknown command: %s", command)
	}

	// Interactive creation has no deadline; everything else gets one.
	if command != "create" && command != "add" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout())
		defer cancel()
	}
	if err := s.connect(ctx); err != nil {
		return err
	}

	switch command {
	case "calendars", "list":
		opts, err := parseCalendarsFlags(args)
		if err != nil {
			return err
		}
		return listCalendars(ctx, s, opts)
	case "toggle":
		if len(args) != 1 {
			return fmt.Errorf("usage: gcalagenda toggle <calendar-id>")
		}
		return toggleCalendar(ctx, s, args[0])
	case "events":
		calendarID := ""
		if len(args) > 0 {
			calendarID = args[0]
		}
		return showEvents(ctx, s, calendarID)
	case "upcoming":
		opts, err := parseUpcomingFlags(args)
		if err != nil {
			return err
		}
		return showUpcoming(ctx, s, opts)
	case "tasks":
		return showTasks(ctx, s)
	case "create", "add":
		return createEvent(ctx, s, args)
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: gcalagenda delete <calendar-id> <event-id>")
		}
		return deleteEvent(ctx, s, args[0], args[1])
	case "export":
		filename := ""
		if len(args) > 0 {
			filename = args[0]
		}
		return exportEvents(ctx, s, filename)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}
