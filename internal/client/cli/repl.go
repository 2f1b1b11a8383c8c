package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a stub.
type execIface interface {
	Login(ctx context.Context, args []string) error
	ShowUser(ctx context.Context, args []string) error
	SetActive(ctx context.Context, args []string) error
	Overrides(ctx context.Context, args []string) error
	ListRides(ctx context.Context, args []string) error
	ListDrivers(ctx context.Context, args []string) error
	UploadPhoto(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  login                      authenticate with the document server
  user <id>                  show a user with its effective status
  active <id> on|off         change a user's active flag
  overrides [clear]          list or drop local status overrides
  rides <passengerID>        list a passenger's rides
  drivers <status>           list drivers by status (OFFLINE, AVAILABLE, BUSY, EN_ROUTE)
  photo <userID> <path>      upload a profile photo
  exit | quit                leave the program`

// runREPL reads commands from scanner until EOF or exit. Handler errors are
// reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("rk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)
		case "login":
			_ = a.Login(ctx, args)
		case "user":
			_ = a.ShowUser(ctx, args)
		case "active":
			_ = a.SetActive(ctx, args)
		case "overrides":
			_ = a.Overrides(ctx, args)
		case "rides":
			_ = a.ListRides(ctx, args)
		case "drivers":
			_ = a.ListDrivers(ctx, args)
		case "photo":
			_ = a.UploadPhoto(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
