package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	s := string(a.Mode())
	if a.isLoggedIn() {
		s = a.config.ClientID + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

// Root runs the REPL over stdin.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to ridekeeper CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
