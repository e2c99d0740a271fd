package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	Enqueue(ctx context.Context, args []string) error
	ListQueue(ctx context.Context) error
	Process(ctx context.Context) error
	Flush(ctx context.Context) error
	Status(ctx context.Context) error
	Diagnostics(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the upload CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - help          : show available commands
//	  - login         : authenticate
//	  - enqueue       : queue a file for later (no login needed)
//	  - queue | q     : list queued uploads
//	  - status        : connectivity and queue size
//	  - exit | quit   : leave the program
//
//	Logged in, additionally:
//	  - upload <path> [folder=..|order=..|session=..|product=..]
//	  - process       : replay the queue now
//	  - flush         : drop every queued upload
//	  - diag [n|clear]: recent failure diagnostics
//	  - logout        : log out
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("mu %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if requiresLogin(cmd) && !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload, enqueue, (q)ueue, process, flush, status, diag, logout, exit")
			} else {
				printlnFn("Available commands: login, enqueue, (q)ueue, status, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "upload", "up":
			_ = a.Upload(ctx, args)

		case "enqueue":
			_ = a.Enqueue(ctx, args)

		case "q", "queue":
			_ = a.ListQueue(ctx)

		case "process":
			_ = a.Process(ctx)

		case "flush":
			_ = a.Flush(ctx)

		case "status":
			_ = a.Status(ctx)

		case "diag", "diagnostics":
			_ = a.Diagnostics(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func requiresLogin(cmd string) bool {
	switch cmd {
	case "upload", "up", "process", "flush", "diag", "diagnostics", "logout":
		return true
	}
	return false
}
