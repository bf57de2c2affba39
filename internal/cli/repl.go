package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a stub.
type execIface interface {
	isSignedIn(ctx context.Context) bool
	Log(ctx context.Context, args []string) error
	Day(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Trends(ctx context.Context, args []string) error
	SignIn(ctx context.Context, args []string) error
	SignOut(ctx context.Context) error
	Sheet(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Export(ctx context.Context, args []string) error
}

// runREPL reads commands line by line and dispatches them to a until EOF
// or "exit". Command errors are printed and the loop continues.
//
//	log <date|today> <slot> <severity>   record a severity
//	day [date]                           show one day
//	list [from] [to]                     list entries
//	trends [from] [to]                   daily averages and peaks
//	signin <account>                     authorize a Google account
//	signout                              forget the account and sheet
//	sheet [url]                          show or set the sheet
//	sync                                 sync now
//	status                               account, sheet and sync state
//	export [from] [to]                   write a CSV export
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ht%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		var err error
		switch cmd {
		case "help", "?":
			if a.isSignedIn(ctx) {
				printlnFn("Available commands: log, day, list, trends, sheet, sync, status, export, signout, exit")
			} else {
				printlnFn("Available commands: log, day, list, trends, signin, status, export, exit")
			}

		case "log", "l":
			err = a.Log(ctx, args)

		case "day", "d":
			err = a.Day(ctx, args)

		case "list", "ls":
			err = a.List(ctx, args)

		case "trends", "t":
			err = a.Trends(ctx, args)

		case "signin":
			err = a.SignIn(ctx, args)

		case "signout":
			err = a.SignOut(ctx)

		case "sheet":
			err = a.Sheet(ctx, args)

		case "sync":
			err = a.Sync(ctx)

		case "status":
			err = a.Status(ctx)

		case "export":
			err = a.Export(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
