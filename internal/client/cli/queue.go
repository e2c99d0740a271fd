package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

func (a *App) ListQueue(ctx context.Context) error {
	pending := a.mediaService.Pending()
	if len(pending) == 0 {
		fmt.Fprintln(a.out, "Queue is empty")
		return nil
	}
	for i, m := range pending {
		fmt.Fprintf(a.out, "%d. %s  %s  %d bytes  -> %s  (%s)\n",
			i+1, m.ID, m.FileName, m.FileSize, m.Destination.ResolveFolder(), m.Timestamp.Local().Format(time.DateTime))
	}
	return nil
}

// Process replays the queue now, regardless of connectivity.
func (a *App) Process(ctx context.Context) error {
	a.mediaService.Process()
	fmt.Fprintln(a.out, "Processing queue...")
	return nil
}

func (a *App) Flush(ctx context.Context) error {
	n := len(a.mediaService.Pending())
	if err := a.mediaService.Flush(ctx); err != nil {
		fmt.Fprintf(a.out, "Flush failed: %s\n", err)
		return err
	}
	fmt.Fprintf(a.out, "Removed %d queued upload(s)\n", n)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	online, network := false, "unknown"
	if a.conn != nil {
		online, network = a.conn.Online(), a.conn.NetworkType()
	}
	user := a.userName
	if user == "" {
		user = "-"
	}
	fmt.Fprintf(a.out, "user: %s\nonline: %t\nnetwork: %s\nqueued: %d\n", user, online, network, len(a.mediaService.Pending()))
	return nil
}

// Diagnostics prints the most recent failure bundles; "diag clear" drops them.
func (a *App) Diagnostics(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "clear" {
		if err := a.mediaService.ClearDiagnostics(ctx); err != nil {
			fmt.Fprintln(a.out, err)
			return err
		}
		fmt.Fprintln(a.out, "Diagnostics cleared")
		return nil
	}

	limit := 5
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintln(a.out, "Usage: diag [count|clear]")
			return errUsage
		}
		limit = n
	}

	list, err := a.mediaService.Diagnostics(ctx, limit)
	if err != nil {
		fmt.Fprintln(a.out, err)
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No failed uploads recorded")
		return nil
	}
	for _, d := range list {
		fmt.Fprintf(a.out, "%s  %s (%d bytes)  online=%t network=%s\n",
			d.CreatedAt.Local().Format(time.DateTime), d.FileName, d.FileSize, d.Online, d.NetworkType)
		for _, r := range d.Attempts {
			fmt.Fprintf(a.out, "    %s x%d: %s\n", r.Method, r.Attempts, r.Error)
		}
	}
	return nil
}
