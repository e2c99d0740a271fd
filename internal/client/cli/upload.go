package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/common"
)

var errUsage = errors.New("usage")

// parseDestination reads key=value pairs: folder, order, session, product.
func parseDestination(args []string) (models.Destination, error) {
	var d models.Destination
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || v == "" {
			return d, fmt.Errorf("%w: expected key=value, got %q", common.ErrValidation, arg)
		}
		switch k {
		case "folder":
			d.Folder = v
		case "order":
			d.OrderID = v
		case "session":
			d.SessionID = v
		case "product":
			d.ProductID = v
		default:
			return d, fmt.Errorf("%w: unknown destination key %q", common.ErrValidation, k)
		}
	}
	return d, nil
}

func (a *App) loadArgs(args []string, cmd string) (models.File, models.Destination, error) {
	if len(args) == 0 {
		fmt.Fprintf(a.out, "Usage: %s <path> [folder=..|order=..|session=..|product=..]\n", cmd)
		return models.File{}, models.Destination{}, errUsage
	}
	dest, err := parseDestination(args[1:])
	if err != nil {
		fmt.Fprintln(a.out, err)
		return models.File{}, models.Destination{}, err
	}
	f, err := a.mediaService.LoadFile(args[0])
	if err != nil {
		fmt.Fprintln(a.out, err)
		return models.File{}, models.Destination{}, err
	}
	return f, dest, nil
}

// Upload runs the fallback chain for one file and prints the outcome.
// When the backend is known to be offline the file is queued instead.
func (a *App) Upload(ctx context.Context, args []string) error {
	f, dest, err := a.loadArgs(args, "upload")
	if err != nil {
		return err
	}

	if a.mode() == ModeOffline {
		fmt.Fprintln(a.out, "Offline, queueing instead")
		return a.enqueue(ctx, f, dest)
	}

	bar := newProgressPrinter(a.out)
	res := a.mediaService.Upload(ctx, f, dest, bar.Report)
	bar.Done()

	switch {
	case res.Success:
		fmt.Fprintf(a.out, "Uploaded via %s\n  url: %s\n  id:  %s\n", res.Method, res.URL, res.Identifier)
		for _, r := range res.Attempts {
			fmt.Fprintf(a.out, "  fell back from %s after %d attempt(s): %s\n", r.Method, r.Attempts, r.Error)
		}
		return nil
	case res.Aborted:
		fmt.Fprintln(a.out, "Upload aborted")
		return res.Err
	default:
		fmt.Fprintf(a.out, "Upload failed: %s\n", res.Summary())
		return res.Err
	}
}

// Enqueue stores the intent in the offline queue and returns immediately.
func (a *App) Enqueue(ctx context.Context, args []string) error {
	f, dest, err := a.loadArgs(args, "enqueue")
	if err != nil {
		return err
	}
	return a.enqueue(ctx, f, dest)
}

func (a *App) enqueue(ctx context.Context, f models.File, dest models.Destination) error {
	name := f.Name
	id, err := a.mediaService.Enqueue(ctx, f, dest, func(ok bool, url string, err error) {
		if ok {
			fmt.Fprintf(a.out, "\n[queue] %s uploaded: %s\n", name, url)
		} else if !errors.Is(err, common.ErrAborted) {
			fmt.Fprintf(a.out, "\n[queue] %s failed: %v\n", name, err)
		}
	})
	if err != nil {
		fmt.Fprintf(a.out, "Could not queue %s: %s\n", name, err)
		return err
	}
	fmt.Fprintf(a.out, "Queued %s as %s\n", name, id)
	return nil
}
