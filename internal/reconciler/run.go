package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/mediaupload/internal/common"
)

type Mode string

const (
	ModeCleanup Mode = "cleanup"
	ModeRecover Mode = "recover"
	ModeCheck   Mode = "check"
)

// ErrIncomplete is returned by Execute when the run recorded failures or
// the checked record is not valid.
var ErrIncomplete = errors.New("reconciliation finished with errors")

// Execute runs one mode and writes its JSON result to w.
func (r *Reconciler) Execute(ctx context.Context, mode Mode, recordID string, w io.Writer) error {
	var (
		out    any
		failed bool
	)

	switch mode {
	case ModeCleanup:
		rep := r.Normalize(ctx)
		out, failed = rep, len(rep.Errors) > 0
	case ModeRecover:
		rep := r.Recover(ctx, recordID)
		out, failed = rep, len(rep.Errors) > 0
	case ModeCheck:
		if recordID == "" {
			return fmt.Errorf("%w: check needs a record id", common.ErrValidation)
		}
		in, err := r.CheckIntegrity(ctx, recordID)
		if err != nil {
			return err
		}
		out, failed = in, !in.IsValid
	default:
		return fmt.Errorf("%w: unknown mode %q", common.ErrValidation, mode)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	r.logger.Info(ctx, "reconciliation finished", "mode", mode, "failed", failed)
	if failed {
		return ErrIncomplete
	}
	return nil
}
