package reconciler

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/assets"
)

// Integrity describes the state of one record. It is read-only output for
// support tooling.
type Integrity struct {
	RecordID    string   `json:"recordId"`
	IsValid     bool     `json:"isValid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

func (in *Integrity) add(issue, suggestion string) {
	in.Issues = append(in.Issues, issue)
	if suggestion != "" {
		in.Suggestions = append(in.Suggestions, suggestion)
	}
}

// CheckIntegrity inspects one record without modifying it.
func (r *Reconciler) CheckIntegrity(ctx context.Context, recordID string) (Integrity, error) {
	in := Integrity{RecordID: recordID, Issues: []string{}, Suggestions: []string{}}

	p, err := r.store.Get(ctx, recordID)
	if err != nil {
		return in, fmt.Errorf("record %q: %w", recordID, err)
	}

	if !p.HasAsset() {
		src, err := r.source(ctx, p.ID)
		switch {
		case err != nil:
			in.add("record has no asset identifier", "attach a source image, then run recovery")
		case strings.HasPrefix(strings.ToLower(src.URL), "blob:"):
			in.add("record has no asset identifier", "source image is a blob reference; re-upload it from the originating session")
		default:
			if _, ok := r.recognizer.Identify(src.URL); ok {
				in.add("record has no asset identifier", "run recovery to backfill the identifier from "+src.URL)
			} else {
				in.add("record has no asset identifier", "run recovery to re-upload the source image")
			}
		}
		if p.PreviewURL == "" {
			in.add("preview URL is missing", "")
		}
		in.IsValid = false
		return in, nil
	}

	clean := assets.Clean(p.AssetID)
	for _, issue := range assets.Issues(p.AssetID) {
		in.add(issue, "")
	}
	if len(in.Issues) > 0 {
		if clean == "" {
			in.Suggestions = append(in.Suggestions, "identifier cannot be repaired; run recovery after clearing it")
		} else {
			in.Suggestions = append(in.Suggestions, fmt.Sprintf("run cleanup to normalize the identifier to %q", clean))
		}
	}

	switch {
	case p.PreviewURL == "":
		in.add("preview URL is missing", "run cleanup to regenerate the preview")
	case clean != "":
		if id, ok := r.recognizer.Identify(p.PreviewURL); ok && id != clean {
			in.add(fmt.Sprintf("preview URL points at %q instead of %q", id, clean), "run cleanup to regenerate the preview")
		}
	}

	in.IsValid = len(in.Issues) == 0
	return in, nil
}
