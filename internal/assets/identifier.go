// Package assets holds the asset identifier utilities shared by the live
// upload path and the reconciler: cleaning and validating identifiers,
// recognizing storage URLs and deriving preview URLs.
//
// A clean identifier never carries a version prefix ("v1699999999/"), never
// starts or ends with a slash, has no file extension and only uses
// [A-Za-z0-9_-/]. Clean is idempotent: Clean(Clean(x)) == Clean(x).
package assets

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/common"
)

var (
	versionPrefix = regexp.MustCompile(`^v\d+/`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9_\-/]`)
	repeatedSlash = regexp.MustCompile(`/{2,}`)
)

// mediaExtensions are stripped from the last identifier segment.
var mediaExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".avif": {},
	".heic": {}, ".heif": {}, ".tif": {}, ".tiff": {}, ".bmp": {}, ".svg": {},
	".mp4": {}, ".mov": {}, ".webm": {},
}

// Clean converts a raw provider identifier into its canonical form.
func Clean(raw string) string {
	id := strings.TrimSpace(raw)
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}
	id = strings.Trim(id, "/")

	for versionPrefix.MatchString(id) {
		id = strings.Trim(versionPrefix.ReplaceAllString(id, ""), "/")
	}

	if ext := strings.ToLower(path.Ext(id)); ext != "" {
		if _, ok := mediaExtensions[ext]; ok {
			id = id[:len(id)-len(ext)]
		}
	}

	id = unsafeChars.ReplaceAllString(id, "_")
	id = repeatedSlash.ReplaceAllString(id, "/")
	return strings.Trim(id, "/")
}

// Issues lists every reason id is not a clean identifier. An empty slice
// means the identifier is valid.
func Issues(id string) []string {
	var issues []string
	if strings.TrimSpace(id) == "" {
		return []string{"identifier is empty"}
	}
	if versionPrefix.MatchString(strings.TrimLeft(id, "/")) {
		issues = append(issues, "identifier carries a version prefix")
	}
	if strings.HasPrefix(id, "/") || strings.HasSuffix(id, "/") {
		issues = append(issues, "identifier has a leading or trailing slash")
	}
	if repeatedSlash.MatchString(id) {
		issues = append(issues, "identifier has empty path segments")
	}
	if unsafeChars.MatchString(id) {
		issues = append(issues, "identifier contains unsafe characters")
	}
	if len(issues) == 0 && Clean(id) != id {
		issues = append(issues, "identifier is not in canonical form")
	}
	return issues
}

// Validate returns an error wrapping common.ErrValidation when id is not a
// clean identifier.
func Validate(id string) error {
	issues := Issues(id)
	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %q: %s", common.ErrValidation, id, strings.Join(issues, "; "))
}

// IsLocalReference reports whether src points at a transient in-memory
// source (a blob URL or an inline data URL) rather than stored content.
func IsLocalReference(src string) bool {
	s := strings.ToLower(strings.TrimSpace(src))
	return strings.HasPrefix(s, "blob:") || strings.HasPrefix(s, "data:")
}
