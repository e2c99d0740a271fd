package assets

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultDeliveryHost serves provider-stored assets.
const DefaultDeliveryHost = "res.cloudinary.com"

// DefaultPreviewTransformation renders the derived preview rendition.
const DefaultPreviewTransformation = "c_fill,w_400,h_400,q_auto,f_auto"

var (
	versionSegment = regexp.MustCompile(`^v\d+$`)
	// transformation segments look like "w_400" or "c_fill,w_400,h_400".
	transformationSegment = regexp.MustCompile(`^(a|ar|b|bo|c|co|dpr|e|f|fl|g|h|l|o|q|r|t|u|w|x|y|z)_[^/]*$`)
	// origin storage keys are <folder>/YYYY/MM/DD/<uuid>[.ext].
	originKey = regexp.MustCompile(`(^|/)\d{4}/\d{2}/\d{2}/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// Recognizer knows which URLs point at stored assets and how to derive
// preview URLs for identifiers.
type Recognizer struct {
	// CloudName is the provider account; empty accepts any account.
	CloudName string
	// DeliveryHost defaults to DefaultDeliveryHost.
	DeliveryHost string
	// OriginBaseURL is the public base of the application's own object
	// storage, e.g. "https://media.example.com/market".
	OriginBaseURL string
	// PreviewTransformation defaults to DefaultPreviewTransformation.
	PreviewTransformation string
}

func (r Recognizer) host() string {
	if r.DeliveryHost != "" {
		return r.DeliveryHost
	}
	return DefaultDeliveryHost
}

// Identify extracts the clean identifier from a recognized storage URL. It
// reports false for anything that is not a provider delivery URL or an
// origin-storage URL.
func (r Recognizer) Identify(rawURL string) (string, bool) {
	if IsLocalReference(rawURL) {
		return "", false
	}
	if id, ok := r.identifyOrigin(rawURL); ok {
		return id, true
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !strings.EqualFold(u.Host, r.host()) {
		return "", false
	}

	// /<cloud>/<resource>/<delivery>/[transformations/][vNNN/]<public id>
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 4 {
		return "", false
	}
	if r.CloudName != "" && segments[0] != r.CloudName {
		return "", false
	}
	if segments[2] != "upload" {
		return "", false
	}

	rest := segments[3:]
	if i := indexOfVersion(rest); i >= 0 {
		rest = rest[i+1:]
	} else {
		for len(rest) > 1 && isTransformation(rest[0]) {
			rest = rest[1:]
		}
	}

	id := Clean(strings.Join(rest, "/"))
	if id == "" {
		return "", false
	}
	return id, true
}

func (r Recognizer) identifyOrigin(rawURL string) (string, bool) {
	base := strings.TrimRight(r.OriginBaseURL, "/")
	if base == "" || !strings.HasPrefix(rawURL, base+"/") {
		return "", false
	}
	id := Clean(strings.TrimPrefix(rawURL, base+"/"))
	return id, id != ""
}

// IsOrigin reports whether rawURL lives under OriginBaseURL. Origin assets
// have no derived renditions, so their URL doubles as the preview.
func (r Recognizer) IsOrigin(rawURL string) bool {
	_, ok := r.identifyOrigin(rawURL)
	return ok
}

// IsOriginKey reports whether id has the shape of a key assigned by the
// origin object storage. Such ids have no provider renditions, and since
// cleaning drops the extension their URL cannot be rebuilt from the id.
func IsOriginKey(id string) bool {
	return originKey.MatchString(Clean(id))
}

func indexOfVersion(segments []string) int {
	for i, s := range segments[:len(segments)-1] {
		if versionSegment.MatchString(s) {
			return i
		}
	}
	return -1
}

func isTransformation(segment string) bool {
	if strings.Contains(segment, ",") {
		return true
	}
	return transformationSegment.MatchString(segment)
}

// PreviewURL derives the smaller, non-authoritative rendition URL for id.
func (r Recognizer) PreviewURL(id string) string {
	t := r.PreviewTransformation
	if t == "" {
		t = DefaultPreviewTransformation
	}
	return fmt.Sprintf("https://%s/%s/image/upload/%s/%s", r.host(), r.CloudName, t, Clean(id))
}

// DeliveryURL is the full-size delivery URL for id.
func (r Recognizer) DeliveryURL(id string) string {
	return fmt.Sprintf("https://%s/%s/image/upload/%s", r.host(), r.CloudName, Clean(id))
}
