package netx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedDataURL is returned by DecodeDataURL.
var ErrMalformedDataURL = errors.New("malformed data URL")

// EncodeDataURL renders data as "data:<mediatype>;base64,<payload>".
func EncodeDataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses "data:[<mediatype>][;base64],<data>". The media type
// defaults to text/plain as in RFC 2397.
func DecodeDataURL(src string) (mediaType string, data []byte, err error) {
	s := strings.TrimSpace(src)
	if len(s) < 5 || !strings.EqualFold(s[:5], "data:") {
		return "", nil, ErrMalformedDataURL
	}
	meta, payload, ok := strings.Cut(s[5:], ",")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}

	isBase64 := false
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		isBase64 = true
		meta = meta[:len(meta)-len(";base64")]
	}
	mediaType = meta
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var unescaped string
		unescaped, err = url.PathUnescape(payload)
		data = []byte(unescaped)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrMalformedDataURL, err)
	}
	return mediaType, data, nil
}
