package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token
// on calls to the trusted backend.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix prefixes the access token inside AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// ContentDigestHeaderName carries the hex BLAKE2b-256 digest of a proxied
// payload so the backend can verify it before storing.
const ContentDigestHeaderName = "X-Content-Digest"
