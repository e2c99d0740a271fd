package transport

import (
	"net/http"
	"time"
)

// Backend is the trusted backend as seen by the strategies that need it.
type Backend interface {
	SignatureProvider
	ProxyUploader
	StoragePresigner
}

// ChainConfig tunes the default strategy chain. Zero values keep the
// per-strategy defaults; an empty UploadURL or UploadPreset disables the
// unsigned strategy.
type ChainConfig struct {
	UploadURL         string
	UploadPreset      string
	Eager             string
	Timeout           time.Duration
	ConversionTimeout time.Duration
	SynthesizeEvery   time.Duration
	HTTPClient        *http.Client
}

// Chain builds the strategies in their fixed priority order: direct signed,
// direct unsigned, proxied, origin storage.
func Chain(b Backend, cfg ChainConfig) []Strategy {
	signed := NewDirectSigned(b, cfg.HTTPClient)
	unsigned := NewDirectUnsigned(cfg.UploadURL, cfg.UploadPreset, cfg.HTTPClient)
	proxied := NewProxied(b)
	origin := NewOriginStorage(b, cfg.HTTPClient)

	if cfg.Timeout > 0 {
		signed.WithTimeout(cfg.Timeout)
		proxied.WithTimeout(cfg.Timeout)
		origin.WithTimeout(cfg.Timeout)
	}
	if cfg.ConversionTimeout > 0 {
		unsigned.WithTimeout(cfg.ConversionTimeout)
	}
	if cfg.Eager != "" {
		unsigned.WithEager(cfg.Eager)
	}
	if cfg.SynthesizeEvery > 0 {
		proxied.WithInterval(cfg.SynthesizeEvery)
		origin.WithInterval(cfg.SynthesizeEvery)
	}

	return []Strategy{signed, unsigned, proxied, origin}
}
