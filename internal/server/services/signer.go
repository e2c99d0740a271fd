package services

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/server/config"
	"github.com/google/uuid"
)

// Signature is the short-lived credential returned to clients for a direct
// signed upload.
type Signature struct {
	CloudName      string `json:"cloudName"`
	APIKey         string `json:"apiKey"`
	Timestamp      int64  `json:"timestamp"`
	Folder         string `json:"folder"`
	PublicID       string `json:"publicId"`
	Signature      string `json:"signature"`
	UploadURL      string `json:"uploadUrl"`
	Transformation string `json:"transformation,omitempty"`
}

// unsignedParams are sent with an upload but never covered by the signature.
var unsignedParams = map[string]struct{}{
	"file": {}, "api_key": {}, "resource_type": {}, "cloud_name": {}, "signature": {},
}

// SignatureService signs provider upload parameters with the account secret.
type SignatureService struct {
	cloudName string
	apiKey    string
	apiSecret string
	uploadURL string
	now       func() time.Time
}

func NewSignatureService(cfg *config.Config) *SignatureService {
	return &SignatureService{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		uploadURL: strings.TrimRight(cfg.ProviderBaseURL, "/") + "/" + cfg.CloudName + "/image/upload",
		now:       time.Now,
	}
}

// Sign is the provider scheme: SHA-1 hex of the sorted "key=value" pairs
// joined by "&" followed by the API secret. Empty values are skipped.
func (s *SignatureService) Sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if _, skip := unsignedParams[k]; skip || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + s.apiSecret))
	return hex.EncodeToString(sum[:])
}

// Issue signs a fresh upload into folder under a random public id.
func (s *SignatureService) Issue(folder, transformation string) Signature {
	sig := Signature{
		CloudName:      s.cloudName,
		APIKey:         s.apiKey,
		Timestamp:      s.now().Unix(),
		Folder:         folder,
		PublicID:       strings.ReplaceAll(uuid.NewString(), "-", ""),
		UploadURL:      s.uploadURL,
		Transformation: transformation,
	}
	sig.Signature = s.Sign(map[string]string{
		"folder":         sig.Folder,
		"public_id":      sig.PublicID,
		"timestamp":      strconv.FormatInt(sig.Timestamp, 10),
		"transformation": sig.Transformation,
	})
	return sig
}
