package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/flagx"
	"github.com/dmitrijs2005/mediaupload/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept both strings
// such as "15m" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	AdminUser                   string         `json:"admin_user"`
	AdminPassword               string         `json:"admin_password"`
	CloudName                   string         `json:"cloud_name"`
	APIKey                      string         `json:"api_key"`
	APISecret                   string         `json:"api_secret"`
	ProviderBaseURL             string         `json:"provider_base_url"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	PublicBaseURL               string         `json:"public_base_url"`
	PresignValidityDuration     timex.Duration `json:"presign_validity_duration"`
	MaxProxyBytes               int64          `json:"max_proxy_bytes"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c/-config. Missing
// keys keep their current values. An unreadable file or invalid JSON
// panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setString(&config.AdminUser, c.AdminUser)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.CloudName, c.CloudName)
	setString(&config.APIKey, c.APIKey)
	setString(&config.APISecret, c.APISecret)
	setString(&config.ProviderBaseURL, c.ProviderBaseURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setDuration(&config.PresignValidityDuration, c.PresignValidityDuration)
	setString(&config.LogLevel, c.LogLevel)
	if c.MaxProxyBytes > 0 {
		config.MaxProxyBytes = c.MaxProxyBytes
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = time.Duration(v.Duration)
	}
}
