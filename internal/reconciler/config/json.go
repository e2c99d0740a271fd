package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/flagx"
	"github.com/dmitrijs2005/mediaupload/internal/timex"
)

type JsonConfig struct {
	DatabaseDSN           string         `json:"database_dsn"`
	BatchLimit            int            `json:"batch_limit"`
	CloudName             string         `json:"cloud_name"`
	DeliveryHost          string         `json:"delivery_host"`
	PreviewTransformation string         `json:"preview_transformation"`
	OriginBaseURL         string         `json:"origin_base_url"`
	BackendURL            string         `json:"backend_url"`
	Username              string         `json:"username"`
	Password              string         `json:"password"`
	UploadURL             string         `json:"upload_url"`
	UploadPreset          string         `json:"upload_preset"`
	RequestTimeout        timex.Duration `json:"request_timeout"`
}

// parseJson overlays values from the file named by -c/-config. Mode and
// record id are per-run and only come from flags.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	if jc.BatchLimit > 0 {
		cfg.BatchLimit = jc.BatchLimit
	}
	setString(&cfg.CloudName, jc.CloudName)
	setString(&cfg.DeliveryHost, jc.DeliveryHost)
	setString(&cfg.PreviewTransformation, jc.PreviewTransformation)
	setString(&cfg.OriginBaseURL, jc.OriginBaseURL)
	setString(&cfg.BackendURL, jc.BackendURL)
	setString(&cfg.Username, jc.Username)
	setString(&cfg.Password, jc.Password)
	setString(&cfg.UploadURL, jc.UploadURL)
	setString(&cfg.UploadPreset, jc.UploadPreset)
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
