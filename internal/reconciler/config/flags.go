package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/mediaupload/internal/flagx"
)

// parseFlags populates Config from command-line flags.
//
//	-d string   PostgreSQL DSN
//	-m string   mode: cleanup | recover | check
//	-id string  record id
//	-l int      batch limit
//	-n string   provider cloud name
//	-o string   origin storage public base URL
//	-b string   backend REST base URL (enables re-upload)
//	-u string   backend username
//	-p string   backend password
//	-preset string provider upload preset
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-m", "-id", "-l", "-n", "-o", "-b", "-u", "-p", "-preset"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "mode: cleanup, recover or check")
	fs.StringVar(&cfg.RecordID, "id", cfg.RecordID, "record id")
	fs.IntVar(&cfg.BatchLimit, "l", cfg.BatchLimit, "records per run")
	fs.StringVar(&cfg.CloudName, "n", cfg.CloudName, "provider cloud name")
	fs.StringVar(&cfg.OriginBaseURL, "o", cfg.OriginBaseURL, "origin storage public base URL")
	fs.StringVar(&cfg.BackendURL, "b", cfg.BackendURL, "backend REST base URL")
	fs.StringVar(&cfg.Username, "u", cfg.Username, "backend username")
	fs.StringVar(&cfg.Password, "p", cfg.Password, "backend password")
	fs.StringVar(&cfg.UploadPreset, "preset", cfg.UploadPreset, "provider upload preset")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
