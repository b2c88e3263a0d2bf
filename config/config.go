package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
)

// Config drives the txbench tool. All fields can also be set from the
// command line; flags win over the file.
type Config struct {
	Addr     string `toml:"addr"`      // Redis address.
	Password string `toml:"password"`  // Redis password, empty for none.
	DB       int    `toml:"db"`        // Redis database number.
	Workers  int    `toml:"workers"`   // Number of concurrent transaction workers.
	Requests int    `toml:"requests"`  // Total number of transactions across all workers.
	Keys     int    `toml:"keys"`      // Number of distinct counter keys to contend on.
	LogLevel string `toml:"log-level"` // error, warn, info or debug.
}

var DefaultConf = Config{
	Addr:     "127.0.0.1:6379",
	Password: "",
	DB:       0,
	Workers:  8,
	Requests: 10000,
	Keys:     16,
	LogLevel: "info",
}

// ParseFile reads a TOML file over the defaults. Unknown keys are an error so
// a typo does not silently fall back to a default.
func ParseFile(path string) (Config, error) {
	conf := DefaultConf
	meta, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return conf, errors.Annotatef(err, "parse config file %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return conf, errors.Errorf("unknown config keys %v in %s", undecoded, path)
	}
	return conf, nil
}
