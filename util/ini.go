package util

import (
	"gopkg.in/ini.v1"
)

// Ini loads a flat ini file into a string map. A missing file is not an
// error, the result is just empty.
func Ini(filename string) (map[string]string, error) {
	cfg, err := ini.LooseLoad(filename)
	if err != nil {
		return nil, err
	}
	return cfg.Section("").KeysHash(), nil
}
