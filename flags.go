package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags maps each dashed flag onto its snake_case config key so that an
// explicitly set flag beats the config file and environment
func bindFlags(v *viper.Viper, lookup func(string) *pflag.Flag, names ...string) {
	for _, name := range names {
		flag := lookup(name)
		if flag == nil {
			continue
		}
		_ = v.BindPFlag(configKey(name), flag)
	}
}

func configKey(flag string) string {
	key := []byte(flag)
	for i, c := range key {
		if c == '-' {
			key[i] = '_'
		}
	}
	return string(key)
}
