package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "COMPUTEPLANE"

// Load reads parameters from path on top of the defaults. Any parameter can
// be overridden by an environment variable, e.g.
// COMPUTEPLANE_MAX_JOBS_PER_POOL=10. An empty path only applies the
// environment.
func Load(path string) (Params, error) {
	v := viper.New()
	params := Default()
	setDefaults(v, params)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Params{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&params); err != nil {
		return Params{}, fmt.Errorf("decode config: %w", err)
	}
	if err := params.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid config: %w", err)
	}
	return params, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file does not mention the key.
func setDefaults(v *viper.Viper, p Params) {
	rv := reflect.ValueOf(p)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		key := rt.Field(i).Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		v.SetDefault(key, rv.Field(i).Interface())
	}
}
