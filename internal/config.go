package internal

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type NovaTupleConfig struct {
	AppName string `mapstructure:"app_name" validate:"required"`

	Storage struct {
		Workdir      string `mapstructure:"workdir" validate:"required"`
		PageSize     int    `mapstructure:"page_size" validate:"min=512,max=65536"`
		PoolCapacity int    `mapstructure:"pool_capacity" validate:"min=1"`
	} `mapstructure:"storage"`

	LayoutCache struct {
		Capacity int `mapstructure:"capacity" validate:"min=1"`
	} `mapstructure:"layout_cache"`

	Catalog struct {
		SchemaFile string `mapstructure:"schema_file"`
	} `mapstructure:"catalog"`

	Log struct {
		Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "novatuple")
	v.SetDefault("storage.workdir", "./data")
	v.SetDefault("storage.page_size", 4096)
	v.SetDefault("storage.pool_capacity", 128)
	v.SetDefault("layout_cache.capacity", 64)
	v.SetDefault("catalog.schema_file", "")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads a YAML config file. An empty path yields the defaults.
// NOVATUPLE_* environment variables override file values, e.g.
// NOVATUPLE_STORAGE_PAGE_SIZE=8192.
func LoadConfig(path string) (*NovaTupleConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("novatuple")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg NovaTupleConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
