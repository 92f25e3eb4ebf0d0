package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/spf13/viper"
)

type Config struct {
	PbfFile    string          `mapstructure:"pbf_file" validate:"required"`
	SrtmDir    string          `mapstructure:"srtm_dir"`
	OutputFile string          `mapstructure:"output_file" validate:"required"`
	Output     OutputConfig    `mapstructure:"output"`
	Elevation  ElevationConfig `mapstructure:"elevation"`
	Builder    BuilderConfig   `mapstructure:"builder"`
	Reader     ReaderConfig    `mapstructure:"reader"`
}

type OutputConfig struct {
	Compression string `mapstructure:"compression" validate:"oneof=none gzip bzip2"`
}

type ElevationConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	CacheTiles int     `mapstructure:"cache_tiles" validate:"gte=1"`
	Fallback   float64 `mapstructure:"fallback"`
	Workers    int     `mapstructure:"workers" validate:"gte=1"`
}

type BuilderConfig struct {
	OnewayPolicy   string `mapstructure:"oneway_policy" validate:"oneof=suppress downgrade"`
	KeepForbidden  bool   `mapstructure:"keep_forbidden"`
	BicycleRoutes  bool   `mapstructure:"bicycle_routes"`
	PruneDominated bool   `mapstructure:"prune_dominated"`
	TwoPass        bool   `mapstructure:"two_pass"`
}

type ReaderConfig struct {
	Procs     int `mapstructure:"procs" validate:"gte=0"`
	QueueSize int `mapstructure:"queue_size" validate:"gte=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.compression", "none")
	v.SetDefault("elevation.enabled", true)
	v.SetDefault("elevation.cache_tiles", 16)
	v.SetDefault("elevation.fallback", 0.0)
	v.SetDefault("elevation.workers", 4)
	v.SetDefault("builder.oneway_policy", "suppress")
	v.SetDefault("builder.keep_forbidden", false)
	v.SetDefault("builder.bicycle_routes", false)
	v.SetDefault("builder.prune_dominated", false)
	v.SetDefault("builder.two_pass", true)
	v.SetDefault("reader.procs", 0)
	v.SetDefault("reader.queue_size", 4096)
}

// NewViper returns a viper instance with the extractor defaults and PBFEXTRACTOR_* env overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("pbfextractor")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadConfig reads configFile (if not empty) into v.
func ReadConfig(v *viper.Viper, configFile string) error {
	if configFile == "" {
		return nil
	}
	v.SetConfigFile(configFile)

	err := v.ReadInConfig()
	if err != nil {
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

// LoadConfig decodes and validates the configuration held by v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	// env-only keys are not seen by Unmarshal unless bound
	for _, key := range []string{"pbf_file", "srtm_dir", "output_file"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, WrapErrorf(err, ErrBadParamInput, "decode config")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		return nil, WrapErrorf(err, ErrBadParamInput, "invalid config: %s", strings.Join(translateError(err, trans), "; "))
	}
	return &cfg, nil
}

func translateError(err error, trans ut.Translator) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", e.Translate(trans), e.Namespace()))
	}
	return msgs
}
