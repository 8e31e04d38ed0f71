package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Loyalty  LoyaltyConfig  `mapstructure:"loyalty" json:"loyalty"`
	Log      LogConfig      `mapstructure:"log" json:"log"`
	Display  DisplayConfig  `mapstructure:"display" json:"display"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" json:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

type LoyaltyConfig struct {
	SeedFile string `mapstructure:"seed_file" json:"seedFile"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	Development bool   `mapstructure:"development" json:"development"`
}

type DisplayConfig struct {
	Locale string `mapstructure:"locale" json:"locale"`
}

var (
	cfg = defaultConfig()
	mu  sync.RWMutex
)

func defaultConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "./shopadmin.db"},
		Loyalty:  LoyaltyConfig{SeedFile: "./settings.yaml"},
		Log:      LogConfig{Level: "info"},
		Display:  DisplayConfig{Locale: "en-US"},
	}
}

// LoadConfig は config.yaml (任意) と SHOPADMIN_ 環境変数から設定を読み込みます。
// dir が空ならカレントディレクトリを探します。ファイルがなくても既定値で続行します。
func LoadConfig(dir string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)
	v.SetEnvPrefix("SHOPADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := defaultConfig()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("loyalty.seed_file", d.Loyalty.SeedFile)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("display.locale", d.Display.Locale)

	var readErr error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			readErr = err
		}
	}

	var tempCfg Config
	if err := v.Unmarshal(&tempCfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if readErr != nil {
		return tempCfg, fmt.Errorf("failed to read config file: %w", readErr)
	}
	if tempCfg.Server.Port <= 0 || tempCfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server.port %d", tempCfg.Server.Port)
	}
	if _, err := language.Parse(tempCfg.Display.Locale); err != nil {
		return Config{}, fmt.Errorf("invalid display.locale %q: %w", tempCfg.Display.Locale, err)
	}

	mu.Lock()
	cfg = tempCfg
	mu.Unlock()
	return tempCfg, nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// DisplayLanguage は表示用ロケールです。解釈できなければ英語。
func DisplayLanguage() language.Tag {
	tag, err := language.Parse(GetConfig().Display.Locale)
	if err != nil {
		return language.English
	}
	return tag
}
