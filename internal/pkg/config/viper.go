package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper loads configuration from pathFile and keeps it in sync with the file.
//
// Environment variables override file values: smtp.password is read from SMTP_PASSWORD.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()

	filename := path.Base(pathFile)
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filename, path.Ext(filename)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(ev fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", pathFile, "op", ev.Op.String(), "error", err)
			return
		}
		slog.Info("config success reloaded", "path", pathFile)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func (vc *Viper) GetBool(key string) bool { return vc.v.GetBool(key) }

func (vc *Viper) GetInt(key string) int { return vc.v.GetInt(key) }

func (vc *Viper) GetInt64(key string) int64 { return vc.v.GetInt64(key) }

func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

func (vc *Viper) GetString(key string) string { return vc.v.GetString(key) }

func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

func (vc *Viper) GetHour(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Hour
}

func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}

	return data
}

func (vc *Viper) GetArray(key string) []string {
	items := lo.Map(strings.Split(vc.v.GetString(key), ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})

	return lo.Compact(items)
}

func (vc *Viper) GetMap(key string) map[string]string {
	m := make(map[string]string)
	for _, pair := range vc.GetArray(key) {
		k, v, ok := strings.Cut(pair, ":")
		if ok {
			m[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	return m
}

// Close implements io.Closer; viper holds nothing to release.
func (vc *Viper) Close() error {
	return nil
}
