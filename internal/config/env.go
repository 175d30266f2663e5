package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Env holds the settings that may come from the environment. Set values
// win over the file.
type Env struct {
	BotToken    string `envconfig:"BOT_TOKEN"`
	DBPath      string `envconfig:"DB_PATH"`
	AdminHandle int64  `envconfig:"ADMIN_HANDLE"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	HTTPAddr    string `envconfig:"HTTP_ADDR"`
}

// legacyEnv holds the unprefixed names older deployments used.
type legacyEnv struct {
	BotToken       string `envconfig:"BOT_TOKEN"`
	AdminHandle    int64  `envconfig:"ADMIN_TELEGRAM_ID"`
	AdminFullName  string `envconfig:"ADMIN_FULL_NAME"`
	AdminPosition  string `envconfig:"ADMIN_POSITION"`
	AdminBirthDate string `envconfig:"ADMIN_BIRTH_DATE"`
}

// LoadDotEnv loads the given .env files (default ".env") without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ReadEnv reads ORGBOT_* variables.
func ReadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("orgbot", &e); err != nil {
		return Env{}, fmt.Errorf("env: %w", err)
	}
	return e, nil
}

// ApplyEnv overlays the environment onto c. ORGBOT_* names win over the
// legacy ones.
func ApplyEnv(c *Config) error {
	var old legacyEnv
	if err := envconfig.Process("", &old); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	e, err := ReadEnv()
	if err != nil {
		return err
	}

	set := func(dst *string, vals ...string) {
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.Telegram.Token, e.BotToken, old.BotToken)
	set(&c.Storage.Path, e.DBPath)
	set(&c.Logging.Level, e.LogLevel)
	set(&c.HTTP.Addr, e.HTTPAddr)
	set(&c.Admin.FullName, old.AdminFullName)
	set(&c.Admin.Position, old.AdminPosition)
	set(&c.Admin.BirthDate, old.AdminBirthDate)

	switch {
	case e.AdminHandle != 0:
		c.Admin.Handle = e.AdminHandle
	case old.AdminHandle != 0:
		c.Admin.Handle = old.AdminHandle
	}
	return nil
}
