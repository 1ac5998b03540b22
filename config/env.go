package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const envPrefix = "TCGSCRAPE_"

// applyEnv loads .env when present, variables already set win over it.
func (c *Config) applyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	setters := map[string]func(string) error{
		"QUERIES": func(v string) error {
			c.Queries = splitList(v)
			return nil
		},
		"MAX_PAGES": func(v string) (err error) {
			c.MaxPages, err = cast.ToIntE(v)
			return
		},
		"WORKERS": func(v string) (err error) {
			c.Workers, err = cast.ToIntE(v)
			return
		},
		"RENDER": func(v string) (err error) {
			c.Fetch.Render, err = cast.ToBoolE(v)
			return
		},
		"HEADLESS": func(v string) (err error) {
			c.Fetch.Headless, err = cast.ToBoolE(v)
			return
		},
		"PAGE_DELAY": func(v string) error {
			d, err := cast.ToDurationE(v)
			c.Fetch.PageDelay = Duration(d)
			return err
		},
		"REQUEST_TIMEOUT": func(v string) error {
			d, err := cast.ToDurationE(v)
			c.Fetch.RequestTimeout = Duration(d)
			return err
		},
		"RENDER_TIMEOUT": func(v string) error {
			d, err := cast.ToDurationE(v)
			c.Fetch.RenderTimeout = Duration(d)
			return err
		},
		"USER_AGENT": func(v string) error {
			c.Fetch.UserAgents = []string{v}
			return nil
		},
		"PROXIES": func(v string) error {
			c.Fetch.Proxies = splitList(v)
			return nil
		},
		"REDIS_ADDR": func(v string) error {
			c.Redis.Address = v
			return nil
		},
		"REDIS_PASSWORD": func(v string) error {
			c.Redis.Password = v
			return nil
		},
		"REDIS_DB": func(v string) (err error) {
			c.Redis.DB, err = cast.ToIntE(v)
			return
		},
	}

	for key, set := range setters {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok || v == "" {
			continue
		}

		if err := set(v); err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidConfig, envPrefix, key, v, err)
		}
	}

	return nil
}

func splitList(v string) []string {
	out := make([]string, 0)

	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}
