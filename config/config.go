package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"tcgscrape"

	"gopkg.in/yaml.v2"
)

// DefaultPath is read when no config file is given and it exists.
const DefaultPath = "tcgscrape.yaml"

type Config struct {
	Queries  []string `yaml:"queries"`
	MaxPages int      `yaml:"max_pages"`
	Workers  int      `yaml:"workers"`

	Fetch    FetchConfig    `yaml:"fetch"`
	Search   SearchConfig   `yaml:"search"`
	Listings ListingsConfig `yaml:"listings"`
	Redis    RedisConfig    `yaml:"redis"`
	Output   OutputConfig   `yaml:"output"`
}

type FetchConfig struct {
	PageParam      string   `yaml:"page_param"`
	PageDelay      Duration `yaml:"page_delay"`
	RequestTimeout Duration `yaml:"request_timeout"`
	Render         bool     `yaml:"render"`
	RenderTimeout  Duration `yaml:"render_timeout"`
	Headless       bool     `yaml:"headless"`
	UserAgents     []string `yaml:"user_agents"`
	Proxies        []string `yaml:"proxies"`
	AllowedDomains []string `yaml:"allowed_domains"`
}

type SearchConfig struct {
	Endpoint string `yaml:"endpoint"`
	Param    string `yaml:"param"`
}

type ListingsConfig struct {
	Selectors []string                 `yaml:"selectors"`
	Fields    map[string][]LocatorConfig `yaml:"fields"`
}

// LocatorConfig is the YAML form of tcgscrape.Locator, Attr empty means text.
type LocatorConfig struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr"`
}

func (l LocatorConfig) Locator() tcgscrape.Locator {
	if l.Attr != "" {
		return tcgscrape.Attr(l.Selector, l.Attr)
	}

	return tcgscrape.Text(l.Selector)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type OutputConfig struct {
	CSV  string `yaml:"csv"`
	JSON string `yaml:"json"`
	Dir  string `yaml:"dir"`
}

// Duration reads "2s" style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(v)

	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) D() time.Duration {
	return time.Duration(d)
}

func Default() *Config {
	return &Config{
		MaxPages: 5,
		Workers:  1,
		Fetch: FetchConfig{
			PageParam:      "page",
			PageDelay:      Duration(2 * time.Second),
			RequestTimeout: Duration(30 * time.Second),
			RenderTimeout:  Duration(20 * time.Second),
			Headless:       true,
		},
		Search: SearchConfig{
			Param: "q",
		},
		Redis: RedisConfig{
			Prefix: "tcgscrape",
		},
	}
}

// Load reads path over the defaults, then applies .env and environment
// overrides. An empty path reads DefaultPath when it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

var ErrInvalidConfig = errors.New("invalid config")

func (c *Config) Validate() error {
	if c.MaxPages < 1 {
		return fmt.Errorf("%w: max_pages must be positive, got %d", ErrInvalidConfig, c.MaxPages)
	}

	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}

	for _, sel := range c.Listings.Selectors {
		if err := tcgscrape.ValidateSelector(sel); err != nil {
			return fmt.Errorf("%w: listings: %v", ErrInvalidConfig, err)
		}
	}

	for name := range c.Listings.Fields {
		switch name {
		case "name", "price", "condition":
		default:
			return fmt.Errorf("%w: unknown field %q", ErrInvalidConfig, name)
		}
	}

	if err := c.fields().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

// fields merges configured locators over the defaults, field by field.
func (c *Config) fields() tcgscrape.Fields {
	f := tcgscrape.DefaultFields()

	pick := func(name string, def []tcgscrape.Locator) []tcgscrape.Locator {
		locs, ok := c.Listings.Fields[name]
		if !ok || len(locs) == 0 {
			return def
		}

		out := make([]tcgscrape.Locator, 0, len(locs))
		for _, l := range locs {
			out = append(out, l.Locator())
		}

		return out
	}

	f.Name = pick("name", f.Name)
	f.Price = pick("price", f.Price)
	f.Condition = pick("condition", f.Condition)

	return f
}

// Options maps the config onto collector options.
func (c *Config) Options() []tcgscrape.CollectorOption {
	opts := []tcgscrape.CollectorOption{
		tcgscrape.MaxPages(c.MaxPages),
		tcgscrape.Parallelism(c.Workers),
		tcgscrape.PageDelay(c.Fetch.PageDelay.D()),
		tcgscrape.RequestTimeout(c.Fetch.RequestTimeout.D()),
		tcgscrape.Render(c.Fetch.Render),
		tcgscrape.RenderTimeout(c.Fetch.RenderTimeout.D()),
		tcgscrape.Headless(c.Fetch.Headless),
		tcgscrape.WithFields(c.fields()),
	}

	if c.Fetch.PageParam != "" {
		opts = append(opts, tcgscrape.PageParam(c.Fetch.PageParam))
	}

	if len(c.Fetch.UserAgents) > 0 {
		opts = append(opts, tcgscrape.UserAgents(c.Fetch.UserAgents...))
	}

	if len(c.Fetch.Proxies) > 0 {
		opts = append(opts, tcgscrape.Proxies(c.Fetch.Proxies...))
	}

	if len(c.Fetch.AllowedDomains) > 0 {
		opts = append(opts, tcgscrape.AllowedDomains(c.Fetch.AllowedDomains...))
	}

	if c.Search.Endpoint != "" {
		opts = append(opts, tcgscrape.SearchEndpoint(c.Search.Endpoint, c.Search.Param))
	}

	if len(c.Listings.Selectors) > 0 {
		opts = append(opts, tcgscrape.ListingSelectors(c.Listings.Selectors...))
	}

	return opts
}
