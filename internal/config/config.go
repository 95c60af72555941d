package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/rankboard/internal/board"
	"github.com/KaramelBytes/rankboard/internal/chart"
	"github.com/KaramelBytes/rankboard/internal/classify"
	"github.com/KaramelBytes/rankboard/internal/dataset"
)

// Global configuration structure.
type Global struct {
	DataPath string `mapstructure:"data_path" yaml:"data_path"`
	Addr     string `mapstructure:"addr" yaml:"addr"`
	TopN     int    `mapstructure:"top_n" yaml:"top_n"`

	// Decoding and column detection
	Encodings        []string `mapstructure:"encodings" yaml:"encodings"`
	RegionKeywords   []string `mapstructure:"region_keywords" yaml:"region_keywords"`
	CategoryKeywords []string `mapstructure:"category_keywords" yaml:"category_keywords"`
	LabelColumn      string   `mapstructure:"label_column" yaml:"label_column"`

	// Chart appearance
	ChartScheme string `mapstructure:"chart_scheme" yaml:"chart_scheme"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`

	// Dashboard server
	CacheSize     int    `mapstructure:"cache_size" yaml:"cache_size"`
	SessionSecret string `mapstructure:"session_secret" yaml:"session_secret"`
	MaxUploadMB   int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	Title         string `mapstructure:"title" yaml:"title"`
	Caption       string `mapstructure:"caption" yaml:"caption"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"data_path", "addr", "top_n", "encodings", "region_keywords", "category_keywords",
	"label_column", "chart_scheme", "chart_width", "chart_height", "cache_size",
	"session_secret", "max_upload_mb", "title", "caption",
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".rankboard"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.rankboard/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("RANKBOARD")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_path", "countriesMBTI_16types.csv")
	v.SetDefault("addr", ":8501")
	v.SetDefault("top_n", board.DefaultTopN)
	v.SetDefault("encodings", dataset.DefaultEncodings)
	v.SetDefault("region_keywords", classify.DefaultRegionKeywords)
	v.SetDefault("category_keywords", classify.DefaultCategoryKeywords)
	v.SetDefault("label_column", "")
	v.SetDefault("chart_scheme", chart.DefaultScheme)
	v.SetDefault("chart_width", 600)
	v.SetDefault("chart_height", 400)
	v.SetDefault("cache_size", 16)
	v.SetDefault("session_secret", "")
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("title", "Rankboard")
	v.SetDefault("caption", "Pick a column to see the rows with the highest values.")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Get returns the display value of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "data_path":
		return c.DataPath, nil
	case "addr":
		return c.Addr, nil
	case "top_n":
		return strconv.Itoa(c.TopN), nil
	case "encodings":
		return strings.Join(c.Encodings, ","), nil
	case "region_keywords":
		return strings.Join(c.RegionKeywords, ","), nil
	case "category_keywords":
		return strings.Join(c.CategoryKeywords, ","), nil
	case "label_column":
		return c.LabelColumn, nil
	case "chart_scheme":
		return c.ChartScheme, nil
	case "chart_width":
		return strconv.Itoa(c.ChartWidth), nil
	case "chart_height":
		return strconv.Itoa(c.ChartHeight), nil
	case "cache_size":
		return strconv.Itoa(c.CacheSize), nil
	case "session_secret":
		return mask(c.SessionSecret), nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "title":
		return c.Title, nil
	case "caption":
		return c.Caption, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val and assigns it to key. List keys take comma-separated values.
func (c *Global) Set(key, val string) error {
	switch key {
	case "data_path":
		c.DataPath = val
	case "addr":
		c.Addr = val
	case "top_n":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for top_n: %v", val)
		}
		c.TopN = i
	case "encodings":
		c.Encodings = splitList(val)
	case "region_keywords":
		c.RegionKeywords = splitList(val)
	case "category_keywords":
		c.CategoryKeywords = splitList(val)
	case "label_column":
		c.LabelColumn = val
	case "chart_scheme":
		if !chart.ValidScheme(val) {
			return fmt.Errorf("invalid chart_scheme: %s (use %s)", val, strings.Join(chart.Schemes(), ", "))
		}
		c.ChartScheme = strings.ToLower(val)
	case "chart_width", "chart_height", "cache_size", "max_upload_mb":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int for %s: %v", key, val)
		}
		switch key {
		case "chart_width":
			c.ChartWidth = i
		case "chart_height":
			c.ChartHeight = i
		case "cache_size":
			c.CacheSize = i
		default:
			c.MaxUploadMB = i
		}
	case "session_secret":
		c.SessionSecret = val
	case "title":
		c.Title = val
	case "caption":
		c.Caption = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}

// DatasetOptions returns the read options implied by the configuration.
func (c *Global) DatasetOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	if len(c.Encodings) > 0 {
		opt.Encodings = append([]string(nil), c.Encodings...)
	}
	return opt
}

// BoardOptions returns the view-building options implied by the configuration.
func (c *Global) BoardOptions() board.Options {
	opt := board.DefaultOptions()
	rules := opt.Rules
	if len(c.RegionKeywords) > 0 {
		rules[0].Keywords = append([]string(nil), c.RegionKeywords...)
	}
	if len(c.CategoryKeywords) > 0 {
		rules[1].Keywords = append([]string(nil), c.CategoryKeywords...)
	}
	opt.LabelColumn = c.LabelColumn
	if c.TopN > 0 {
		opt.TopN = c.TopN
	}
	if c.ChartScheme != "" {
		opt.Chart.Scheme = c.ChartScheme
	}
	if c.ChartWidth > 0 {
		opt.Chart.Width = c.ChartWidth
	}
	if c.ChartHeight > 0 {
		opt.Chart.Height = c.ChartHeight
	}
	return opt
}
