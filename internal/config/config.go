package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/viper"
)

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingAPIKey 表示文件、环境变量都没有提供 api_key。
	ErrCodeMissingAPIKey = "config_missing_api_key"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	DefaultLanguage     = "en-US"
	DefaultGenreLimit   = 10
	DefaultListen       = ":8080"
	DefaultLogLevel     = "INFO"

	// MaxConcurrency 是 trailer 查询并发上限的截断值；0 表示不限。
	MaxConcurrency = 64
	// MaxRetry 是传输层重试次数的截断值。
	MaxRetry = 5

	envPrefix = "flixfeed"
	fileName  = "flixfeed"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息（用于覆盖优先级）。
type CLIArgs struct {
	ConfigPath string

	Language    string
	LanguageSet bool

	Listen    string
	ListenSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 flixfeed.{yaml,json,toml} 与 FLIXFEED_* 环境变量的解析结构。
type FileConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	ImageBaseURL string        `mapstructure:"image_base_url"`
	Language     string        `mapstructure:"language"`
	GenreLimit   int           `mapstructure:"genre_limit"`
	Concurrency  int           `mapstructure:"concurrency"`
	RetryMax     int           `mapstructure:"retry_max"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Proxy        ProxyConfig   `mapstructure:"proxy"`
	Listen       string        `mapstructure:"listen"`
	LogLevel     string        `mapstructure:"log_level"`
}

type ProxyConfig struct {
	URL string `mapstructure:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigFile 是实际读取的配置文件（可能为空：只用了默认值与环境变量）。
	ConfigFile string

	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	GenreLimit   int

	Concurrency int
	RetryMax    int
	RateLimit   float64
	RateBurst   int
	Timeout     time.Duration
	ProxyURL    string

	Listen   string
	LogLevel string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingAPIKey:
		return fmt.Sprintf("%s：缺少 api_key（配置文件 api_key、FLIXFEED_API_KEY 或 TMDB_API_KEY）", e.Code)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) <cwd>/.env 若存在则先加载（不覆盖已存在的环境变量）
// 2) CLI 提供 --config：该文件必须存在
// 3) 否则尝试 <cwd>/flixfeed.{yaml,yml,json,toml}（可选）
//
// 覆盖优先级（固定）：CLI > 环境变量 > 配置文件 > 默认值。
// 只有 language / listen / log_level 暴露为 CLI 参数，其余字段仅由文件与环境变量控制。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	envPath := filepath.Join(cwdAbs, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
	}

	v := newViper()

	cfgPath := ""
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		if _, err := os.Stat(cfgPath); err != nil {
			if os.IsNotExist(err) {
				return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
			}
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	} else {
		v.SetConfigName(fileName)
		v.AddConfigPath(cwdAbs)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: filepath.Join(cwdAbs, fileName), Err: err}
			}
		}
		cfgPath = v.ConfigFileUsed()
	}

	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return merge(cli, fc, cfgPath)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	// proxy.url -> FLIXFEED_PROXY_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", "FLIXFEED_API_KEY", "TMDB_API_KEY")

	// AutomaticEnv 只对“已知 key”生效，因此每个字段都要有默认值。
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("image_base_url", DefaultImageBaseURL)
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("genre_limit", DefaultGenreLimit)
	v.SetDefault("concurrency", 0)
	v.SetDefault("retry_max", 0)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_burst", 1)
	// 0 表示不设客户端超时：慢请求一直等待，而不是降级为 null。
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("proxy.url", "")
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("log_level", DefaultLogLevel)
	return v
}

func merge(cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	apiKey := strings.TrimSpace(fc.APIKey)
	if apiKey == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingAPIKey, Path: cfgPath}
	}

	baseURL, err := httpURL("base_url", fc.BaseURL, DefaultBaseURL)
	if err != nil {
		return invalid(err)
	}
	imageBaseURL, err := httpURL("image_base_url", fc.ImageBaseURL, DefaultImageBaseURL)
	if err != nil {
		return invalid(err)
	}

	// language / listen / log_level：CLI > env/file > 默认
	language := strings.TrimSpace(fc.Language)
	if cli.LanguageSet {
		language = strings.TrimSpace(cli.Language)
	}
	if language == "" {
		return invalid(fmt.Errorf("language 不能为空"))
	}

	listen := strings.TrimSpace(fc.Listen)
	if cli.ListenSet {
		listen = strings.TrimSpace(cli.Listen)
	}
	if listen == "" {
		listen = DefaultListen
	}

	logLevel := strings.ToUpper(strings.TrimSpace(fc.LogLevel))
	if cli.LogLevelSet {
		logLevel = strings.ToUpper(strings.TrimSpace(cli.LogLevel))
	}
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}
	if _, err := logging.LogLevel(logLevel); err != nil {
		return invalid(fmt.Errorf("log_level 无效：%q", logLevel))
	}

	genreLimit := fc.GenreLimit
	if genreLimit <= 0 {
		genreLimit = DefaultGenreLimit
	}

	// 0 表示不限并发（与“全部并发发起”的默认行为一致）；超出截断。
	concurrency := clamp(fc.Concurrency, 0, MaxConcurrency)
	retryMax := clamp(fc.RetryMax, 0, MaxRetry)

	if fc.RateLimit < 0 {
		return invalid(fmt.Errorf("rate_limit 不能为负数：%v", fc.RateLimit))
	}
	rateBurst := fc.RateBurst
	if rateBurst < 1 {
		rateBurst = 1
	}

	if fc.Timeout < 0 {
		return invalid(fmt.Errorf("timeout 不能为负数：%v", fc.Timeout))
	}

	proxyURL := strings.TrimSpace(fc.Proxy.URL)
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
	}

	return EffectiveConfig{
		ConfigFile:   cfgPath,
		APIKey:       apiKey,
		BaseURL:      baseURL,
		ImageBaseURL: imageBaseURL,
		Language:     language,
		GenreLimit:   genreLimit,
		Concurrency:  concurrency,
		RetryMax:     retryMax,
		RateLimit:    fc.RateLimit,
		RateBurst:    rateBurst,
		Timeout:      fc.Timeout,
		ProxyURL:     proxyURL,
		Listen:       listen,
		LogLevel:     logLevel,
	}, nil
}

func httpURL(field, raw, def string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s 无效：%q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s 必须是 http/https：%q", field, raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
