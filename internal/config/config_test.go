package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolateEnv 把相关环境变量置空，避免宿主环境影响结果（viper 默认把空值视为未设置）。
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TMDB_API_KEY",
		"FLIXFEED_API_KEY",
		"FLIXFEED_BASE_URL",
		"FLIXFEED_IMAGE_BASE_URL",
		"FLIXFEED_LANGUAGE",
		"FLIXFEED_GENRE_LIMIT",
		"FLIXFEED_CONCURRENCY",
		"FLIXFEED_RETRY_MAX",
		"FLIXFEED_RATE_LIMIT",
		"FLIXFEED_RATE_BURST",
		"FLIXFEED_TIMEOUT",
		"FLIXFEED_PROXY_URL",
		"FLIXFEED_LISTEN",
		"FLIXFEED_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadEffective_Defaults(t *testing.T) {
	isolateEnv(t)
	t.Setenv("TMDB_API_KEY", "k-env")
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.APIKey != "k-env" {
		t.Fatalf("api_key=%q", eff.APIKey)
	}
	if eff.BaseURL != DefaultBaseURL || eff.ImageBaseURL != DefaultImageBaseURL {
		t.Fatalf("base=%q image=%q", eff.BaseURL, eff.ImageBaseURL)
	}
	if eff.Language != DefaultLanguage || eff.GenreLimit != DefaultGenreLimit {
		t.Fatalf("language=%q genre_limit=%d", eff.Language, eff.GenreLimit)
	}
	if eff.Concurrency != 0 || eff.RetryMax != 0 || eff.RateLimit != 0 || eff.RateBurst != 1 {
		t.Fatalf("默认不应开启并发上限/重试/限速：%+v", eff)
	}
	if eff.Timeout != 0 || eff.Listen != DefaultListen || eff.LogLevel != DefaultLogLevel {
		t.Fatalf("timeout=%v listen=%q log_level=%q", eff.Timeout, eff.Listen, eff.LogLevel)
	}
	if eff.ConfigFile != "" {
		t.Fatalf("不应读取任何配置文件：%q", eff.ConfigFile)
	}
}

func TestLoadEffective_MissingAPIKey(t *testing.T) {
	isolateEnv(t)
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingAPIKey {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingAPIKey, err, Code(err))
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	isolateEnv(t)
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{ConfigPath: "nope.yaml"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_InvalidConfigFile(t *testing.T) {
	isolateEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "flixfeed.yaml"), []byte("api_key: [unterminated\n"))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_FileValues(t *testing.T) {
	isolateEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "flixfeed.yaml"), []byte(`
api_key: k-file
base_url: http://127.0.0.1:9999/3/
language: fr-FR
genre_limit: 5
timeout: 5s
rate_limit: 2.5
rate_burst: 3
proxy:
  url: http://127.0.0.1:7890
log_level: debug
`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != filepath.Join(cwd, "flixfeed.yaml") {
		t.Fatalf("config_file=%q", eff.ConfigFile)
	}
	if eff.APIKey != "k-file" || eff.Language != "fr-FR" || eff.GenreLimit != 5 {
		t.Fatalf("eff=%+v", eff)
	}
	if eff.BaseURL != "http://127.0.0.1:9999/3" {
		t.Fatalf("base_url 应去掉末尾 /：%q", eff.BaseURL)
	}
	if eff.Timeout != 5*time.Second {
		t.Fatalf("timeout=%v", eff.Timeout)
	}
	if eff.RateLimit != 2.5 || eff.RateBurst != 3 {
		t.Fatalf("rate_limit=%v rate_burst=%d", eff.RateLimit, eff.RateBurst)
	}
	if eff.ProxyURL != "http://127.0.0.1:7890" {
		t.Fatalf("proxy.url=%q", eff.ProxyURL)
	}
	if eff.LogLevel != "DEBUG" {
		t.Fatalf("log_level=%q", eff.LogLevel)
	}
}

func TestLoadEffective_MergeOrder(t *testing.T) {
	isolateEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "flixfeed.json"), []byte(`{"api_key":"k","language":"fr-FR","listen":":9000"}`))

	// 仅配置文件
	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Language != "fr-FR" || eff.Listen != ":9000" {
		t.Fatalf("eff=%+v", eff)
	}

	// 环境变量覆盖配置文件
	t.Setenv("FLIXFEED_LANGUAGE", "de-DE")
	eff, err = LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Language != "de-DE" {
		t.Fatalf("期望 env 覆盖，实际=%q", eff.Language)
	}

	// CLI 覆盖环境变量
	eff, err = LoadEffective(cwd, CLIArgs{Language: "es-ES", LanguageSet: true, Listen: "127.0.0.1:0", ListenSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Language != "es-ES" || eff.Listen != "127.0.0.1:0" {
		t.Fatalf("期望 CLI 覆盖，实际=%+v", eff)
	}
}

func TestLoadEffective_ExplicitConfigPath(t *testing.T) {
	isolateEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "conf", "custom.toml"), []byte("api_key = \"k-toml\"\nlanguage = \"ja-JP\"\n"))
	// 工作目录下的默认文件不应被读取
	writeFile(t, filepath.Join(cwd, "flixfeed.json"), []byte(`{"api_key":"k-json"}`))

	eff, err := LoadEffective(cwd, CLIArgs{ConfigPath: filepath.Join("conf", "custom.toml")})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.APIKey != "k-toml" || eff.Language != "ja-JP" {
		t.Fatalf("eff=%+v", eff)
	}
}

func TestLoadEffective_EnvAPIKeyPrefersFlixfeed(t *testing.T) {
	isolateEnv(t)
	t.Setenv("TMDB_API_KEY", "k-tmdb")
	t.Setenv("FLIXFEED_API_KEY", "k-flixfeed")

	eff, err := LoadEffective(t.TempDir(), CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.APIKey != "k-flixfeed" {
		t.Fatalf("api_key=%q", eff.APIKey)
	}
}

func TestLoadEffective_DotEnv(t *testing.T) {
	isolateEnv(t)
	// godotenv 不覆盖已存在的变量，这里先移除（t.Setenv 的清理会恢复原值）。
	_ = os.Unsetenv("TMDB_API_KEY")
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, ".env"), []byte("TMDB_API_KEY=k-dotenv\n"))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.APIKey != "k-dotenv" {
		t.Fatalf("api_key=%q", eff.APIKey)
	}
}

func TestLoadEffective_Clamp(t *testing.T) {
	isolateEnv(t)
	t.Setenv("TMDB_API_KEY", "k")
	t.Setenv("FLIXFEED_CONCURRENCY", "500")
	t.Setenv("FLIXFEED_RETRY_MAX", "-2")
	t.Setenv("FLIXFEED_RATE_BURST", "0")

	eff, err := LoadEffective(t.TempDir(), CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Concurrency != MaxConcurrency {
		t.Fatalf("concurrency=%d", eff.Concurrency)
	}
	if eff.RetryMax != 0 {
		t.Fatalf("retry_max=%d", eff.RetryMax)
	}
	if eff.RateBurst != 1 {
		t.Fatalf("rate_burst=%d", eff.RateBurst)
	}

	t.Setenv("FLIXFEED_RETRY_MAX", "99")
	eff, err = LoadEffective(t.TempDir(), CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.RetryMax != MaxRetry {
		t.Fatalf("retry_max=%d", eff.RetryMax)
	}
}

func TestLoadEffective_InvalidFields(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		cli  CLIArgs
	}{
		{name: "base_url 非 http", env: map[string]string{"FLIXFEED_BASE_URL": "ftp://example.com"}},
		{name: "image_base_url 缺 host", env: map[string]string{"FLIXFEED_IMAGE_BASE_URL": "/t/p/w500"}},
		{name: "log_level 未知", env: map[string]string{"FLIXFEED_LOG_LEVEL": "LOUD"}},
		{name: "rate_limit 为负", env: map[string]string{"FLIXFEED_RATE_LIMIT": "-1"}},
		{name: "timeout 为负", env: map[string]string{"FLIXFEED_TIMEOUT": "-5s"}},
		{name: "proxy.url 无效", env: map[string]string{"FLIXFEED_PROXY_URL": "http://[::1"}},
		{name: "CLI language 为空", cli: CLIArgs{Language: "  ", LanguageSet: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv("TMDB_API_KEY", "k")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadEffective(t.TempDir(), tc.cli)
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
