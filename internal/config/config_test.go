package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Unsetenv("PUBLIC_BASE_URL")
	os.Exit(m.Run())
}

func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Defaults(t *testing.T) {
	cfg := MustLoad()
	if cfg.APIBasePath != "/api/v1" || cfg.DBPath != "notifier.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Notify.DefaultTimezone != "Asia/Bangkok" || cfg.Notify.Location == nil {
		t.Fatalf("timezone default unexpected: %+v", cfg.Notify)
	}
	if cfg.ShortLink.CodeLength != 7 || cfg.ShortLink.MaxAttempts != 6 {
		t.Fatalf("short link defaults unexpected: %+v", cfg.ShortLink)
	}
	if !cfg.Scheduler.Enabled || cfg.Scheduler.ReloadInterval != time.Minute {
		t.Fatalf("scheduler defaults unexpected: %+v", cfg.Scheduler)
	}
	if cfg.Notify.PublicBaseURL != "" {
		t.Fatalf("public base url should default to empty, got %q", cfg.Notify.PublicBaseURL)
	}
}

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // normalizes to release

	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v2/")

	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example.com/")
	t.Setenv("DEFAULT_TIMEZONE", "UTC")
	t.Setenv("SENDER_CACHE_TTL", "1m")
	t.Setenv("LINE_API_ENDPOINT", "http://line.local")
	t.Setenv("SHORTLINK_CODE_LENGTH", "9")
	t.Setenv("SHORTLINK_MAX_ATTEMPTS", "3")
	t.Setenv("SHORTLINK_CACHE_TTL", "0s")
	t.Setenv("SCHEDULER_ENABLED", "off")
	t.Setenv("SCHEDULER_RELOAD", "30s")

	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("db path unexpected: %q", cfg.DBPath)
	}
	if cfg.Notify.PublicBaseURL != "https://shop.example.com" {
		t.Fatalf("base url should be trimmed, got %q", cfg.Notify.PublicBaseURL)
	}
	if cfg.Notify.Location.String() != "UTC" || cfg.Notify.SenderCacheTTL != time.Minute || cfg.Notify.LineEndpoint != "http://line.local" {
		t.Fatalf("notify unexpected: %+v", cfg.Notify)
	}
	if cfg.ShortLink.CodeLength != 9 || cfg.ShortLink.MaxAttempts != 3 || cfg.ShortLink.CacheTTL != 0 {
		t.Fatalf("short link unexpected: %+v", cfg.ShortLink)
	}
	if cfg.Scheduler.Enabled || cfg.Scheduler.ReloadInterval != 30*time.Second {
		t.Fatalf("scheduler unexpected: %+v", cfg.Scheduler)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name, key, val, want string
	}{
		{"invalid LOG_LEVEL", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"empty PORT", "PORT", "   ", "PORT must not be empty"},
		{"non-positive timeouts", "READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"max header bytes", "MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"empty DB_PATH", "DB_PATH", "   ", "DB_PATH must not be empty"},
		{"relative base url", "PUBLIC_BASE_URL", "shop.example.com", "PUBLIC_BASE_URL"},
		{"ftp base url", "PUBLIC_BASE_URL", "ftp://shop.example.com", "PUBLIC_BASE_URL"},
		{"unknown timezone", "DEFAULT_TIMEZONE", "Mars/Olympus", "DEFAULT_TIMEZONE"},
		{"sender cache ttl", "SENDER_CACHE_TTL", "0s", "SENDER_CACHE_TTL"},
		{"short code too short", "SHORTLINK_CODE_LENGTH", "4", "SHORTLINK_CODE_LENGTH"},
		{"short code too long", "SHORTLINK_CODE_LENGTH", "21", "SHORTLINK_CODE_LENGTH"},
		{"attempts", "SHORTLINK_MAX_ATTEMPTS", "0", "SHORTLINK_MAX_ATTEMPTS"},
		{"negative cache ttl", "SHORTLINK_CACHE_TTL", "-1s", "SHORTLINK_CACHE_TTL"},
		{"scheduler reload", "SCHEDULER_RELOAD", "10ms", "SCHEDULER_RELOAD"},
		{"rate rps negative", "RATE_RPS", "-1", "RATE_RPS"},
		{"rate burst", "RATE_BURST", "0", "RATE_BURST"},
		{"hsts max age", "HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"idempotency ttl", "IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL"},
		{"otel sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); !containsErr(err, tc.want) {
				t.Fatalf("expected %s validation error, got: %v", tc.want, err)
			}
		})
	}
}

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}
	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on"} {
		k := "B_T_" + string(rune('a'+i))
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", "FALSE", " no ", "N", "off"} {
		k := "B_F_" + string(rune('a'+i))
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}
