package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// minKeyLength is the shortest credential accepted at startup.
const minKeyLength = 10

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Limits    LimitsConfig
	LLM       LLMConfig
	Speech    SpeechConfig
	Artifact  ArtifactConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type LogConfig struct {
	Level slog.Level
}

type LimitsConfig struct {
	MaxTextLength int
	MaxFileSize   int64
	FetchTimeout  time.Duration
	ContextTokens int
}

type LLMConfig struct {
	OpenAIKey        string
	OpenAIBaseURL    string
	AnthropicKey     string
	AnthropicBaseURL string
	OllamaURL        string
	OllamaModels     []string
	DefaultProvider  string
	DefaultModel     string
	SystemPrompt     string
	Timeout          time.Duration
}

type SpeechConfig struct {
	Backends      []string // "azure", "openai"
	AzureKey      string
	AzureRegion   string
	AzureEndpoint string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	DefaultVoice  string
	Timeout       time.Duration
	MaxChars      int
}

// Enabled reports whether the named speech backend is switched on.
func (c SpeechConfig) Enabled(backend string) bool {
	return slices.Contains(c.Backends, backend)
}

type ArtifactConfig struct {
	Store string // "memory" or "redis"
	TTL   time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string // empty disables bearer auth
}

type SecurityConfig struct {
	AllowCIDRs []netip.Prefix
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from environment variables only.
func FromEnv() (*Config, error) {
	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}
	durVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, err)
	}
	rps, err := getEnvFloat("RATE_LIMIT_RPS", 5)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err))
	}
	cidrs, err := parsePrefixes(getEnv("URL_ALLOW_CIDRS", ""))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid URL_ALLOW_CIDRS: %w", err))
	}
	openAIKey := getEnv("OPENAI_API_KEY", "")

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        intVar("SERVER_PORT", 8080),
			CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Log: LogConfig{Level: level},
		Limits: LimitsConfig{
			MaxTextLength: intVar("MAX_TEXT_LENGTH", 50000),
			MaxFileSize:   int64(intVar("MAX_FILE_SIZE", 10<<20)),
			FetchTimeout:  durVar("FETCH_TIMEOUT", 10*time.Second),
			ContextTokens: intVar("PROMPT_CONTEXT_TOKENS", 4000),
		},
		LLM: LLMConfig{
			OpenAIKey:        openAIKey,
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			OllamaModels:     splitList(getEnv("OLLAMA_MODELS", "")),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "gpt-4o-mini"),
			SystemPrompt:     getEnv("SYSTEM_PROMPT", ""),
			Timeout:          durVar("GENERATION_TIMEOUT", 30*time.Second),
		},
		Speech: SpeechConfig{
			Backends:      splitList(getEnv("SPEECH_BACKENDS", "azure")),
			AzureKey:      getEnv("AZURE_SPEECH_KEY", ""),
			AzureRegion:   getEnv("AZURE_SPEECH_REGION", ""),
			AzureEndpoint: getEnv("AZURE_SPEECH_ENDPOINT", ""),
			OpenAIKey:     openAIKey,
			OpenAIBaseURL: getEnv("TTS_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("TTS_OPENAI_MODEL", "tts-1"),
			DefaultVoice:  getEnv("DEFAULT_VOICE", "en-US-AriaNeural"),
			Timeout:       durVar("SYNTHESIS_TIMEOUT", 60*time.Second),
			MaxChars:      intVar("SYNTHESIS_MAX_CHARS", 10000),
		},
		Artifact: ArtifactConfig{
			Store: getEnv("ARTIFACT_STORE", "memory"),
			TTL:   durVar("ARTIFACT_TTL", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       intVar("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Security: SecurityConfig{AllowCIDRs: cidrs},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: intVar("RATE_LIMIT_BURST", 10),
		},
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports every missing or malformed setting at once. A failure
// here must stop startup.
func (c *Config) Validate() error {
	var missing []string
	var problems []string

	checkKey := func(name, value string) {
		switch {
		case value == "":
			missing = append(missing, name)
		case len(strings.TrimSpace(value)) < minKeyLength:
			problems = append(problems, fmt.Sprintf("%s looks invalid (shorter than %d characters)", name, minKeyLength))
		}
	}

	switch c.LLM.DefaultProvider {
	case "openai":
		checkKey("OPENAI_API_KEY", c.LLM.OpenAIKey)
	case "anthropic":
		checkKey("ANTHROPIC_API_KEY", c.LLM.AnthropicKey)
	case "ollama":
		if c.LLM.OllamaURL == "" {
			missing = append(missing, "OLLAMA_URL")
		}
	default:
		problems = append(problems, fmt.Sprintf("LLM_DEFAULT_PROVIDER %q is not one of openai, anthropic, ollama", c.LLM.DefaultProvider))
	}

	if len(c.Speech.Backends) == 0 {
		problems = append(problems, "SPEECH_BACKENDS must name at least one backend")
	}
	for _, b := range c.Speech.Backends {
		switch b {
		case "azure":
			checkKey("AZURE_SPEECH_KEY", c.Speech.AzureKey)
			if c.Speech.AzureRegion == "" && c.Speech.AzureEndpoint == "" {
				missing = append(missing, "AZURE_SPEECH_REGION")
			}
		case "openai":
			checkKey("OPENAI_API_KEY", c.Speech.OpenAIKey)
		default:
			problems = append(problems, fmt.Sprintf("unknown speech backend %q", b))
		}
	}

	switch c.Artifact.Store {
	case "memory", "redis":
	default:
		problems = append(problems, fmt.Sprintf("ARTIFACT_STORE %q is not one of memory, redis", c.Artifact.Store))
	}

	if c.Limits.MaxTextLength <= 0 {
		problems = append(problems, "MAX_TEXT_LENGTH must be positive")
	}
	if c.Limits.MaxFileSize <= 0 {
		problems = append(problems, "MAX_FILE_SIZE must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		problems = append(problems, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		missing = slices.Compact(missing)
		problems = append([]string{"missing required env vars: " + strings.Join(missing, ", ")}, problems...)
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

// getEnvDuration accepts Go durations ("10s") or whole seconds ("10").
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func parsePrefixes(s string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range splitList(s) {
		p, err := netip.ParsePrefix(item)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
