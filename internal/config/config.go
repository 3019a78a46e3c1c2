// Package config loads codegate's settings from defaults, an optional YAML
// file, an optional dotenv file and the environment, in increasing order of
// precedence.
//
// Every credential accepts three spellings: CODEGATE_<NAME>, the vendor's
// usual <NAME>, and the VITE_<NAME> form used by the original web client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/faitholopade/codegate/internal/llm"
)

// Config is the fully resolved configuration.
type Config struct {
	ElevenLabs ElevenLabsConfig
	LLM        llm.Config
	Webhook    WebhookConfig
	Approval   ApprovalConfig
	Scoring    ScoringConfig
	Speech     SpeechConfig
	Server     ServerConfig
	Microphone MicrophoneConfig
	Log        LogConfig

	// DBPath overrides the default audit database location.
	DBPath string

	// Sources lists the files that contributed values.
	Sources []string
}

// ElevenLabsConfig configures the conversational agent.
type ElevenLabsConfig struct {
	APIKey  string
	AgentID string
	BaseURL string
	// TextOnly asks the agent for text events instead of audio.
	TextOnly bool
}

// WebhookConfig configures the optional approval webhook.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// ApprovalConfig shapes the locally generated approval record.
type ApprovalConfig struct {
	// Repo is the "owner/name" used in placeholder pull request links.
	Repo string
}

// ScoringConfig holds the keyword lists of the session score heuristic.
type ScoringConfig struct {
	Positive []string
	Negative []string
}

// SpeechConfig configures speech-to-text for spoken prompts.
type SpeechConfig struct {
	APIKey string
	Model  string
}

// ServerConfig configures `codegate serve`.
type ServerConfig struct {
	Addr        string
	Token       string
	AllowOrigin string
}

// MicrophoneConfig controls the permission preflight.
type MicrophoneConfig struct {
	// Device is "auto" (probe capture devices) or "none" (text mode,
	// always granted).
	Device string
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string
	File  string
}

// Options tells Load where to look.
type Options struct {
	// ConfigFile is a YAML file. Empty means codegate.yaml in the user
	// config dir, if present.
	ConfigFile string
	// EnvFile is a dotenv file. Empty means ./.env, if present.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv. Tests replace it.
	LookupEnv func(string) (string, bool)
}

// binding ties a config key to the environment variable names that can
// set it, highest priority first.
type binding struct {
	key  string
	envs []string
}

func names(base string) []string {
	return []string{"CODEGATE_" + base, base, "VITE_" + base}
}

var bindings = []binding{
	{"elevenlabs.api_key", names("ELEVENLABS_API_KEY")},
	{"elevenlabs.agent_id", names("ELEVENLABS_AGENT_ID")},
	{"elevenlabs.base_url", []string{"CODEGATE_ELEVENLABS_BASE_URL"}},
	{"elevenlabs.text_only", []string{"CODEGATE_ELEVENLABS_TEXT_ONLY"}},

	{"llm.provider", []string{"CODEGATE_LLM_PROVIDER"}},
	{"llm.anthropic.api_key", names("ANTHROPIC_API_KEY")},
	{"llm.anthropic.model", []string{"CODEGATE_ANTHROPIC_MODEL"}},
	{"llm.openai.api_key", names("OPENAI_API_KEY")},
	{"llm.openai.model", []string{"CODEGATE_OPENAI_MODEL"}},
	{"llm.openai.base_url", []string{"CODEGATE_OPENAI_BASE_URL"}},
	{"llm.gemini.api_key", names("GEMINI_API_KEY")},
	{"llm.gemini.model", []string{"CODEGATE_GEMINI_MODEL"}},
	{"llm.gateway.api_key", append(names("LOVABLE_API_KEY"), "OPENROUTER_API_KEY")},
	{"llm.gateway.model", []string{"CODEGATE_GATEWAY_MODEL"}},
	{"llm.gateway.base_url", []string{"CODEGATE_GATEWAY_BASE_URL"}},
	{"llm.retry.max_attempts", []string{"CODEGATE_LLM_MAX_ATTEMPTS"}},
	{"llm.timeout", []string{"CODEGATE_LLM_TIMEOUT"}},

	{"webhook.url", names("N8N_WEBHOOK_URL")},
	{"webhook.timeout", []string{"CODEGATE_WEBHOOK_TIMEOUT"}},
	{"approval.repo", []string{"CODEGATE_APPROVAL_REPO"}},
	{"scoring.positive", []string{"CODEGATE_SCORING_POSITIVE"}},
	{"scoring.negative", []string{"CODEGATE_SCORING_NEGATIVE"}},
	{"speech.api_key", []string{"CODEGATE_SPEECH_API_KEY", "OPENAI_API_KEY", "VITE_OPENAI_API_KEY"}},
	{"speech.model", []string{"CODEGATE_SPEECH_MODEL"}},
	{"server.addr", []string{"CODEGATE_SERVER_ADDR"}},
	{"server.token", []string{"CODEGATE_SERVER_TOKEN"}},
	{"server.allow_origin", []string{"CODEGATE_SERVER_ALLOW_ORIGIN"}},
	{"microphone.device", []string{"CODEGATE_MICROPHONE"}},
	{"log.level", []string{"CODEGATE_LOG_LEVEL"}},
	{"log.file", []string{"CODEGATE_LOG_FILE"}},
	{"db", []string{"CODEGATE_DB"}},
}

// DefaultPositiveKeywords and DefaultNegativeKeywords are the phrases the
// agent is prompted to use when judging an answer.
var (
	DefaultPositiveKeywords = []string{"pass", "correct", "good job", "exactly"}
	DefaultNegativeKeywords = []string{"fail", "incorrect", "not quite"}
)

func setDefaults(v *viper.Viper) {
	d := llm.DefaultConfig()
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("elevenlabs.text_only", true)
	v.SetDefault("llm.anthropic.model", d.Anthropic.Model)
	v.SetDefault("llm.openai.model", d.OpenAI.Model)
	v.SetDefault("llm.gemini.model", d.Gemini.Model)
	v.SetDefault("llm.gateway.model", d.Gateway.Model)
	v.SetDefault("llm.gateway.base_url", d.Gateway.BaseURL)
	v.SetDefault("llm.retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("llm.timeout", d.Timeout)
	v.SetDefault("webhook.timeout", 15*time.Second)
	v.SetDefault("approval.repo", "your-org/your-repo")
	v.SetDefault("scoring.positive", DefaultPositiveKeywords)
	v.SetDefault("scoring.negative", DefaultNegativeKeywords)
	v.SetDefault("speech.model", "whisper-1")
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("server.allow_origin", "*")
	v.SetDefault("microphone.device", "none")
	v.SetDefault("log.level", "info")
}

// Load resolves the configuration. Missing files are not an error;
// malformed ones are.
func Load(opts Options) (*Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	v := viper.New()
	setDefaults(v)

	var sources []string

	yamlPath, explicit := opts.ConfigFile, opts.ConfigFile != ""
	if !explicit {
		yamlPath = DefaultConfigFile()
	}
	if yamlPath != "" {
		if _, err := os.Stat(yamlPath); err == nil || explicit {
			v.SetConfigFile(yamlPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file %s: %w", yamlPath, err)
			}
			sources = append(sources, yamlPath)
		}
	}

	dotenv, used, err := readDotenv(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		sources = append(sources, used)
	}

	// Environment first, then the dotenv file; both beat the YAML file.
	for _, b := range bindings {
		if val, ok := firstSet(b.envs, lookup, dotenv); ok {
			v.Set(b.key, val)
		}
	}

	cfg := &Config{
		ElevenLabs: ElevenLabsConfig{
			APIKey:   v.GetString("elevenlabs.api_key"),
			AgentID:  v.GetString("elevenlabs.agent_id"),
			BaseURL:  strings.TrimRight(v.GetString("elevenlabs.base_url"), "/"),
			TextOnly: v.GetBool("elevenlabs.text_only"),
		},
		Webhook: WebhookConfig{
			URL:     v.GetString("webhook.url"),
			Timeout: v.GetDuration("webhook.timeout"),
		},
		Approval: ApprovalConfig{Repo: v.GetString("approval.repo")},
		Scoring: ScoringConfig{
			Positive: stringList(v.Get("scoring.positive")),
			Negative: stringList(v.Get("scoring.negative")),
		},
		Speech: SpeechConfig{
			APIKey: v.GetString("speech.api_key"),
			Model:  v.GetString("speech.model"),
		},
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			Token:       v.GetString("server.token"),
			AllowOrigin: v.GetString("server.allow_origin"),
		},
		Microphone: MicrophoneConfig{Device: v.GetString("microphone.device")},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		DBPath:  v.GetString("db"),
		Sources: sources,
	}
	cfg.LLM = llmConfig(v)

	return cfg, nil
}

func llmConfig(v *viper.Viper) llm.Config {
	c := llm.DefaultConfig()
	c.Anthropic = llm.AnthropicConfig{
		APIKey: v.GetString("llm.anthropic.api_key"),
		Model:  v.GetString("llm.anthropic.model"),
	}
	c.OpenAI = llm.OpenAIConfig{
		APIKey:  v.GetString("llm.openai.api_key"),
		Model:   v.GetString("llm.openai.model"),
		BaseURL: v.GetString("llm.openai.base_url"),
	}
	c.Gemini = llm.GeminiConfig{
		APIKey: v.GetString("llm.gemini.api_key"),
		Model:  v.GetString("llm.gemini.model"),
	}
	c.Gateway = llm.GatewayConfig{
		APIKey:  v.GetString("llm.gateway.api_key"),
		Model:   v.GetString("llm.gateway.model"),
		BaseURL: v.GetString("llm.gateway.base_url"),
	}
	c.Retry.MaxAttempts = v.GetInt("llm.retry.max_attempts")
	c.Timeout = v.GetDuration("llm.timeout")

	c.Provider = v.GetString("llm.provider")
	if c.Provider == "" {
		c.Provider = discoverProvider(c)
	}
	return c
}

// discoverProvider picks the first provider with a key, preferring
// Anthropic, then the gateway, OpenAI and Gemini.
func discoverProvider(c llm.Config) string {
	switch {
	case c.Anthropic.APIKey != "":
		return llm.ProviderAnthropic
	case c.Gateway.APIKey != "":
		return llm.ProviderGateway
	case c.OpenAI.APIKey != "":
		return llm.ProviderOpenAI
	case c.Gemini.APIKey != "":
		return llm.ProviderGemini
	}
	return llm.ProviderAnthropic
}

// readDotenv parses a dotenv file with viper's env codec. Keys come back
// lowercased.
func readDotenv(path string) (*viper.Viper, string, error) {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, "", fmt.Errorf("env file %s: %w", path, err)
		}
		return nil, "", nil
	}

	f := viper.New()
	f.SetConfigFile(path)
	f.SetConfigType("env")
	if err := f.ReadInConfig(); err != nil {
		return nil, "", fmt.Errorf("read env file %s: %w", path, err)
	}
	return f, path, nil
}

func firstSet(envs []string, lookup func(string) (string, bool), dotenv *viper.Viper) (string, bool) {
	for _, name := range envs {
		if val, ok := lookup(name); ok && val != "" {
			return val, true
		}
	}
	if dotenv == nil {
		return "", false
	}
	for _, name := range envs {
		key := strings.ToLower(name)
		if dotenv.IsSet(key) {
			if val := dotenv.GetString(key); val != "" {
				return val, true
			}
		}
	}
	return "", false
}

// stringList accepts a YAML list or a comma-separated string.
func stringList(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case []string:
		parts = val
	case []any:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	case string:
		parts = strings.Split(val, ",")
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DefaultConfigFile returns $XDG_CONFIG_HOME/codegate/codegate.yaml, or
// "" when the config dir cannot be resolved.
func DefaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "codegate", "codegate.yaml")
}
