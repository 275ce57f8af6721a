// Package config provides configuration loading, validation, and management
// for the Aurion bot and its scheduled-post worker. It merges defaults, an
// optional YAML file, a .env file and environment variables.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Community CommunityConfig `mapstructure:"community"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds connection settings. Driver selects the SQL dialect;
// URL is a Postgres connection string or a SQLite file path.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"            validate:"oneof=postgres sqlite"`
	URL             string        `mapstructure:"url"               validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"min=1,max=200"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"min=0,max=200"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"min=0"`
}

// TelegramConfig holds bot credentials and the admin allow-list.
type TelegramConfig struct {
	Token        string  `mapstructure:"token"`
	AdminUserIDs []int64 `mapstructure:"admin_user_ids" validate:"dive,gt=0"`

	// BotInfo is filled at runtime from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// LLMConfig configures the completion provider used by /ask.
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"      validate:"oneof=openai gemini"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"      validate:"omitempty,url"`
	Model        string        `mapstructure:"model"         validate:"required"`
	SystemPrompt string        `mapstructure:"system_prompt" validate:"required"`
	MaxTokens    int           `mapstructure:"max_tokens"    validate:"min=16,max=8192"`
	Temperature  float32       `mapstructure:"temperature"   validate:"min=0,max=2"`
	Timeout      time.Duration `mapstructure:"timeout"       validate:"min=1s,max=10m"`
	MaxRetries   int           `mapstructure:"max_retries"   validate:"min=0,max=10"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"   validate:"min=0,max=1m"`
}

// Enabled reports whether an API key was provided.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// DispatchConfig controls the scheduled-post dispatcher.
type DispatchConfig struct {
	ServiceType  string           `mapstructure:"service_type"  validate:"required"`
	BatchSize    int              `mapstructure:"batch_size"    validate:"min=1,max=500"`
	MaxAttempts  int              `mapstructure:"max_attempts"  validate:"min=1,max=20"`
	Timezone     string           `mapstructure:"timezone"      validate:"required"`
	ClaimTimeout time.Duration    `mapstructure:"claim_timeout" validate:"min=1m"`
	SendTimeout  time.Duration    `mapstructure:"send_timeout"  validate:"min=1s,max=5m"`
	Groups       map[string]int64 `mapstructure:"groups"`
}

// SchedulerConfig holds trigger times, the guard backend and the task table.
type SchedulerConfig struct {
	TriggerTimes []string              `mapstructure:"trigger_times" validate:"min=1,dive,datetime=15:04"`
	Redis        RedisConfig           `mapstructure:"redis"`
	Tasks        map[string]TaskConfig `mapstructure:"tasks"`
}

// RedisConfig enables the shared trigger guard when URL is set.
type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	GuardTTL  time.Duration `mapstructure:"guard_ttl" validate:"min=1m"`
}

// TaskConfig defines a single scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Topic is one button of the /topics keyboard.
type Topic struct {
	Name string `mapstructure:"name" validate:"required"`
	URL  string `mapstructure:"url"  validate:"required,url"`
}

// CommunityConfig holds the static reference data served by commands.
type CommunityConfig struct {
	Hashtags  []string `mapstructure:"hashtags"`
	Topics    []Topic  `mapstructure:"topics"      validate:"dive"`
	RulesURL  string   `mapstructure:"rules_url"   validate:"omitempty,url"`
	WebAppURL string   `mapstructure:"web_app_url" validate:"omitempty,url"`
	Signoff   string   `mapstructure:"signoff"`
}

// MessagesConfig holds every user-visible string.
type MessagesConfig struct {
	Welcome          string   `mapstructure:"welcome"`
	Processing       []string `mapstructure:"processing" validate:"min=1"`
	Help             string   `mapstructure:"help"`
	AskPrompt        string   `mapstructure:"ask_prompt"`
	AskErrorFmt      string   `mapstructure:"ask_error_fmt"`
	AskUnavailable   string   `mapstructure:"ask_unavailable"`
	FAQHeader        string   `mapstructure:"faq_header"`
	FAQEmpty         string   `mapstructure:"faq_empty"`
	FAQNotFound      string   `mapstructure:"faq_not_found"`
	FactFmt          string   `mapstructure:"fact_fmt"`
	FactEmpty        string   `mapstructure:"fact_empty"`
	ResourcesHeader  string   `mapstructure:"resources_header"`
	ResourcesEmpty   string   `mapstructure:"resources_empty"`
	RulesFmt         string   `mapstructure:"rules_fmt"`
	TopicsHeader     string   `mapstructure:"topics_header"`
	HashtagsHeader   string   `mapstructure:"hashtags_header"`
	HashtagsFooter   string   `mapstructure:"hashtags_footer"`
	IDFmt            string   `mapstructure:"id_fmt"`
	MemberWelcomeFmt string   `mapstructure:"member_welcome_fmt"`
	Farewell         string   `mapstructure:"farewell"`
	ManualPostUsage  string   `mapstructure:"manual_post_usage"`
	ManualPostFmt    string   `mapstructure:"manual_post_fmt"`
	Unauthorized     string   `mapstructure:"unauthorized"`
	GeneralError     string   `mapstructure:"general_error"`
}
