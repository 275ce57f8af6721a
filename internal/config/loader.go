package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is prepended to every nested key, e.g. AURION_DISPATCH_BATCH_SIZE.
const EnvPrefix = "AURION"

// envAliases binds the variable names used by existing deployments.
var envAliases = map[string][]string{
	"telegram.token":             {"AURION_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN", "TELEGRAM_TOKEN"},
	"telegram.admin_user_ids":    {"AURION_TELEGRAM_ADMIN_USER_IDS", "OWNER_ID"},
	"llm.api_key":                {"AURION_LLM_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"},
	"database.url":               {"AURION_DATABASE_URL", "DATABASE_URL"},
	"scheduler.redis.url":        {"AURION_SCHEDULER_REDIS_URL", "REDIS_URL"},
	"dispatch.service_type":      {"AURION_DISPATCH_SERVICE_TYPE", "SERVICE_TYPE"},
	"scheduler.trigger_times":    {"AURION_SCHEDULER_TRIGGER_TIMES", "TRIGGER_TIMES"},
	"community.web_app_url":      {"AURION_COMMUNITY_WEB_APP_URL", "GITHUB_LINK"},
	"community.rules_url":        {"AURION_COMMUNITY_RULES_URL", "RULES_LINK"},
	"llm.system_prompt":          {"AURION_LLM_SYSTEM_PROMPT"},
	"dispatch.timezone":          {"AURION_DISPATCH_TIMEZONE", "TZ_NAME"},
	"scheduler.redis.key_prefix": {"AURION_SCHEDULER_REDIS_KEY_PREFIX"},
}

// LoadConfig loads configuration in this order: defaults, the YAML file at
// path (optional, an empty path or a missing file is not an error), a .env
// file in the working directory, and finally the environment.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to load .env file: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("%w: failed to bind %s: %v", ErrConfiguration, key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
		}
	}

	cfg := newDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// newDefaultConfig returns a Config holding the values that viper cannot
// express as flat keys (lists of structs, the message table, the task table).
func newDefaultConfig() *Config {
	tasks := make(map[string]TaskConfig, len(DefaultTasks))
	for name, t := range DefaultTasks {
		tasks[name] = t
	}
	topics := make([]Topic, len(DefaultTopics))
	copy(topics, DefaultTopics)

	msgs := DefaultMessages
	msgs.Processing = append([]string(nil), DefaultMessages.Processing...)

	return &Config{
		Scheduler: SchedulerConfig{Tasks: tasks},
		Community: CommunityConfig{Topics: topics},
		Messages:  msgs,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("database.driver", DefaultDBDriver)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	v.SetDefault("database.max_idle_conns", DefaultDBMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", DefaultDBConnMaxLifetime)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_ids", []int64{})

	v.SetDefault("llm.provider", DefaultLLMProvider)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", DefaultLLMModel)
	v.SetDefault("llm.system_prompt", DefaultLLMPrompt)
	v.SetDefault("llm.max_tokens", DefaultLLMMaxTokens)
	v.SetDefault("llm.temperature", DefaultLLMTemperature)
	v.SetDefault("llm.timeout", DefaultLLMTimeout)
	v.SetDefault("llm.max_retries", DefaultLLMMaxRetries)
	v.SetDefault("llm.retry_delay", DefaultLLMRetryDelay)

	v.SetDefault("dispatch.service_type", DefaultServiceType)
	v.SetDefault("dispatch.batch_size", DefaultBatchSize)
	v.SetDefault("dispatch.max_attempts", DefaultMaxAttempts)
	v.SetDefault("dispatch.timezone", DefaultTimezone)
	v.SetDefault("dispatch.claim_timeout", DefaultClaimTimeout)
	v.SetDefault("dispatch.send_timeout", DefaultSendTimeout)

	v.SetDefault("scheduler.trigger_times", DefaultTriggerTimes)
	v.SetDefault("scheduler.redis.url", "")
	v.SetDefault("scheduler.redis.key_prefix", DefaultRedisKeyPrefix)
	v.SetDefault("scheduler.redis.guard_ttl", DefaultGuardTTL)

	v.SetDefault("community.hashtags", DefaultHashtags)
	v.SetDefault("community.rules_url", DefaultRulesURL)
	v.SetDefault("community.web_app_url", DefaultWebAppURL)
	v.SetDefault("community.signoff", DefaultSignoff)
}
