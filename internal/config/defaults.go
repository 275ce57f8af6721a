package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultDBDriver          = "postgres"
	DefaultDBMaxOpenConns    = 10
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = 30 * time.Minute

	DefaultLLMProvider    = "openai"
	DefaultLLMModel       = "gpt-3.5-turbo"
	DefaultLLMMaxTokens   = 256
	DefaultLLMTemperature = 0.7
	DefaultLLMTimeout     = time.Minute
	DefaultLLMMaxRetries  = 2
	DefaultLLMRetryDelay  = 2 * time.Second
	DefaultLLMPrompt      = "You are Aurion, the 3C assistant. You help members of the 3C Thread To Success community with clear, warm and encouraging answers."

	DefaultServiceType  = "Render Background/Aurion"
	DefaultBatchSize    = 50
	DefaultMaxAttempts  = 3
	DefaultTimezone     = "Europe/Lisbon"
	DefaultClaimTimeout = 15 * time.Minute
	DefaultSendTimeout  = 30 * time.Second

	DefaultRedisKeyPrefix = "aurion:"
	DefaultGuardTTL       = 26 * time.Hour

	DefaultRulesURL  = "https://t.me/c/2377255109/6/400"
	DefaultWebAppURL = "https://anica-blip.github.io/3c-links/"
	DefaultSignoff   = "Stay shining, Champ! 💎"
)

// DefaultTriggerTimes are the local times at which due posts are published.
var DefaultTriggerTimes = []string{"09:00", "12:00", "19:00", "21:00"}

// DefaultTasks is the scheduler task table. Schedules use six cron fields.
var DefaultTasks = map[string]TaskConfig{
	"dispatch_posts":       {Enabled: true, Schedule: "0 * * * * *"},
	"release_stale_claims": {Enabled: true, Schedule: "30 */5 * * * *"},
	"db_maintenance":       {Enabled: true, Schedule: "0 30 3 * * *"},
}

// DefaultHashtags are the main community hashtags.
var DefaultHashtags = []string{
	"#Topics", "#Blog", "#Provisions", "#Training", "#Knowledge",
	"#Language", "#Audiobook", "#Healingmusic",
}

// DefaultTopics are the main community folders.
var DefaultTopics = []Topic{
	{Name: "Aurion Gems", URL: "https://t.me/c/2377255109/138"},
	{Name: "ClubHouse Chatroom", URL: "https://t.me/c/2377255109/10"},
	{Name: "ClubHouse News & Releases", URL: "https://t.me/c/2377255109/6"},
	{Name: "ClubHouse Notices", URL: "https://t.me/c/2377255109/1"},
	{Name: "Weekly Challenges", URL: "https://t.me/c/2377255109/39"},
	{Name: "ClubHouse Mini-Challenges", URL: "https://t.me/c/2377255109/25"},
	{Name: "ClubHouse Learning", URL: "https://t.me/c/2377255109/12"},
	{Name: "3C Evolution Badges", URL: "https://t.me/c/2377255109/355"},
	{Name: "3C LEVEL 1", URL: "https://t.me/c/2377255109/342"},
	{Name: "3C LEVEL 2", URL: "https://t.me/c/2377255109/347"},
}

// DefaultMessages holds the default user-visible strings.
var DefaultMessages = MessagesConfig{
	Welcome: "Welcome to 3C Thread To Success, your ultimate space for personal transformation and growth. " +
		"Whether you're dreaming big or taking small steps, we're here to help you think it, do it, and own it!\n\n" +
		"💎 Every person is a diamond, even if you're still buried in the rough. Growth isn't about becoming someone else, " +
		"it's about polishing what's already there.\n\n" +
		"For everything you need, head over to:\n👉 {links}\n\n" +
		"Or type /ask followed by your question. I'm Aurion, your guide along this journey. Together, we shine. 💫",
	Processing: []string{
		"Hold tight Champ, Aurion is working on it…",
		"Give me a sec, I'm thinking…",
		"Cooking up an answer for you…",
		"Just a moment, making sure you get the best response…",
	},
	Help: "✨ Aurion Command List:\n" +
		"/ask <question> - Ask Aurion anything\n" +
		"/faq - Browse FAQ\n" +
		"/fact - Get a random fact\n" +
		"/resources - Useful resources\n" +
		"/rules - View community rules\n" +
		"/topics - Show topic list\n" +
		"/hashtags - Show hashtags\n" +
		"/id - Get the 3C Links web app\n" +
		"Ask me anything or use keywords for quick help! 💬",
	AskPrompt:        "Champ, you gotta ask a question after /ask!",
	AskErrorFmt:      "Oops! Something went wrong while I was thinking: %v",
	AskUnavailable:   "I couldn't find that in our FAQ, and my thinking cap is offline right now. Try /faq!",
	FAQHeader:        "Select a FAQ:",
	FAQEmpty:         "No FAQ available yet.",
	FAQNotFound:      "No answer found.",
	FactFmt:          "💎 Aurion Fact:\n%s",
	FactEmpty:        "No facts found in the database.",
	ResourcesHeader:  "📚 Resources:",
	ResourcesEmpty:   "No resources available yet.",
	RulesFmt:         "Community Rules: %s",
	TopicsHeader:     "Here are our main 3C folders/topics. Tap to open:",
	HashtagsHeader:   "Here are the main 3C hashtags:",
	HashtagsFooter:   "For more information, just ask Aurion!",
	IDFmt:            "Check out our digital 3C /id card: %s",
	MemberWelcomeFmt: "Welcome %s! I'm Aurion, your 3C assistant. Type /ask followed by your question!",
	Farewell:         "Sad to see you go. Remember, you're always welcome back. Stay strong and focused on polishing your diamond. 💎🔥",
	ManualPostUsage:  "Usage: /manual_post <message>",
	ManualPostFmt:    "📢 %s",
	Unauthorized:     "Only the owner can use this command.",
	GeneralError:     "❌ An error occurred. Please try again later.",
}
