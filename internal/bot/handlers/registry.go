package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a handler together with its match rule
// and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
// It configures each command with appropriate handlers and middleware.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(name string, h tgbot.HandlerFunc, mw ...tgbot.Middleware) {
		handlers["/"+name] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     h,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  mw,
		}
	}

	command("start", NewStartHandler(deps))
	command("help", NewHelpHandler(deps))
	command("ask", NewAskHandler(deps))
	command("faq", NewFAQHandler(deps))
	command("fact", NewFactHandler(deps))
	command("resources", NewResourcesHandler(deps))
	command("rules", NewRulesHandler(deps))
	command("topics", NewTopicsHandler(deps))
	command("hashtags", NewHashtagsHandler(deps))
	command("id", NewIDHandler(deps))
	command("manual_post", NewManualPostHandler(deps), AdminOnly(deps))

	handlers["faq_callback"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     FAQCallbackPrefix,
		Handler:     NewFAQCallbackHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}

	return handlers
}
