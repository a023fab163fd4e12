// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category (mod, utils, etc.)
package commands

import (
	"github.com/GeorToxa/moderatorDiscordBot/internal/commands/mod"
	"github.com/GeorToxa/moderatorDiscordBot/internal/commands/utils"
	"github.com/GeorToxa/moderatorDiscordBot/internal/moderation"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
)

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, engine *moderation.Engine) {
	// Moderation commands (/mod warn, /mod mute, /mod ban, ...)
	mod.RegisterModCommands(client, engine)

	// Utility commands (/utils ping, /utils stats, ...)
	utils.RegisterUtilsCommands(client)
}
