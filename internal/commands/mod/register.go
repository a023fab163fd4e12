// Package mod provides moderation commands organized as subcommands under /mod
// Each command is in its own file for better organization
package mod

import (
	"github.com/GeorToxa/moderatorDiscordBot/internal/moderation"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
)

// engine runs the warning ledger and punishment lifecycle for every handler
// in this package. Set once at registration time.
var engine *moderation.Engine

// RegisterModCommands registers all moderation commands as /mod subcommands
func RegisterModCommands(client *discord.ExtendedClient, eng *moderation.Engine) {
	engine = eng

	// Create individual subcommands (each can be in its own file)
	warnCmd := createWarnCommand()
	warnsCmd := createWarnsCommand()
	delWarnCmd := createDelWarnCommand()
	clearWarnsCmd := createClearWarnsCommand()
	muteCmd := createMuteCommand()
	unmuteCmd := createUnmuteCommand()
	kickCmd := createKickCommand()
	banCmd := createBanCommand()
	unbanCmd := createUnbanCommand()
	banListCmd := createBanListCommand()
	purgeCmd := createPurgeCommand()

	// Build the /mod command group with all subcommands
	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Comandos de moderación",
		warnCmd,
		warnsCmd,
		delWarnCmd,
		clearWarnsCmd,
		muteCmd,
		unmuteCmd,
		kickCmd,
		banCmd,
		unbanCmd,
		banListCmd,
		purgeCmd,
	)

	// Register the command group
	client.CommandHandler.AddGlobalCommand(modGroup)

	// Pagination buttons for /mod banlist
	client.RegisterComponent(banListPrefix, banListPageHandler)
}
