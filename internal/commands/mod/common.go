package mod

import (
	"fmt"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/config"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
)

// notifyLogChannel sends a moderation notice to the configured log channel.
// Best effort: a missing channel or a failed send only produces a warning.
func notifyLogChannel(ctx *discord.CommandContext, message string) {
	logChannel := config.Get().LogChannelID
	if logChannel == "" {
		return
	}

	if _, err := ctx.Session.ChannelMessageSend(logChannel, message); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo enviar el aviso al canal de logs: %v", err), "Mod")
	}
}
