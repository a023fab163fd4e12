// Package events provides event handlers for guild ban updates
package events

import (
	"fmt"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterBanEvents registers the guild ban event handlers
func RegisterBanEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildBanAdd(func(s *discordgo.Session, b *discordgo.GuildBanAdd) {
		logger.Info(fmt.Sprintf("🔨 Usuario baneado: %s en servidor %s", b.User.String(), b.GuildID), "Ban")
	})

	client.EventHandler.OnGuildBanRemove(func(s *discordgo.Session, b *discordgo.GuildBanRemove) {
		logger.Info(fmt.Sprintf("🕊️ Ban retirado: %s en servidor %s", b.User.String(), b.GuildID), "Ban")
	})
}
