// Package events provides a registry for organizing bot events.
// Events are organized by category (ready, guild, member, shard)
package events

import (
	"github.com/GeorToxa/moderatorDiscordBot/internal/moderation"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
)

// engine is consulted by the ready handler to rebuild punishment timers
// after a reconnect. Set once at registration time.
var engine *moderation.Engine

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, eng *moderation.Engine) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	engine = eng

	// Ready event (bot startup, presence and punishment recovery)
	RegisterReadyEvent(client)

	// Guild events (server join/leave)
	RegisterGuildEvents(client)

	// Member events (join/leave/update)
	RegisterMemberEvents(client)

	// Ban events (audit logging)
	RegisterBanEvents(client)

	// Shard events (disconnect/resume)
	RegisterShardEvents(client)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
