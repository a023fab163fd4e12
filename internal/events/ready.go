// Package events provides event handlers for the bot
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/errors"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// recoverOnce guards punishment recovery: only the first ready after the
// process start rebuilds the timers, reconnects keep the running registry.
var recoverOnce sync.Once

// RegisterReadyEvent registers the ready event handler
func RegisterReadyEvent(client *discord.ExtendedClient) {
	client.Session.AddHandler(onReady)
	client.Session.AddHandler(onDebug)
}

// onReady is called when the bot successfully connects to Discord
func onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Success(fmt.Sprintf("✅ Bot conectado: %s#%s", r.User.Username, r.User.Discriminator), "Ready")
	logger.Info(fmt.Sprintf("📊 Conectado a %d servidores", len(r.Guilds)), "Ready")

	// Establecer estado del bot
	err := s.UpdateGameStatus(0, "🛡️ Moderando con /mod")
	if err != nil {
		logger.Error(fmt.Sprintf("Error estableciendo estado: %v", err), "Ready")
	}

	// Reconstruir los temporizadores de castigos pendientes
	if engine != nil {
		recoverOnce.Do(func() {
			go func() {
				defer errors.RecoverMiddleware()()
				if _, err := engine.Recover(context.Background()); err != nil {
					logger.Error(fmt.Sprintf("Error recuperando castigos pendientes: %v", err), "Ready")
				}
			}()
		})
	}
}

func onDebug(s *discordgo.Session, log string) {
	logger.Debug(log, "DiscordGO")
}
