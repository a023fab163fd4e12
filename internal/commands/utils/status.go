package utils

import (
	"fmt"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/database"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/errors"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/mqtt"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand() *discord.Command {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"utils",
		statusHandler,
	)
}

// statusHandler handles the /utils status command
func statusHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()
		db := database.Get()
		dbStatus, _ := db.GetStatus()

		mqttStatus := "🔴 Desconectado"
		if pub := mqtt.Get(); pub != nil && pub.IsConnected() {
			mqttStatus = "🟢 Conectado"
		}

		ctx.Reply(fmt.Sprintf(
			"📊 **Estado del Bot**\n"+
				"• Bot: 🟢 Online\n"+
				"• Base de datos: %s\n"+
				"• MQTT: %s\n"+
				"• Servidores: %d",
			dbStatus,
			mqttStatus,
			ctx.Client.GuildCount(),
		))
	}()
	return nil
}
