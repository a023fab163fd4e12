// Package mod - /mod purge command
package mod

import (
	"fmt"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// createPurgeCommand creates the /mod purge subcommand
func createPurgeCommand() *discord.Command {
	return discord.NewCommand(
		"purge",
		"Elimina mensajes del canal actual",
		"mod",
		purgeHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "cantidad",
			Description: "Cantidad de mensajes a eliminar (1-100)",
			Required:    true,
			MinValue:    func() *float64 { v := 1.0; return &v }(),
			MaxValue:    100,
		},
	).WithUserPermissions(discordgo.PermissionManageMessages).
		WithBotPermissions(discordgo.PermissionManageMessages)
}

// purgeHandler handles the /mod purge command
func purgeHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		amount := int(ctx.GetIntOption("cantidad"))
		if amount < 1 || amount > 100 {
			ctx.ReplyEphemeral("❌ La cantidad debe estar entre 1 y 100.")
			return
		}

		messages, err := ctx.Session.ChannelMessages(ctx.Interaction.ChannelID, amount, "", "", "")
		if err != nil {
			ctx.ReplyEphemeral(fmt.Sprintf("❌ Error al obtener mensajes: %v", err))
			return
		}

		ids := make([]string, 0, len(messages))
		for _, msg := range messages {
			ids = append(ids, msg.ID)
		}

		if err := ctx.Session.ChannelMessagesBulkDelete(ctx.Interaction.ChannelID, ids); err != nil {
			ctx.ReplyEphemeral(fmt.Sprintf("❌ Error al eliminar mensajes: %v", err))
			return
		}

		ctx.ReplyEphemeral(fmt.Sprintf("🧹 Se eliminaron **%d** mensajes.", len(ids)))

		// Aviso en el canal de logs
		notifyLogChannel(ctx, fmt.Sprintf("🧹 **%s** eliminó %d mensajes en <#%s>.", ctx.User().String(), len(ids), ctx.Interaction.ChannelID))
	}()

	return nil
}
