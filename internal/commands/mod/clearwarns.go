// Package mod - /mod clearwarns command
package mod

import (
	"context"
	"fmt"
	"time"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/errors"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// createClearWarnsCommand creates the /mod clearwarns subcommand
func createClearWarnsCommand() *discord.Command {
	return discord.NewCommand(
		"clearwarns",
		"Elimina todas las advertencias de un usuario y revierte sus castigos",
		"mod",
		clearWarnsHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a limpiar",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).RequiresDatabase()
}

// clearWarnsHandler handles the /mod clearwarns command
func clearWarnsHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		targetUser := ctx.GetUserOption("usuario")
		if targetUser == nil {
			ctx.ReplyEphemeral("❌ Debes especificar un usuario válido.")
			return
		}

		if err := ctx.Defer(); err != nil {
			logger.Error(fmt.Sprintf("Error enviando defer inicial: %v", err), "CMD-ClearWarns")
			return
		}

		if err := engine.ClearAllWarnings(context.Background(), ctx.Interaction.GuildID, targetUser.ID); err != nil {
			logger.Error(fmt.Sprintf("Error DB ClearWarns: %v", err), "CMD-ClearWarns")
			ctx.EditReply("❌ No se pudieron eliminar las advertencias.")
			return
		}

		embed := &discordgo.MessageEmbed{
			Title: "🧹 Advertencias eliminadas",
			Description: fmt.Sprintf(
				"Todas las advertencias de **%s** han sido eliminadas y sus castigos activos revertidos.",
				targetUser.String(),
			),
			Color: 0x00FF00,
			Footer: &discordgo.MessageEmbedFooter{
				Text:    fmt.Sprintf("Solicitado por %s", ctx.User().String()),
				IconURL: ctx.User().AvatarURL(""),
			},
			Timestamp: time.Now().Format(time.RFC3339),
		}
		ctx.EditReplyEmbed(embed)
	}()

	return nil
}
