// Package mod - /mod warn command
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

// createWarnCommand creates the /mod warn subcommand
func createWarnCommand() *discord.Command {
	return discord.NewCommand(
		"warn",
		"Advierte a un usuario",
		"mod",
		warnHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a advertir",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón de la advertencia",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).RequiresDatabase()
}

// warnHandler handles the /mod warn command
func warnHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		targetUser := ctx.GetUserOption("usuario")
		if targetUser == nil {
			ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
			return
		}

		reason := ctx.GetStringOption("razon")
		if reason == "" {
			ctx.ReplyEphemeral("❌ Debes especificar una razón.")
			return
		}

		if targetUser.ID == ctx.User().ID {
			ctx.ReplyEphemeral("❌ No puedes advertirte a ti mismo.")
			return
		}

		if targetUser.Bot {
			ctx.ReplyEphemeral("❌ No puedes advertir a un bot.")
			return
		}

		if err := ctx.Defer(); err != nil {
			logger.Error(fmt.Sprintf("Error enviando defer inicial: %v", err), "CMD-Warn")
			return
		}

		count, err := engine.Warn(context.Background(), ctx.Interaction.GuildID, targetUser.ID, ctx.User().ID, reason)
		if err != nil {
			logger.Error(fmt.Sprintf("Error registrando advertencia: %v", err), "CMD-Warn")
			ctx.EditReply("❌ No se pudo guardar la advertencia en la base de datos.")
			return
		}

		embed := &discordgo.MessageEmbed{
			Title: "⚠️ Advertencia registrada",
			Description: fmt.Sprintf(
				"**%s** ha sido advertido.\n\n> **Razón:** %s\n> **Moderador:** %s\n> **Advertencias totales:** %d",
				targetUser.String(), reason, ctx.User().String(), count,
			),
			Color: 0xFFA500,
			Footer: &discordgo.MessageEmbedFooter{
				Text:    fmt.Sprintf("Solicitado por %s", ctx.User().String()),
				IconURL: ctx.User().AvatarURL(""),
			},
			Timestamp: time.Now().Format(time.RFC3339),
		}
		ctx.EditReplyEmbed(embed)

		// MD al usuario advertido
		embedDM := &discordgo.MessageEmbed{
			Title: "⚠️ - Has recibido una advertencia",
			Color: 0xFFA500,
			Description: fmt.Sprintf(
				"⚒ - **Servidor:** %s (%s)\n"+
					"📄 - **Razón:** %s\n"+
					"💫 - **Advertencias totales:** %d\n\n"+
					"🕒 - **Fecha:** <t:%d:F>",
				ctx.Guild().Name, ctx.Interaction.GuildID, reason, count, time.Now().Unix(),
			),
			Footer: &discordgo.MessageEmbedFooter{
				Text:    "🛡️ - Moderator Bot",
				IconURL: ctx.Client.Session.State.User.AvatarURL(""),
			},
		}

		userChannel, err := ctx.Session.UserChannelCreate(targetUser.ID)
		if err == nil {
			_, _ = ctx.Session.ChannelMessageSendEmbed(userChannel.ID, embedDM)
		}
	}()

	return nil
}
