// Package mod - /mod unban command
package mod

import (
	"fmt"
	"strings"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// createUnbanCommand creates the /mod unban subcommand
func createUnbanCommand() *discord.Command {
	return discord.NewCommand(
		"unban",
		"Desbanea a un usuario por ID o nombre",
		"mod",
		unbanHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "usuario",
			Description: "ID o nombre del usuario a desbanear",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers)
}

// unbanHandler handles the /mod unban command
func unbanHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		target := ctx.GetStringOption("usuario")
		if target == "" {
			ctx.ReplyEphemeral("❌ Debes especificar un ID o nombre de usuario.")
			return
		}

		if err := ctx.Defer(); err != nil {
			return
		}

		// Resolver contra la lista de bans: acepta ID exacto o nombre
		bans, err := ctx.Session.GuildBans(ctx.Interaction.GuildID, 1000, "", "")
		if err != nil {
			ctx.EditReply(fmt.Sprintf("❌ Error al consultar la lista de bans: %v", err))
			return
		}

		var banned *discordgo.User
		for _, ban := range bans {
			if ban.User.ID == target || strings.EqualFold(ban.User.Username, target) {
				banned = ban.User
				break
			}
		}

		if banned == nil {
			ctx.EditReply(fmt.Sprintf("❌ No se encontró un ban para `%s`.", target))
			return
		}

		if err := ctx.Session.GuildBanDelete(ctx.Interaction.GuildID, banned.ID); err != nil {
			ctx.EditReply(fmt.Sprintf("❌ Error al desbanear: %v", err))
			return
		}

		notifyLogChannel(ctx, fmt.Sprintf("✅ **%s** desbaneó a **%s**.", ctx.User().String(), banned.String()))

		ctx.EditReply(fmt.Sprintf("✅ **%s** ha sido desbaneado.", banned.String()))
	}()

	return nil
}
