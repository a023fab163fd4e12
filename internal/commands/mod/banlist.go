// Package mod - /mod banlist command
package mod

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/errors"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// banListPrefix identifies the pagination buttons of /mod banlist
const banListPrefix = "banlist:"

const banListPageSize = 10

// createBanListCommand creates the /mod banlist subcommand
func createBanListCommand() *discord.Command {
	return discord.NewCommand(
		"banlist",
		"Lista de usuarios baneados del servidor",
		"mod",
		banListHandler,
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers)
}

// banListHandler handles the /mod banlist command
func banListHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		embed, components, err := buildBanListPage(ctx, 0)
		if err != nil {
			ctx.ReplyEphemeral(fmt.Sprintf("❌ Error al consultar la lista de bans: %v", err))
			return
		}

		if err := ctx.ReplyComponents(embed, components); err != nil {
			logger.Error(fmt.Sprintf("Error enviando banlist: %v", err), "CMD-BanList")
		}
	}()

	return nil
}

// banListPageHandler handles the prev/next pagination buttons
func banListPageHandler(ctx *discord.CommandContext) {
	go func() {
		defer errors.RecoverMiddleware()()

		raw := strings.TrimPrefix(ctx.Interaction.MessageComponentData().CustomID, banListPrefix)
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			page = 0
		}

		embed, components, err := buildBanListPage(ctx, page)
		if err != nil {
			logger.Error(fmt.Sprintf("Error paginando banlist: %v", err), "CMD-BanList")
			return
		}

		ctx.UpdateComponents(embed, components)
	}()
}

// buildBanListPage fetches the guild bans and renders one page with its
// pagination row
func buildBanListPage(ctx *discord.CommandContext, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent, error) {
	bans, err := ctx.Session.GuildBans(ctx.Interaction.GuildID, 1000, "", "")
	if err != nil {
		return nil, nil, err
	}

	totalPages := (len(bans) + banListPageSize - 1) / banListPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	embed := &discordgo.MessageEmbed{
		Title: "🔨 Lista de bans",
		Color: 0xFF0000,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Página %d/%d · %d bans en total", page+1, totalPages, len(bans)),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if len(bans) == 0 {
		embed.Description = "No hay usuarios baneados en este servidor."
		return embed, nil, nil
	}

	start := page * banListPageSize
	end := start + banListPageSize
	if end > len(bans) {
		end = len(bans)
	}

	var description string
	for _, ban := range bans[start:end] {
		reason := ban.Reason
		if reason == "" {
			reason = "Sin razón especificada"
		}
		description += fmt.Sprintf("> **%s** (`%s`)\n> Razón: %s\n\n", ban.User.String(), ban.User.ID, reason)
	}
	embed.Description = description

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s%d", banListPrefix, page-1),
					Disabled: page == 0,
				},
				discordgo.Button{
					Label:    "▶",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s%d", banListPrefix, page+1),
					Disabled: page >= totalPages-1,
				},
			},
		},
	}

	return embed, components, nil
}
