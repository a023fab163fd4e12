package moderation

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
)

// Enforcer is the external enforcement surface: roles, timeouts, bans and the
// log channel. Every call is fallible; the engine tolerates ErrForbidden and
// ErrNotFound without touching ledger state.
type Enforcer interface {
	ApplyMuteRole(guildID, userID string) error
	RemoveMuteRole(guildID, userID string) error
	ClearTimeout(guildID, userID string) error
	Ban(guildID, userID, reason string) error
	Unban(guildID, userID string) error
	IsBanned(guildID, userID string) (bool, error)
	Notify(guildID, message string)
}

// GuildEnforcer implements Enforcer on top of a discordgo session. The mute
// role is resolved by name once per guild (created on demand with send/speak
// denied everywhere) and cached by ID afterwards, so renaming the role later
// does not break active mutes.
type GuildEnforcer struct {
	session      *discordgo.Session
	logChannelID string
	muteRoleName string

	mu        sync.Mutex
	muteRoles map[string]string // guildID -> role ID
}

// NewGuildEnforcer creates an enforcer bound to a session. logChannelID may
// be empty, in which case Notify is a no-op.
func NewGuildEnforcer(session *discordgo.Session, logChannelID, muteRoleName string) *GuildEnforcer {
	return &GuildEnforcer{
		session:      session,
		logChannelID: logChannelID,
		muteRoleName: muteRoleName,
		muteRoles:    make(map[string]string),
	}
}

// wrapRESTError maps Discord REST failures onto the package sentinels so the
// engine can match them with errors.Is.
func wrapRESTError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}

// findMuteRole resolves the guild's mute role by cached ID or by name,
// without creating it.
func (g *GuildEnforcer) findMuteRole(guildID string) (string, bool, error) {
	g.mu.Lock()
	if roleID, ok := g.muteRoles[guildID]; ok {
		g.mu.Unlock()
		return roleID, true, nil
	}
	g.mu.Unlock()

	roles, err := g.session.GuildRoles(guildID)
	if err != nil {
		return "", false, wrapRESTError(err)
	}
	for _, role := range roles {
		if role.Name == g.muteRoleName {
			g.cacheMuteRole(guildID, role.ID)
			return role.ID, true, nil
		}
	}
	return "", false, nil
}

// muteRole returns the guild's mute role ID, creating the role on first use.
func (g *GuildEnforcer) muteRole(guildID string) (string, error) {
	if roleID, ok, err := g.findMuteRole(guildID); err != nil {
		return "", err
	} else if ok {
		return roleID, nil
	}

	// No existe todavía: crear el rol y denegar hablar/escribir en todos los canales.
	role, err := g.session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: g.muteRoleName})
	if err != nil {
		return "", wrapRESTError(err)
	}

	channels, err := g.session.GuildChannels(guildID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudieron listar los canales de %s para configurar el rol de mute: %v", guildID, err), "Enforcer")
	} else {
		for _, channel := range channels {
			err := g.session.ChannelPermissionSet(
				channel.ID,
				role.ID,
				discordgo.PermissionOverwriteTypeRole,
				0,
				discordgo.PermissionSendMessages|discordgo.PermissionVoiceSpeak,
			)
			if err != nil {
				logger.Warn(fmt.Sprintf("No se pudo configurar el canal %s para el rol de mute: %v", channel.ID, err), "Enforcer")
			}
		}
	}

	g.cacheMuteRole(guildID, role.ID)
	return role.ID, nil
}

func (g *GuildEnforcer) cacheMuteRole(guildID, roleID string) {
	g.mu.Lock()
	g.muteRoles[guildID] = roleID
	g.mu.Unlock()
}

// ApplyMuteRole assigns the guild's mute role to the member.
func (g *GuildEnforcer) ApplyMuteRole(guildID, userID string) error {
	roleID, err := g.muteRole(guildID)
	if err != nil {
		return err
	}
	return wrapRESTError(g.session.GuildMemberRoleAdd(guildID, userID, roleID))
}

// RemoveMuteRole removes the mute role if the member still carries it. A
// member that already lost the role, or left the guild, counts as unmuted.
func (g *GuildEnforcer) RemoveMuteRole(guildID, userID string) error {
	roleID, ok, err := g.findMuteRole(guildID)
	if err != nil {
		return err
	}
	if !ok {
		// The role was never created in this guild, so nobody carries it.
		return nil
	}

	member, err := g.session.GuildMember(guildID, userID)
	if err != nil {
		return wrapRESTError(err)
	}

	hasRole := false
	for _, id := range member.Roles {
		if id == roleID {
			hasRole = true
			break
		}
	}
	if !hasRole {
		return nil
	}

	return wrapRESTError(g.session.GuildMemberRoleRemove(guildID, userID, roleID))
}

// ClearTimeout lifts a native Discord timeout so it cannot conflict with the
// mute role.
func (g *GuildEnforcer) ClearTimeout(guildID, userID string) error {
	return wrapRESTError(g.session.GuildMemberTimeout(guildID, userID, nil))
}

// Ban bans the member without deleting message history.
func (g *GuildEnforcer) Ban(guildID, userID, reason string) error {
	return wrapRESTError(g.session.GuildBanCreateWithReason(guildID, userID, reason, 0))
}

// Unban lifts a ban. A user that is no longer banned counts as success.
func (g *GuildEnforcer) Unban(guildID, userID string) error {
	err := wrapRESTError(g.session.GuildBanDelete(guildID, userID))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// IsBanned reports whether the user currently appears in the guild's ban list.
func (g *GuildEnforcer) IsBanned(guildID, userID string) (bool, error) {
	_, err := g.session.GuildBan(guildID, userID)
	if err == nil {
		return true, nil
	}
	err = wrapRESTError(err)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Notify sends a best-effort message to the configured log channel.
func (g *GuildEnforcer) Notify(guildID, message string) {
	if g.logChannelID == "" {
		return
	}
	if _, err := g.session.ChannelMessageSend(g.logChannelID, message); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo enviar al canal de logs: %v", err), "Enforcer")
	}
}
