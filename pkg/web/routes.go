// Package web provides API routes for the web server.
package web

import (
	"net/http"

	"github.com/GeorToxa/moderatorDiscordBot/internal/moderation"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/database"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/gin-gonic/gin"
)

var modEngine *moderation.Engine

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, engine *moderation.Engine) {
	modEngine = engine

	api := s.Group("/api")
	{
		api.GET("/status", statusHandler)
		api.GET("/health", healthHandler)
		api.GET("/bot", botInfoHandler)
		api.GET("/events", eventStreamHandler)

		mod := api.Group("/moderation")
		{
			mod.GET("/punishments", punishmentsHandler)
			mod.GET("/warnings/:guildId/:userId", warningsHandler)
		}
	}
}

// statusHandler returns the bot and database status
func statusHandler(c *gin.Context) {
	db := database.Get()
	client := discord.Get()

	dbStatus, dbOnline := db.GetStatus()

	botOnline := false
	if client != nil {
		botOnline = client.IsReady()
	}

	pendingTimers := 0
	if modEngine != nil {
		pendingTimers = modEngine.Scheduler().Len()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"database": gin.H{
			"status":   dbStatus,
			"isOnline": dbOnline,
		},
		"bot": gin.H{
			"isOnline": botOnline,
		},
		"moderation": gin.H{
			"pendingTimers": pendingTimers,
		},
	})
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Moderator Bot is running",
	})
}

// botInfoHandler returns information about the bot
func botInfoHandler(c *gin.Context) {
	client := discord.Get()

	if client == nil || !client.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Bot Offline",
			"message": "El bot no está disponible en este momento.",
		})
		return
	}

	user := client.Session.State.User

	c.JSON(http.StatusOK, gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"discriminator": user.Discriminator,
		"avatar":        user.Avatar,
		"guilds":        client.GuildCount(),
		"isReady":       client.IsReady(),
	})
}

// punishmentsHandler returns the punishments currently tracked by the engine
func punishmentsHandler(c *gin.Context) {
	if modEngine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Engine Offline",
			"message": "El motor de moderación no está disponible.",
		})
		return
	}

	rows, err := modEngine.ActivePunishments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Store Error",
			"message": "No se pudieron consultar los castigos activos.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(rows),
		"punishments": rows,
	})
}

// warningsHandler returns the warning ledger for one member
func warningsHandler(c *gin.Context) {
	if modEngine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Engine Offline",
			"message": "El motor de moderación no está disponible.",
		})
		return
	}

	guildID := c.Param("guildId")
	userID := c.Param("userId")

	warns, err := modEngine.Warnings(c.Request.Context(), guildID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Store Error",
			"message": "No se pudieron consultar las advertencias.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"guildId":  guildID,
		"userId":   userID,
		"count":    len(warns),
		"warnings": warns,
	})
}
