// Package main is the entry point for the Moderator Bot application.
// It initializes all systems and starts the Discord bot.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GeorToxa/moderatorDiscordBot/internal/commands"
	"github.com/GeorToxa/moderatorDiscordBot/internal/events"
	"github.com/GeorToxa/moderatorDiscordBot/internal/moderation"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/config"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/database"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/discord"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/errors"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/mqtt"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Iniciando Moderator Bot...", "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	var engine *moderation.Engine
	errors.Init(cfg.ErrorWebhook, func() {
		if engine != nil {
			engine.Shutdown()
		}
		if discordClient != nil {
			err := discordClient.Stop()
			if err != nil {
				return
			}
		}
	})

	// Initialize database
	db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
	if err != nil {
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
		logger.Debug(fmt.Sprintf("Error connecting to database: %v", cfg.MongoDBURL), "Main")
		// Continue without database - it will attempt to reconnect
	}
	defer func() {
		if db != nil {
			err := db.Disconnect()
			if err != nil {
				return
			}
		}
	}()

	// Durable stores for the warning ledger and the punishment table
	warningStore := database.NewWarningStore(db)
	punishmentStore := database.NewPunishmentStore(db)

	// Initialize MQTT publisher for moderation events
	mqttClientID := "moderatorbot"
	if !cfg.IsProd() {
		mqttClientID = "moderatorbot_canary"
	}

	mqttPublisher := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
	)
	defer mqttPublisher.Destroy()

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	// Wire the moderation engine: stores + enforcement surface + policy
	enforcer := moderation.NewGuildEnforcer(discordClient.Session, cfg.LogChannelID, cfg.MuteRoleName)
	engine = moderation.NewEngine(warningStore, punishmentStore, enforcer, moderation.DefaultPolicy())
	defer engine.Shutdown()

	// Lifecycle events go to MQTT and to the websocket stream
	streamHub := web.InitStream()
	engine.SetEventSink(moderation.MultiSink{mqttPublisher, streamHub})

	// Initialize web server
	webServer := web.Init(cfg.LogsWebhook)
	web.SetupAPIRoutes(webServer, engine)
	webServer.StartAsync(cfg.Port)

	// Register commands using the commands package
	commands.RegisterAll(discordClient, engine)

	// Register events using the events package
	events.RegisterAll(discordClient, engine)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func(discordClient *discord.ExtendedClient) {
		err := discordClient.Stop()
		if err != nil {
			return
		}
	}(discordClient)

	logger.Success("Moderator Bot iniciado correctamente!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando Moderator Bot...", "Main")
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
