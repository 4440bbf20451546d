package main

import (
	"Quorum/commands"
	"Quorum/config"
	"Quorum/db_client"
	"Quorum/handlers"
	"Quorum/manager"
	"Quorum/redis_client"
	"Quorum/resolver"
	"Quorum/store"
	"Quorum/transport"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

var production *bool

func main() {
	// Sets Flag to Debug Mode
	production = flag.Bool("p", false, "enables production with json logging")
	flag.Parse()
	if *production {
		log.InitJSONLogger(&log.Config{Output: os.Stdout})
	} else {
		log.InitSimpleLogger(&log.Config{Output: os.Stdout})
	}

	// Sets up Configurations for Viper
	config.InitConfig()

	// Creates Discord Bot Session
	s, err := discordgo.New("Bot " + viper.GetString("discord.token"))
	if err != nil {
		log.WithError(err).Error("Failed to create Discord session")
		return
	}

	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("Bot has registered handlers")
	})

	if err := db_client.Init(); err != nil {
		return
	}
	redis_client.Init()

	st, err := store.NewGormStore(db_client.DB)
	if err != nil {
		log.WithError(err).Error("Failed to migrate guild snapshots")
		return
	}

	res := resolver.NewYouTube(redis_client.RDB, viper.GetDuration("cache.youtube.ttl"))
	tr := transport.NewDiscord(s)

	mgr := manager.New(st, res, tr, manager.Config{
		HistorySize: viper.GetInt("player.history.size"),
		RetryLimit:  viper.GetInt("player.retry.limit"),
		IdleTimeout: viper.GetDuration("player.idle.timeout"),
	})
	tr.OnEnd(mgr.HandleStreamEnd)

	// Configuring Intents and Adding Handlers
	handlers.HandlerConfig(s, mgr)

	// Register Slash and Component Commands
	commands.RegisterSlashCommands(s, mgr)

	// Connecting to Discord Server Gateway
	s.Open()
	log.Info("Bot is initialising")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc
	gracefulShutdown(s, mgr)
}

// gracefulShutdown persists every guild queue and cleans up after the bot
// is shutdown
func gracefulShutdown(s *discordgo.Session, mgr *manager.Manager) {
	log.Info("Starting graceful shutdown...")

	mgr.Shutdown()

	for _, vc := range s.VoiceConnections {
		if vc != nil {
			vc.Disconnect()
		}
	}

	time.Sleep(2 * time.Second)

	s.Close()

	log.Info("Cleanly exiting")
}
