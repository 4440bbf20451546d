package commands

import (
	"context"
	"errors"

	"Quorum/manager"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// RegisterSlashCommands adds all slash commands to the session and binds
// the playback manager the handlers act on.
func RegisterSlashCommands(s *discordgo.Session, m *manager.Manager) {
	mgr = m

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "play",
			Description: "Queue a track or playlist from a Youtube URL or search.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Youtube link or search terms",
					Required:    true,
				},
			},
		},
		playMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "pause",
			Description: "Pause the current track.",
		},
		pauseMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "resume",
			Description: "Resume paused playback, or restart the saved queue.",
		},
		resumeMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "skip",
			Description: "Skip the current track.",
		},
		skipMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "stop",
			Description: "Stop playback and clear the queue.",
		},
		stopMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "previous",
			Description: "Replay the previously played track.",
		},
		previousMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "queue",
			Description: "Show the current track queue.",
		},
		showQueue,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "np",
			Description: "Show the track that's now playing.",
		},
		nowPlaying,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "history",
			Description: "Show the recently played tracks.",
		},
		showHistory,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "shuffle",
			Description: "Shuffle the pending queue.",
		},
		shuffleMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "clear",
			Description: "Remove every pending track from the queue.",
		},
		clearMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "remove",
			Description: "Remove one track from the queue by position.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "position",
					Description: "Queue position, starting at 1",
					Required:    true,
				},
			},
		},
		removeMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "loop",
			Description: "Set the loop mode.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "Loop mode",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "off", Value: "off"},
						{Name: "track", Value: "track"},
						{Name: "queue", Value: "queue"},
					},
				},
			},
		},
		loopMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "volume",
			Description: "Set the playback volume.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "percent",
					Description: "Volume between 0 and 200",
					Required:    true,
				},
			},
		},
		volumeMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "disconnect",
			Description: "Disconnect the bot from voice chat, keeping the queue.",
		},
		disconnectMusic,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "leave",
			Description: "Disconnect the bot from voice chat, keeping the queue.",
		},
		disconnectMusic,
	)

	if err := commands.Register(s); err != nil {
		log.WithError(err).Error("Failed to register slash commands")
	}
}

type CommandHandler func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError

type Commands struct {
	commands []*discordgo.ApplicationCommand
	handlers map[string]CommandHandler
}

var (
	commands = &Commands{}
)

// Adds command to the slash commands.
func (c *Commands) Add(com *discordgo.ApplicationCommand, handler CommandHandler) {
	c.commands = append(c.commands, com)
	if c.handlers == nil {
		c.handlers = map[string]CommandHandler{}
	}
	c.handlers[com.Name] = handler
}

// Register all slash commands
func (c *Commands) Register(s *discordgo.Session) error {
	// Handles all interactions and routes them to the correct command handler
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type == discordgo.InteractionApplicationCommand {
			callCommandHandler(s, i)
		}
	})

	// Registers slash commands
	if _, err := s.ApplicationCommandBulkOverwrite(viper.GetString("discord.app.id"), "", c.commands); err != nil {
		log.WithError(err).Error("Failed to create commands")
		return err
	}
	return nil
}

// Cannot be an interaction through DMs
func checkDirectMessage(i *discordgo.InteractionCreate) (*discordgo.User, *interactionError) {
	if i.GuildID == "" {
		return nil, &interactionError{
			errors.New("command invoked outside of valid guild"),
			"This command is only available in a valid server",
		}
	}
	return i.Member.User, nil
}

// Text or slash command interactions
func callCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var iError *interactionError
	ctx := context.Background()
	commandAuthor, iError := checkDirectMessage(i)
	if iError != nil {
		iError.Handle(s, i)
		return
	}

	commandName := i.ApplicationCommandData().Name

	channel, err := s.Channel(i.ChannelID)
	if err != nil {
		iError = &interactionError{err, "Couldn't query channel"}
		iError.Handle(s, i)
		return
	}

	if handler, ok := commands.handlers[commandName]; ok {
		ctx := context.WithValue(ctx, log.Key, log.Fields{
			"author_id":        commandAuthor.ID,
			"channel_id":       i.ChannelID,
			"guild_id":         i.GuildID,
			"user":             commandAuthor.Username,
			"channel_name":     channel.Name,
			"interaction_type": "application",
			"command":          commandName,
		})
		log.WithContext(ctx).Info("Invoking application command")
		iError = handler(ctx, s, i)
		if iError != nil {
			iError.Handle(s, i)
		}
	}
}
