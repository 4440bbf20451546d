package handlers

import (
	"Quorum/manager"

	"github.com/bwmarrin/discordgo"
)

var mgr *manager.Manager

// HandlerConfig handles configs for intents and handlers
func HandlerConfig(s *discordgo.Session, m *manager.Manager) {
	mgr = m
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	s.AddHandler(MessageHandler)
	s.AddHandler(VoiceStateHandler)
}
