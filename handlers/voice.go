package handlers

import (
	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
)

// VoiceStateHandler watches for the bot's voice channel emptying out.
// When the last human leaves, playback is halted and the queue is kept
// for a later resume.
func VoiceStateHandler(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.UserID == s.State.User.ID {
		return
	}

	vc, ok := s.VoiceConnections[v.GuildID]
	if !ok || vc == nil || vc.ChannelID == "" {
		return
	}

	// Only departures from the bot's channel can empty it.
	if v.BeforeUpdate == nil || v.BeforeUpdate.ChannelID != vc.ChannelID {
		return
	}
	if v.ChannelID == vc.ChannelID {
		return
	}

	if countHumans(s, v.GuildID, vc.ChannelID) > 0 {
		return
	}

	log.WithFields(log.Fields{"guild_id": v.GuildID}).Info("Voice channel emptied, halting playback")
	mgr.ChannelEmptied(v.GuildID)
}

func countHumans(s *discordgo.Session, guildID, channelID string) int {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return 0
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID || vs.UserID == s.State.User.ID {
			continue
		}
		if member, err := s.State.Member(guildID, vs.UserID); err == nil && member.User != nil && member.User.Bot {
			continue
		}
		count++
	}
	return count
}
