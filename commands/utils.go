package commands

import (
	"fmt"

	"Quorum/manager"
	"Quorum/queue"

	"github.com/bwmarrin/discordgo"
)

// userVoiceChannel returns the voice channel the user currently sits in.
func userVoiceChannel(s *discordgo.Session, guildID, userID string) (string, bool) {
	vs, err := s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

// checkUserVoiceChannel checks whether the user is in a voice channel the
// bot can serve, responding to the interaction when they are not.
func checkUserVoiceChannel(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	channelID, ok := userVoiceChannel(s, i.GuildID, i.Member.User.ID)
	if !ok {
		respond(s, i, "Join a voice channel first 😉")
		return false
	}

	// Users in a different channel cannot steer the bot.
	if vc, ok := s.VoiceConnections[i.GuildID]; ok && vc != nil && vc.ChannelID != channelID {
		respond(s, i, "I'm already in another voice channel 😅")
		return false
	}

	return true
}

// eligibleListeners counts the humans in the voice channel; these are the
// users whose votes count. Never returns less than 1 so the threshold math
// stays sane when gateway state lags behind reality.
func eligibleListeners(s *discordgo.Session, guildID, channelID string) int {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return 1
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		if member, err := s.State.Member(guildID, vs.UserID); err == nil && member.User != nil && member.User.Bot {
			continue
		}
		count++
	}
	if count < 1 {
		return 1
	}
	return count
}

// isPrivileged reports whether the actor may bypass voting: guild admins
// and the requester of the current track.
func isPrivileged(i *discordgo.InteractionCreate, current *queue.Track) bool {
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return current != nil && current.RequestedByID == i.Member.User.ID
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// formatResult turns a manager result into the user-facing reply.
func formatResult(res manager.Result, applied string) string {
	switch res.Kind {
	case manager.ResultApplied:
		return applied
	case manager.ResultVoteRecorded:
		return fmt.Sprintf("🗳️ Vote added. **%d/%d** votes now.", res.Have, res.Needed)
	default:
		return "❌ " + res.Reason
	}
}
