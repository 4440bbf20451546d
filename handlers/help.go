package handlers

import (
	"github.com/bwmarrin/discordgo"
)

// HelpEmbedding creates the embedding for the help menu
func HelpEmbedding(s *discordgo.Session, m *discordgo.MessageCreate) {
	botAvatarURL := s.State.User.AvatarURL("64")
	helpEmbed := &discordgo.MessageEmbed{
		Title: "Quorum Help",
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: botAvatarURL,
		},
		Description: "Playback is shared: skips, stops and queue edits pass by majority vote of the listeners in the voice channel. Admins and the track's requester act instantly.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Playback", Value: "`/play` `/pause` `/resume` `/skip` `/previous` `/stop`"},
			{Name: "Queue", Value: "`/queue` `/np` `/history` `/shuffle` `/remove` `/clear`"},
			{Name: "Settings", Value: "`/loop` `/volume` `/disconnect`"},
		},
	}
	s.ChannelMessageSendEmbed(m.ChannelID, helpEmbed)
}
