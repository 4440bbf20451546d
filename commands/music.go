package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"Quorum/manager"
	"Quorum/player"
	"Quorum/resolver"
	"Quorum/utils"
	"Quorum/vote"

	"github.com/bwmarrin/discordgo"
)

var mgr *manager.Manager

// voteGated routes a control intent through the manager. Single listeners
// and privileged users act immediately; everyone else casts a vote.
func voteGated(s *discordgo.Session, i *discordgo.InteractionCreate, action vote.Action, target, applied string) {
	if !checkUserVoiceChannel(s, i) {
		return
	}
	channelID, _ := userVoiceChannel(s, i.GuildID, i.Member.User.ID)
	eligible := eligibleListeners(s, i.GuildID, channelID)

	view, _, _ := mgr.Snapshot(i.GuildID)
	res := mgr.VoteOrAct(i.GuildID, i.Member.User.ID, action, target, eligible, isPrivileged(i, view.Current))
	respond(s, i, formatResult(res, applied))
}

// playMusic resolves the query and adds the results to the guild's queue,
// starting playback if nothing is active.
func playMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if !checkUserVoiceChannel(s, i) {
		return nil
	}
	channelID, _ := userVoiceChannel(s, i.GuildID, i.Member.User.ID)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Adding your track... 🎶",
		},
	})
	if err != nil {
		return &interactionError{err: err, message: "Failed to respond"}
	}

	query := i.ApplicationCommandData().Options[0].StringValue()
	requester := resolver.Requester{ID: i.Member.User.ID, Name: i.Member.User.Username}

	res, tracks := mgr.Enqueue(ctx, i.GuildID, channelID, requester, query)
	if res.Kind == manager.ResultRejected {
		s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: "❌ " + res.Reason,
		})
		return nil
	}

	content := ""
	if len(tracks) == 1 {
		content = fmt.Sprintf("✅ Queued **%s** [%s]", tracks[0].Title, utils.FormatTrackDuration(tracks[0].Duration))
	} else {
		content = fmt.Sprintf("✅ Queued **%d** tracks", len(tracks))
	}
	s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content})
	return nil
}

// pauseMusic pauses the current track.
func pauseMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	voteGated(s, i, vote.ActionPause, "", "⏸️ Paused")
	return nil
}

// resumeMusic resumes paused playback, or restarts a persisted queue after
// a reboot.
func resumeMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if !checkUserVoiceChannel(s, i) {
		return nil
	}
	channelID, _ := userVoiceChannel(s, i.GuildID, i.Member.User.ID)

	res := mgr.Resume(i.GuildID, channelID)
	respond(s, i, formatResult(res, "▶️ Resumed"))
	return nil
}

// skipMusic skips the current track.
func skipMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	voteGated(s, i, vote.ActionSkip, "", "⏭️ Skipped")
	return nil
}

// stopMusic stops playback and clears the queue.
func stopMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	voteGated(s, i, vote.ActionStop, "", "⏹️ Stopped")
	return nil
}

// previousMusic replays the most recently finished track.
func previousMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if !checkUserVoiceChannel(s, i) {
		return nil
	}
	res := mgr.Previous(i.GuildID)
	respond(s, i, formatResult(res, "⏮️ Playing the previous track"))
	return nil
}

// shuffleMusic shuffles the pending queue.
func shuffleMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	voteGated(s, i, vote.ActionShuffle, "", "🔀 Shuffled the queue")
	return nil
}

// clearMusic empties the pending queue without touching the current track.
func clearMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	voteGated(s, i, vote.ActionClear, "", "🧹 Cleared the queue")
	return nil
}

// removeMusic removes one pending track by its queue position.
func removeMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	position := int(i.ApplicationCommandData().Options[0].IntValue())
	if position < 1 {
		respond(s, i, "❌ Queue positions start at 1")
		return nil
	}
	// Users count from 1, the queue counts from 0.
	target := strconv.Itoa(position - 1)
	voteGated(s, i, vote.ActionRemove, target, fmt.Sprintf("🗑️ Removed track **#%d**", position))
	return nil
}

// loopMusic sets the loop mode for the guild.
func loopMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	mode := i.ApplicationCommandData().Options[0].StringValue()
	voteGated(s, i, vote.ActionLoop, mode, fmt.Sprintf("🔁 Loop set to **%s**", mode))
	return nil
}

// volumeMusic sets the playback volume for the guild.
func volumeMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if !checkUserVoiceChannel(s, i) {
		return nil
	}
	volume := int(i.ApplicationCommandData().Options[0].IntValue())
	res := mgr.SetVolume(i.GuildID, volume)
	respond(s, i, formatResult(res, fmt.Sprintf("🔊 Volume set to **%d%%**", volume)))
	return nil
}

// disconnectMusic removes the bot from voice chat, keeping the queue
// around so playback can be resumed later.
func disconnectMusic(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	voteGated(s, i, vote.ActionDisconnect, "", "👋 Disconnected")
	return nil
}

// nowPlaying shows the track currently streaming.
func nowPlaying(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	view, _, _ := mgr.Snapshot(i.GuildID)
	if view.Current == nil {
		respond(s, i, "Nothing is playing right now 😶")
		return nil
	}

	track := view.Current
	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: fmt.Sprintf("**[%s](%s)**", track.Title, track.URL),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Duration", Value: utils.FormatTrackDuration(track.Duration), Inline: true},
			{Name: "Requested by", Value: track.RequestedBy, Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", view.Volume), Inline: true},
		},
	}
	if track.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.Thumbnail}
	}
	if view.Status == player.StatusPaused {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "⏸️ Paused"}
	}
	respondEmbed(s, i, embed)
	return nil
}

// showQueue lists the pending tracks for the guild.
func showQueue(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	view, pending, _ := mgr.Snapshot(i.GuildID)
	if view.Current == nil && len(pending) == 0 {
		respond(s, i, "The queue is empty 😶")
		return nil
	}

	var sb strings.Builder
	if view.Current != nil {
		fmt.Fprintf(&sb, "▶️ **%s** [%s]\n\n", view.Current.Title, utils.FormatTrackDuration(view.Current.Duration))
	}
	shown := pending
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for n, track := range shown {
		fmt.Fprintf(&sb, "`%d.` **%s** [%s] · %s\n", n+1, track.Title, utils.FormatTrackDuration(track.Duration), track.RequestedBy)
	}
	if remaining := len(pending) - len(shown); remaining > 0 {
		fmt.Fprintf(&sb, "\n...and **%d** more", remaining)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: sb.String(),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d pending · loop %s · volume %d%%", len(pending), view.Loop, view.Volume),
		},
	}
	respondEmbed(s, i, embed)
	return nil
}

// showHistory lists the most recently played tracks, newest first.
func showHistory(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	_, _, history := mgr.Snapshot(i.GuildID)
	if len(history) == 0 {
		respond(s, i, "Nothing has played yet 😶")
		return nil
	}

	var sb strings.Builder
	for n, track := range history {
		if n >= 10 {
			break
		}
		fmt.Fprintf(&sb, "`%d.` **%s** [%s]\n", n+1, track.Title, utils.FormatTrackDuration(track.Duration))
	}
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Recently Played",
		Description: sb.String(),
	})
	return nil
}
