package transport

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"Quorum/queue"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"
)

const (
	sampleRate       = 48000
	channels         = 2
	frameSize        = 960
	maxOpusFrameSize = 4000
)

// streamSession is one guild's active ffmpeg-to-opus pipeline.
type streamSession struct {
	vc        *discordgo.VoiceConnection
	cmd       *exec.Cmd
	mu        sync.Mutex
	paused    bool
	volume    int // percent, 0-200
	stop      chan struct{}
	stopped   bool
	requested bool
}

func (s *streamSession) setPaused(p bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = p
}

func (s *streamSession) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *streamSession) setVolume(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = percent
}

func (s *streamSession) currentVolume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// halt kills ffmpeg and signals the streaming loop to exit. requested
// marks halts asked for by the player, as opposed to the pipeline's own
// cleanup after EOF or an error.
func (s *streamSession) halt(requested bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requested {
		s.requested = true
	}
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stop)
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	if s.vc != nil {
		s.vc.Speaking(false)
	}
}

func (s *streamSession) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

// Discord streams tracks to Discord voice channels through ffmpeg and an
// Opus encoder.
type Discord struct {
	session *discordgo.Session

	mu      sync.Mutex
	streams map[string]*streamSession
	onEnd   func(EndEvent)
}

func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{
		session: s,
		streams: make(map[string]*streamSession),
	}
}

// OnEnd registers the callback receiving stream EndEvents. The callback is
// invoked from the streaming goroutine and must do its own serialization.
func (d *Discord) OnEnd(fn func(EndEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onEnd = fn
}

func (d *Discord) emit(ev EndEvent) {
	d.mu.Lock()
	fn := d.onEnd
	d.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// StartStream connects to the voice channel and begins streaming the track.
// Any stream already running for the guild is halted first without emitting
// its end event twice.
func (d *Discord) StartStream(guildID, channelID string, track queue.Track) error {
	vc, err := d.connect(guildID, channelID)
	if err != nil {
		return err
	}

	ss := &streamSession{
		vc:     vc,
		volume: queue.DefaultVolume,
		stop:   make(chan struct{}),
	}

	d.mu.Lock()
	if old, ok := d.streams[guildID]; ok {
		old.halt(true)
	}
	d.streams[guildID] = ss
	d.mu.Unlock()

	go d.stream(guildID, ss, track)
	return nil
}

func (d *Discord) connect(guildID, channelID string) (*discordgo.VoiceConnection, error) {
	if vc, ok := d.session.VoiceConnections[guildID]; ok && vc != nil && vc.ChannelID == channelID {
		return vc, nil
	}
	return d.session.ChannelVoiceJoin(guildID, channelID, false, true)
}

// stream runs the ffmpeg-to-opus loop until EOF, error, or halt, then
// reports the end reason.
func (d *Discord) stream(guildID string, ss *streamSession, track queue.Track) {
	err := d.play(ss, track)

	d.mu.Lock()
	if d.streams[guildID] == ss {
		delete(d.streams, guildID)
	}
	d.mu.Unlock()

	switch {
	case ss.stopRequested():
		d.emit(EndEvent{GuildID: guildID, Reason: EndStopped})
	case err != nil:
		log.WithError(err).WithFields(log.Fields{
			"guild_id": guildID,
			"track":    track.Title,
		}).Error("Stream ended abnormally")
		d.emit(EndEvent{GuildID: guildID, Reason: EndErrored, Err: err})
	default:
		d.emit(EndEvent{GuildID: guildID, Reason: EndFinished})
	}
}

func (d *Discord) play(ss *streamSession, track queue.Track) error {
	vc := ss.vc
	if !vc.Ready {
		for i := 0; i < 20; i++ {
			time.Sleep(250 * time.Millisecond)
			if vc.Ready {
				break
			}
		}
		if !vc.Ready {
			return fmt.Errorf("voice connection never became ready")
		}
	}

	vc.Speaking(true)
	defer vc.Speaking(false)

	cmd := exec.Command("ffmpeg",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", track.URL,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		cmd.Process.Kill()
		return err
	}

	ss.mu.Lock()
	ss.cmd = cmd
	ss.mu.Unlock()
	defer ss.halt(false)

	pcmBuffer := make([]byte, frameSize*channels*2)
	pcmCache := []int16{}

	for {
		select {
		case <-ss.stop:
			return nil
		default:
		}

		if ss.isPaused() {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		n, err := stdout.Read(pcmBuffer)
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		volume := ss.currentVolume()
		for i := 0; i+1 < n; i += 2 {
			sample := int16(pcmBuffer[i]) | int16(pcmBuffer[i+1])<<8
			pcmCache = append(pcmCache, scaleSample(sample, volume))
		}

		for len(pcmCache) >= frameSize*channels {
			frame := pcmCache[:frameSize*channels]
			pcmCache = pcmCache[frameSize*channels:]

			opusFrame, err := encoder.Encode(frame, frameSize, maxOpusFrameSize)
			if err != nil {
				return err
			}

			if len(opusFrame) > 0 {
				select {
				case vc.OpusSend <- opusFrame:
				case <-time.After(100 * time.Millisecond):
					return fmt.Errorf("timeout sending opus frame")
				case <-ss.stop:
					return nil
				}
			}
		}
	}

	return cmd.Wait()
}

// scaleSample applies a percent volume to one PCM sample, clamping at the
// int16 range so boosted audio clips instead of wrapping.
func scaleSample(sample int16, percent int) int16 {
	scaled := int32(sample) * int32(percent) / 100
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}

func (d *Discord) lookup(guildID string) *streamSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streams[guildID]
}

func (d *Discord) StopStream(guildID string) {
	if ss := d.lookup(guildID); ss != nil {
		ss.halt(true)
	}
}

func (d *Discord) Pause(guildID string) {
	if ss := d.lookup(guildID); ss != nil {
		ss.setPaused(true)
	}
}

func (d *Discord) Resume(guildID string) {
	if ss := d.lookup(guildID); ss != nil {
		ss.setPaused(false)
	}
}

func (d *Discord) SetVolume(guildID string, percent int) {
	if ss := d.lookup(guildID); ss != nil {
		ss.setVolume(percent)
	}
}

func (d *Discord) Leave(guildID string) {
	d.StopStream(guildID)
	if vc, ok := d.session.VoiceConnections[guildID]; ok && vc != nil {
		vc.Disconnect()
	}
}
