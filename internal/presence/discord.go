package presence

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordDirectory resolves channels and voice occupancy through a discordgo
// session, preferring the local state cache over REST calls.
type DiscordDirectory struct {
	session *discordgo.Session
}

func NewDiscordDirectory(session *discordgo.Session) *DiscordDirectory {
	return &DiscordDirectory{session: session}
}

func (d *DiscordDirectory) FetchChannel(id string) (*ChannelInfo, error) {
	ch, err := d.session.State.Channel(id)
	if err != nil {
		ch, err = d.session.Channel(id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch channel %s: %w", id, err)
		}
	}

	info := &ChannelInfo{ID: ch.ID, GuildID: ch.GuildID, Name: ch.Name}

	guild, err := d.session.State.Guild(ch.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild %s: %w", ch.GuildID, err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != ch.ID {
			continue
		}
		info.Members = append(info.Members, Member{
			ID:        vs.UserID,
			Automated: d.isBot(ch.GuildID, vs.UserID),
		})
	}
	return info, nil
}

func (d *DiscordDirectory) isBot(guildID, userID string) bool {
	member, err := d.session.State.Member(guildID, userID)
	if err != nil {
		member, err = d.session.GuildMember(guildID, userID)
		if err != nil {
			// unknown members count as human
			return false
		}
	}
	return member.User != nil && member.User.Bot
}
