package storage

// DMGuild is the guild slot used for direct messages, where Discord gives us
// no guild ID.
const DMGuild = "dm"

// Identity is the (guild, channel, user) triple that addresses all state.
type Identity struct {
	GuildID   string
	ChannelID string
	UserID    string
}

// NewIdentity normalizes an empty guild ID to the DM marker.
func NewIdentity(guildID, channelID, userID string) Identity {
	if guildID == "" {
		guildID = DMGuild
	}
	return Identity{GuildID: guildID, ChannelID: channelID, UserID: userID}
}

// Key returns the full triple as a map key.
func (id Identity) Key() string {
	return id.GuildID + "|" + id.ChannelID + "|" + id.UserID
}

// StatKey returns the (guild, user) pair key used for affection stats, which
// are channel-independent.
func (id Identity) StatKey() string {
	return id.GuildID + "|" + id.UserID
}
