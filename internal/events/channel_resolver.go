package events

import (
	"strings"

	"github.com/google/uuid"
)

const (
	matchChannelPrefix = "channel:match:"
	userChannelPrefix  = "channel:user:"

	// Pattern matches every channel this service publishes to.
	Pattern = "channel:*"
)

// ChannelKind tells which realtime audience a channel addresses.
type ChannelKind int

const (
	ChannelUnknown ChannelKind = iota
	ChannelMatch
	ChannelUser
)

func MatchChannel(matchID uuid.UUID) string {
	return matchChannelPrefix + matchID.String()
}

func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

// ParseChannel splits a channel name into its kind and target id.
func ParseChannel(channel string) (ChannelKind, uuid.UUID) {
	var kind ChannelKind
	var rest string
	switch {
	case strings.HasPrefix(channel, matchChannelPrefix):
		kind, rest = ChannelMatch, strings.TrimPrefix(channel, matchChannelPrefix)
	case strings.HasPrefix(channel, userChannelPrefix):
		kind, rest = ChannelUser, strings.TrimPrefix(channel, userChannelPrefix)
	default:
		return ChannelUnknown, uuid.Nil
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return ChannelUnknown, uuid.Nil
	}
	return kind, id
}
