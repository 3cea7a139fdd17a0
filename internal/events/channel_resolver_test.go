package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseChannel(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		channel string
		kind    ChannelKind
		id      uuid.UUID
	}{
		{"match", MatchChannel(id), ChannelMatch, id},
		{"user", UserChannel(id), ChannelUser, id},
		{"unknown prefix", "channel:conversation:" + id.String(), ChannelUnknown, uuid.Nil},
		{"bad id", "channel:match:not-a-uuid", ChannelUnknown, uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, got := ParseChannel(tt.channel)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.id, got)
		})
	}
}
