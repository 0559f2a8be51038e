package twitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrivmsg(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Message
		wantOK bool
	}{
		{
			name:   "plain",
			line:   ":alice!alice@alice.tmi.twitch.tv PRIVMSG #streamer :!cc check chat\r\n",
			want:   Message{User: "alice", Channel: "streamer", Text: "!cc check chat"},
			wantOK: true,
		},
		{
			name:   "message containing colon",
			line:   ":bob!bob@bob.tmi.twitch.tv PRIVMSG #streamer :time is 10:30",
			want:   Message{User: "bob", Channel: "streamer", Text: "time is 10:30"},
			wantOK: true,
		},
		{
			name:   "with tags",
			line:   "@badge-info=;color=#FF0000 :carol!carol@carol.tmi.twitch.tv PRIVMSG #streamer :hi",
			want:   Message{User: "carol", Channel: "streamer", Text: "hi"},
			wantOK: true,
		},
		{name: "join", line: ":alice!alice@alice.tmi.twitch.tv JOIN #streamer"},
		{name: "numeric", line: ":tmi.twitch.tv 001 bot :Welcome, GLHF!"},
		{name: "ping", line: "PING :tmi.twitch.tv"},
		{name: "empty", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrivmsg(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePing(t *testing.T) {
	payload, ok := parsePing("PING :tmi.twitch.tv\r\n")
	assert.True(t, ok)
	assert.Equal(t, ":tmi.twitch.tv", payload)

	_, ok = parsePing(":tmi.twitch.tv PONG")
	assert.False(t, ok)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLines("a\r\nb\r\n"))
	assert.Nil(t, splitLines("\r\n"))
}
