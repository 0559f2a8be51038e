package twitch

import "strings"

// Message is a chat line received from a channel.
type Message struct {
	User    string
	Channel string
	Text    string
}

// ParsePrivmsg extracts the chat message from a raw IRC PRIVMSG line such as
// ":alice!alice@alice.tmi.twitch.tv PRIVMSG #channel :hello there".
func ParsePrivmsg(line string) (Message, bool) {
	line = strings.TrimRight(line, "\r\n")
	line = stripTags(line)

	if !strings.HasPrefix(line, ":") {
		return Message{}, false
	}
	prefix, rest, ok := strings.Cut(line[1:], " ")
	if !ok {
		return Message{}, false
	}
	command, rest, ok := strings.Cut(rest, " ")
	if !ok || command != "PRIVMSG" {
		return Message{}, false
	}
	channel, text, ok := strings.Cut(rest, " :")
	if !ok {
		return Message{}, false
	}

	user, _, _ := strings.Cut(prefix, "!")
	return Message{
		User:    user,
		Channel: strings.TrimPrefix(channel, "#"),
		Text:    text,
	}, true
}

// parsePing returns the PING payload when line is a server keepalive.
func parsePing(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "PING") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "PING")), true
}

// stripTags drops an IRCv3 tag section ("@key=value;... ") from the front of a line.
func stripTags(line string) string {
	if !strings.HasPrefix(line, "@") {
		return line
	}
	_, rest, ok := strings.Cut(line, " ")
	if !ok {
		return ""
	}
	return rest
}

// splitLines splits a websocket frame into its IRC lines.
func splitLines(frame string) []string {
	var lines []string
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
