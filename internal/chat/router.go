// Package chat turns chat messages into notifications.
package chat

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"unicode"

	"chatnotifier/internal/twitch"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrInvalidCommand = errors.New("invalid command")

// Action is what a chat command does.
type Action string

const (
	// ActionRandomNotice shows one of the built-in notices.
	ActionRandomNotice Action = "random_notice"
	// ActionCustomNotice shows the text following the command.
	ActionCustomNotice Action = "custom_notice"
)

// DefaultCommands maps command keywords (without the "!" prefix) to actions.
func DefaultCommands() map[string]Action {
	return map[string]Action{
		"cc":  ActionRandomNotice,
		"ccc": ActionCustomNotice,
	}
}

// Notices are the built-in messages telling the streamer to look at chat.
var Notices = []string{
	"Check the chat, nerd!",
	"Chat requires your attention",
	"You should check the chat..",
	"Feed the chatters, they're hungry",
	"Did you know that chat exists?",
	"Chat exploded! Just kidding, check it!",
	"Free chat check, limited time offer!",
	"Insert funny chat notification here",
	"Chatters are waffling, provide syrup",
}

// eggWords trigger a sound of the same name when found in a custom notice; first match wins.
var eggWords = []string{"tutturuu", "ding", "amogus"}

// artWords attach a piece of art to a custom notice; first match wins.
var artWords = []string{"amogus", "awoo", "nya"}

// Notification is produced for every accepted command.
type Notification struct {
	User    string `json:"user"`
	Command string `json:"command"`
	Text    string `json:"text"`
	Sound   string `json:"sound,omitempty"` // sound asset name to play
	Art     string `json:"art,omitempty"`
}

// ValidateCommands checks keywords and actions of a command table.
func ValidateCommands(commands map[string]Action) error {
	for keyword, action := range commands {
		if keyword == "" || strings.ContainsAny(keyword, "! \t\r\n") {
			return fmt.Errorf("%w: keyword %q", ErrInvalidCommand, keyword)
		}
		if action != ActionRandomNotice && action != ActionCustomNotice {
			return fmt.Errorf("%w: unknown action %q for %q", ErrInvalidCommand, action, keyword)
		}
	}
	return nil
}

type command struct {
	trigger string // "!" + lowercased keyword
	action  Action
}

// Router matches chat messages against the command table. It is immutable once built.
type Router struct {
	commands []command
	approved map[string]bool
	pick     func(n int) int
}

// NewRouter builds a router. An empty approvedUsers list lets anyone trigger commands.
func NewRouter(commands map[string]Action, approvedUsers []string) *Router {
	r := &Router{
		approved: make(map[string]bool, len(approvedUsers)),
		pick:     rand.IntN,
	}
	for keyword, action := range commands {
		r.commands = append(r.commands, command{trigger: "!" + lower(keyword), action: action})
	}
	// Longest trigger first so "!ccc" is never taken for "!cc"
	sort.Slice(r.commands, func(i, j int) bool {
		if len(r.commands[i].trigger) != len(r.commands[j].trigger) {
			return len(r.commands[i].trigger) > len(r.commands[j].trigger)
		}
		return r.commands[i].trigger < r.commands[j].trigger
	})
	for _, user := range approvedUsers {
		r.approved[lower(user)] = true
	}
	return r
}

// Approved reports whether user may trigger commands.
func (r *Router) Approved(user string) bool {
	return len(r.approved) == 0 || r.approved[lower(user)]
}

// Route returns the notification for msg, or false when msg is not an accepted command.
func (r *Router) Route(msg twitch.Message) (*Notification, bool) {
	if !r.Approved(msg.User) || !strings.HasPrefix(msg.Text, "!") {
		return nil, false
	}

	raw := msg.Text
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		raw = raw[:i]
	}
	token := lower(strings.TrimFunc(raw, func(r rune) bool { return unicode.IsSpace(r) || r == 0 }))

	for _, cmd := range r.commands {
		if token != cmd.trigger {
			continue
		}

		rest := strings.TrimSpace(msg.Text[len(raw):])
		n := &Notification{User: msg.User, Command: strings.TrimPrefix(cmd.trigger, "!")}
		switch cmd.action {
		case ActionCustomNotice:
			if rest == "" {
				n.Text = r.randomNotice()
				break
			}
			n.Text = rest
			folded := lower(rest)
			n.Sound = firstContained(folded, eggWords)
			n.Art = firstContained(folded, artWords)
		default:
			n.Text = r.randomNotice()
		}
		return n, true
	}

	return nil, false
}

func (r *Router) randomNotice() string {
	return Notices[r.pick(len(Notices))]
}

func firstContained(s string, words []string) string {
	for _, w := range words {
		if strings.Contains(s, w) {
			return w
		}
	}
	return ""
}

// lower folds case for matching; a Caser is not safe for concurrent use, so one is made per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
