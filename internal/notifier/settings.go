package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"chatnotifier/internal/chat"
	"chatnotifier/internal/twitch"
)

const (
	maxShowTimeSeconds     = 300
	defaultShowTimeSeconds = 5
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the user configuration persisted by the subsystem and exchanged
// with the front-end as JSON text.
type Settings struct {
	Twitch          twitch.Credentials     `json:"twitch"`
	ApprovedUsers   []string               `json:"approved_users"`
	Commands        map[string]chat.Action `json:"commands"`
	ShowTimeSeconds int                    `json:"show_time_seconds"`
	WatchScripts    bool                   `json:"watch_scripts"`
}

// DefaultSettings returns the settings used before anything has been saved.
func DefaultSettings() Settings {
	return Settings{
		ApprovedUsers:   []string{},
		Commands:        chat.DefaultCommands(),
		ShowTimeSeconds: defaultShowTimeSeconds,
	}
}

// Validate checks the settings for consistency.
func (s Settings) Validate() error {
	if s.ShowTimeSeconds < 1 || s.ShowTimeSeconds > maxShowTimeSeconds {
		return fmt.Errorf("%w: show_time_seconds must be between 1 and %d", ErrInvalidSettings, maxShowTimeSeconds)
	}
	if err := chat.ValidateCommands(s.Commands); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// ParseSettings decodes settings JSON. Missing fields keep their defaults,
// unknown fields are rejected.
func ParseSettings(text string) (Settings, error) {
	settings := DefaultSettings()
	// Decoding into the default map would merge keyword tables
	settings.Commands = nil

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&settings); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if settings.ApprovedUsers == nil {
		settings.ApprovedUsers = []string{}
	}
	if settings.Commands == nil {
		settings.Commands = chat.DefaultCommands()
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// JSON encodes the settings.
func (s Settings) JSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return string(data), nil
}
