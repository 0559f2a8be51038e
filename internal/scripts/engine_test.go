package scripts

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mu      sync.Mutex
	sounds  string
	tts     string
	played  []string
	printed []string
	playErr error
}

func (f *fakeHost) SoundAssetsPath() string { return f.sounds }
func (f *fakeHost) TTSAssetsPath() string   { return f.tts }

func (f *fakeHost) PlayOneshot(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, path)
	return f.playErr
}

func (f *fakeHost) Print(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.printed = append(f.printed, line)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

const dingScript = `
function on_load()
  chatnotifier.print("ready " .. chatnotifier.get_tts_assets_path())
end

function on_message(user, message)
  print(user, message)
  chatnotifier.play_oneshot_file(chatnotifier.get_sound_assets_path() .. "/ding.opus")
end
`

func newTestEngine() (*Engine, *fakeHost) {
	host := &fakeHost{sounds: "/assets/Sounds", tts: "/assets/TTS"}
	return NewEngine(host, testLogger()), host
}

func TestEngine_ReloadAndOnMessage(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "ding.lua", dingScript)
	writeScript(t, dir, "notes.txt", "not a script")

	e, host := newTestEngine()
	report, err := e.Reload(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"ding.lua"}, report.Loaded)
	assert.Empty(t, report.Failed)
	assert.Equal(t, []string{"ready /assets/TTS"}, host.printed)

	e.OnMessage("alice", "hello there")

	assert.Equal(t, []string{"ready /assets/TTS", "alice\thello there"}, host.printed)
	assert.Equal(t, []string{"/assets/Sounds/ding.opus"}, host.played)
}

func TestEngine_ReloadReportsBrokenScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a_good.lua", `function on_message(user, message) end`)
	writeScript(t, dir, "b_syntax.lua", `function on_message(user, message`)
	writeScript(t, dir, "c_runtime.lua", `error("nope")`)
	writeScript(t, dir, "d_onload.lua", `function on_load() error("bad load") end`)

	e, _ := newTestEngine()
	report, err := e.Reload(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a_good.lua"}, report.Loaded)
	assert.Len(t, report.Failed, 3)
	assert.Contains(t, report.Failed, "b_syntax.lua")
	assert.Contains(t, report.Failed, "c_runtime.lua")
	assert.Contains(t, report.Failed, "d_onload.lua")
	assert.Equal(t, []string{"a_good.lua"}, e.Loaded())
}

func TestEngine_ReloadReplacesScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "one.lua", `function on_message(user, message) print("one") end`)
	writeScript(t, dir, "two.lua", `function on_message(user, message) print("two") end`)

	e, host := newTestEngine()
	_, err := e.Reload(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"one.lua", "two.lua"}, e.Loaded())

	require.NoError(t, os.Remove(filepath.Join(dir, "one.lua")))
	_, err = e.Reload(dir)
	require.NoError(t, err)

	e.OnMessage("bob", "hi")
	assert.Equal(t, []string{"two"}, host.printed)
}

func TestEngine_OnMessageErrorDoesNotStopOtherScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.lua", `function on_message(user, message) error("boom") end`)
	writeScript(t, dir, "b.lua", `function on_message(user, message) print(user) end`)

	e, host := newTestEngine()
	_, err := e.Reload(dir)
	require.NoError(t, err)

	e.OnMessage("carol", "hey")
	assert.Equal(t, []string{"carol"}, host.printed)
}

func TestEngine_ScriptsWithoutHooks(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "plain.lua", `x = 1 + 1`)

	e, host := newTestEngine()
	report, err := e.Reload(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"plain.lua"}, report.Loaded)

	e.OnMessage("dave", "yo")
	assert.Empty(t, host.printed)
}

func TestEngine_MissingDir(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.Reload(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestEngine_Close(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "ding.lua", dingScript)

	e, host := newTestEngine()
	_, err := e.Reload(dir)
	require.NoError(t, err)

	e.Close()
	e.OnMessage("alice", "hello")

	assert.Empty(t, e.Loaded())
	assert.Empty(t, host.played)
}
