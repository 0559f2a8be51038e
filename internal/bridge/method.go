package bridge

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// Method identifies one operation of the native subsystem reachable from the front-end.
// The set is closed: every value is declared below and nothing else can be dispatched.
type Method int

const (
	MethodInitialize Method = iota + 1
	MethodCleanup
	MethodInitialized
	MethodSaveConfig
	MethodGetConfigJSON
	MethodSetConfigJSON
	MethodConnectTwitch
	MethodDisconnectTwitch
	MethodTwitchConnectionStatus
	MethodPrinter
	MethodStopAllSounds
	MethodFindNewAssets
	MethodReloadScripts
)

// methodNames holds the wire name of each method, indexed by Method.
var methodNames = [...]string{
	MethodInitialize:             "initialize",
	MethodCleanup:                "cleanup",
	MethodInitialized:            "initialized",
	MethodSaveConfig:             "save_config",
	MethodGetConfigJSON:          "get_config_json",
	MethodSetConfigJSON:          "set_config_json",
	MethodConnectTwitch:          "connect_twitch",
	MethodDisconnectTwitch:       "disconnect_twitch",
	MethodTwitchConnectionStatus: "get_twitch_connection_status",
	MethodPrinter:                "printer",
	MethodStopAllSounds:          "stop_all_sounds",
	MethodFindNewAssets:          "find_new_assets",
	MethodReloadScripts:          "reload_scripts",
}

var methodsByName = func() map[string]Method {
	m := make(map[string]Method, len(methodNames))
	for _, method := range Methods() {
		m[method.String()] = method
	}
	return m
}()

// maxSuggestDistance bounds how different a name may be and still get a suggestion.
const maxSuggestDistance = 3

// Methods returns every method in declaration order.
func Methods() []Method {
	methods := make([]Method, 0, len(methodNames)-1)
	for m := MethodInitialize; int(m) < len(methodNames); m++ {
		methods = append(methods, m)
	}
	return methods
}

// Valid reports whether m is one of the declared methods.
func (m Method) Valid() bool {
	return m >= MethodInitialize && int(m) < len(methodNames)
}

// String returns the wire name of the method.
func (m Method) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod resolves a wire name to its Method.
func ParseMethod(name string) (Method, error) {
	if m, ok := methodsByName[name]; ok {
		return m, nil
	}
	if suggestion := suggestMethod(name); suggestion != "" {
		return 0, fmt.Errorf("%w: %s (did you mean %s?)", ErrMethodNotFound, name, suggestion)
	}
	return 0, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
}

// suggestMethod returns the closest known wire name, or "" when nothing is close enough.
func suggestMethod(name string) string {
	if name == "" {
		return ""
	}
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, m := range Methods() {
		dist := levenshtein.ComputeDistance(name, m.String())
		if dist < bestDist {
			best, bestDist = m.String(), dist
		}
	}
	return best
}
