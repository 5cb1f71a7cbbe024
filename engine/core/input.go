package core

import (
	"fmt"
	"strings"
	"sync"
)

// Key code definitions, virtual-key values.
type KeyCode uint16

const (
	KEY_UNKNOWN   KeyCode = 0x00
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_SHIFT     KeyCode = 0x10
	KEY_CONTROL   KeyCode = 0x11
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28

	KEY_A KeyCode = 0x41
	KEY_B KeyCode = 0x42
	KEY_C KeyCode = 0x43
	KEY_D KeyCode = 0x44
	KEY_E KeyCode = 0x45
	KEY_F KeyCode = 0x46
	KEY_G KeyCode = 0x47
	KEY_H KeyCode = 0x48
	KEY_I KeyCode = 0x49
	KEY_J KeyCode = 0x4A
	KEY_K KeyCode = 0x4B
	KEY_L KeyCode = 0x4C
	KEY_M KeyCode = 0x4D
	KEY_N KeyCode = 0x4E
	KEY_O KeyCode = 0x4F
	KEY_P KeyCode = 0x50
	KEY_Q KeyCode = 0x51
	KEY_R KeyCode = 0x52
	KEY_S KeyCode = 0x53
	KEY_T KeyCode = 0x54
	KEY_U KeyCode = 0x55
	KEY_V KeyCode = 0x56
	KEY_W KeyCode = 0x57
	KEY_X KeyCode = 0x58
	KEY_Y KeyCode = 0x59
	KEY_Z KeyCode = 0x5A

	KEY_F1  KeyCode = 0x70
	KEY_F2  KeyCode = 0x71
	KEY_F3  KeyCode = 0x72
	KEY_F4  KeyCode = 0x73
	KEY_F5  KeyCode = 0x74
	KEY_F6  KeyCode = 0x75
	KEY_F7  KeyCode = 0x76
	KEY_F8  KeyCode = 0x77
	KEY_F9  KeyCode = 0x78
	KEY_F10 KeyCode = 0x79
	KEY_F11 KeyCode = 0x7A
	KEY_F12 KeyCode = 0x7B

	KEY_LSHIFT   KeyCode = 0xA0
	KEY_RSHIFT   KeyCode = 0xA1
	KEY_LCONTROL KeyCode = 0xA2
	KEY_RCONTROL KeyCode = 0xA3

	KEYS_MAX_KEYS KeyCode = 0xFF
)

var keyNames = map[string]KeyCode{
	"backspace": KEY_BACKSPACE,
	"tab":       KEY_TAB,
	"enter":     KEY_ENTER,
	"escape":    KEY_ESCAPE,
	"space":     KEY_SPACE,
	"left":      KEY_LEFT,
	"up":        KEY_UP,
	"right":     KEY_RIGHT,
	"down":      KEY_DOWN,
	"lshift":    KEY_LSHIFT,
	"rshift":    KEY_RSHIFT,
	"lcontrol":  KEY_LCONTROL,
	"rcontrol":  KEY_RCONTROL,
}

// KeyCodeFromName resolves a binding name such as "space", "tab", "w" or
// "f5" to its key code.
func KeyCodeFromName(name string) (KeyCode, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if k, ok := keyNames[n]; ok {
		return k, nil
	}
	if len(n) == 1 && n[0] >= 'a' && n[0] <= 'z' {
		return KEY_A + KeyCode(n[0]-'a'), nil
	}
	var f int
	if _, err := fmt.Sscanf(n, "f%d", &f); err == nil && f >= 1 && f <= 12 {
		return KEY_F1 + KeyCode(f-1), nil
	}
	return KEY_UNKNOWN, fmt.Errorf("unknown key name %q", name)
}

// Keyboard state structure
type KeyboardState struct {
	Keys [KEYS_MAX_KEYS + 1]bool
}

// Input state structure that holds current and previous keyboard states
type InputState struct {
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
}

var onceInput sync.Once
var inputInitialized bool = false
var inputState *InputState = nil

func InputInitialize() error {
	onceInput.Do(func() {
		inputState = &InputState{}
		inputInitialized = true
	})
	LogInfo("Input subsystem initialized.")
	return nil
}

// InputUpdate copies current states to previous states. Called once per frame.
func InputUpdate() {
	if !inputInitialized {
		return
	}
	inputState.KeyboardPrevious = inputState.KeyboardCurrent
}

func InputIsKeyDown(key KeyCode) bool {
	if !inputInitialized {
		return false
	}
	return inputState.KeyboardCurrent.Keys[key]
}

func InputWasKeyDown(key KeyCode) bool {
	if !inputInitialized {
		return false
	}
	return inputState.KeyboardPrevious.Keys[key]
}

// InputProcessKey records a key transition and fires the matching event.
// Repeats of the same state are dropped.
func InputProcessKey(key KeyCode, pressed bool) {
	if !inputInitialized || key > KEYS_MAX_KEYS {
		return
	}
	if inputState.KeyboardCurrent.Keys[key] == pressed {
		return
	}
	inputState.KeyboardCurrent.Keys[key] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	EventFire(EventContext{
		Type: code,
		Data: &KeyEvent{KeyCode: key},
	})
}
