package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed. Data is *KeyEvent.
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released. Data is *KeyEvent.
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Framebuffer resized from the OS. Data is *SystemEvent.
	EVENT_CODE_RESIZED EventCode = 0x08

	// Content scale changed, the new framebuffer size is carried along.
	// Data is *SystemEvent.
	EVENT_CODE_SCALE_CHANGED EventCode = 0x09

	// A watched shader source changed on disk. Data is *AssetEvent.
	EVENT_CODE_SHADER_CHANGED EventCode = 0x0A

	MAX_EVENT_CODE EventCode = 0xFF
)

type KeyEvent struct {
	KeyCode KeyCode
}

type SystemEvent struct {
	Width  uint32
	Height uint32
	ScaleX float32
	ScaleY float32
}

type AssetEvent struct {
	Path string
}

type EventContext struct {
	Type EventCode
	Data interface{}
}

// Should return true if handled.
type FnOnEvent func(ctx EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventSystemState struct {
	registered [MAX_EVENT_CODE + 1][]*registeredEvent
}

var eventMu sync.Mutex
var eventState *eventSystemState = nil

func EventSystemInitialize() bool {
	eventMu.Lock()
	defer eventMu.Unlock()
	if eventState != nil {
		return false
	}
	eventState = &eventSystemState{}
	return true
}

func EventSystemShutdown() {
	eventMu.Lock()
	defer eventMu.Unlock()
	eventState = nil
}

// EventRegister adds a listener for code. A listener registered twice for
// the same code is rejected.
func EventRegister(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	eventMu.Lock()
	defer eventMu.Unlock()
	if eventState == nil || code > MAX_EVENT_CODE || onEvent == nil {
		return false
	}
	for _, e := range eventState.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	eventState.registered[code] = append(eventState.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

func EventUnregister(code EventCode, listener interface{}) bool {
	eventMu.Lock()
	defer eventMu.Unlock()
	if eventState == nil || code > MAX_EVENT_CODE {
		return false
	}
	events := eventState.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// EventFire delivers ctx to the listeners of ctx.Type in registration order.
// The first listener returning true stops the propagation. Callbacks run on
// the caller's goroutine.
func EventFire(ctx EventContext) bool {
	eventMu.Lock()
	if eventState == nil || ctx.Type > MAX_EVENT_CODE {
		eventMu.Unlock()
		return false
	}
	events := make([]*registeredEvent, len(eventState.registered[ctx.Type]))
	copy(events, eventState.registered[ctx.Type])
	eventMu.Unlock()

	for _, e := range events {
		if e.callback(ctx) {
			return true
		}
	}
	return false
}
