package assistant

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateListening    State = "listening"
	StateCommandCheck State = "command_check"
	StateProcessing   State = "processing"
	StateSpeaking     State = "speaking"
	StateEnded        State = "ended"
)

const (
	EventGreet        Event = "greet"
	EventNoTranscript Event = "no_transcript"
	EventTranscript   Event = "transcript"
	EventExit         Event = "exit"
	EventReset        Event = "reset"
	EventQuery        Event = "query"
	EventReply        Event = "reply"
	EventFail         Event = "fail"
	EventSpoken       Event = "spoken"
	EventFinish       Event = "finish"
	EventInterrupt    Event = "interrupt"
)

// Transition returns the state reached from current on event. Interrupt
// ends the loop from any live state.
func Transition(current State, event Event) (State, error) {
	if event == EventInterrupt && current != StateEnded {
		return StateEnded, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventGreet:
			return StateSpeaking, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventNoTranscript:
			return StateListening, nil
		case EventTranscript:
			return StateCommandCheck, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCommandCheck:
		switch event {
		case EventExit, EventReset:
			return StateSpeaking, nil
		case EventQuery:
			return StateProcessing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateProcessing:
		switch event {
		case EventReply, EventFail:
			return StateSpeaking, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSpeaking:
		switch event {
		case EventSpoken:
			return StateListening, nil
		case EventFinish:
			return StateEnded, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateEnded:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
