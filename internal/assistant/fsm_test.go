package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	steps := []struct {
		event Event
		want  State
	}{
		{EventGreet, StateSpeaking},
		{EventSpoken, StateListening},
		{EventNoTranscript, StateListening},
		{EventTranscript, StateCommandCheck},
		{EventQuery, StateProcessing},
		{EventReply, StateSpeaking},
		{EventSpoken, StateListening},
		{EventTranscript, StateCommandCheck},
		{EventReset, StateSpeaking},
		{EventSpoken, StateListening},
		{EventTranscript, StateCommandCheck},
		{EventExit, StateSpeaking},
		{EventFinish, StateEnded},
	}

	state := StateIdle
	for _, step := range steps {
		next, err := Transition(state, step.event)
		require.NoError(t, err, "%s on %s", step.event, state)
		assert.Equal(t, step.want, next)
		state = next
	}
}

func TestTransitionFailureStillSpeaks(t *testing.T) {
	next, err := Transition(StateProcessing, EventFail)
	require.NoError(t, err)
	assert.Equal(t, StateSpeaking, next)
}

func TestTransitionInterruptFromAnyLiveState(t *testing.T) {
	for _, s := range []State{StateIdle, StateListening, StateCommandCheck, StateProcessing, StateSpeaking} {
		next, err := Transition(s, EventInterrupt)
		require.NoError(t, err)
		assert.Equal(t, StateEnded, next, s)
	}
}

func TestTransitionRejectsInvalid(t *testing.T) {
	cases := []struct {
		state State
		event Event
	}{
		{StateIdle, EventTranscript},
		{StateListening, EventReply},
		{StateCommandCheck, EventSpoken},
		{StateProcessing, EventQuery},
		{StateSpeaking, EventTranscript},
		{StateEnded, EventGreet},
		{StateEnded, EventInterrupt},
	}
	for _, tc := range cases {
		next, err := Transition(tc.state, tc.event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid transition")
		assert.Equal(t, tc.state, next)
	}

	_, err := Transition(State("bogus"), EventGreet)
	require.Error(t, err)
}
