package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pactlOutput = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #42
	Volume: front-left: 52429 /  80% / -5.81 dB
	Properties:
		application.name = "voxchat"
Sink Input #bogus
	Volume: mono: 100%
`

type fakePactl struct {
	mu      sync.Mutex
	list    string
	listErr error
	sets    []string
}

func (f *fakePactl) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name != "pactl" {
		return nil, errors.New("unexpected command " + name)
	}
	if args[0] == "list" {
		return []byte(f.list), f.listErr
	}
	f.sets = append(f.sets, strings.Join(args[1:], " "))
	return nil, nil
}

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(pactlOutput)
	require.Len(t, got, 2)
	assert.Equal(t, sinkInput{ID: 41, Volume: 100, AppName: "Firefox"}, got[0])
	assert.Equal(t, sinkInput{ID: 42, Volume: 80, AppName: "voxchat"}, got[1])
	assert.Nil(t, parseSinkInputs(""))
}

func TestDuckAndRestoreSkipSelf(t *testing.T) {
	pactl := &fakePactl{list: pactlOutput}
	d := NewDucker([]string{"voxchat"}, 0.3, 10, 0).WithRunner(pactl.run)
	ctx := context.Background()

	require.NoError(t, d.Duck(ctx))
	assert.Equal(t, []string{"41 30%"}, pactl.sets)

	// second duck is a no-op
	require.NoError(t, d.Duck(ctx))
	assert.Len(t, pactl.sets, 1)

	pactl.list = strings.Replace(pactlOutput, "100%", "30%", 1)
	require.NoError(t, d.Restore(ctx))
	assert.Equal(t, []string{"41 30%", "41 100%"}, pactl.sets)

	require.NoError(t, d.Restore(ctx))
	assert.Len(t, pactl.sets, 2)
}

func TestDuckRespectsMinVolume(t *testing.T) {
	pactl := &fakePactl{list: pactlOutput}
	d := NewDucker(nil, 0.1, 50, 0).WithRunner(pactl.run)

	require.NoError(t, d.Duck(context.Background()))
	assert.ElementsMatch(t, []string{"41 50%", "42 50%"}, pactl.sets)
}

func TestDuckListError(t *testing.T) {
	pactl := &fakePactl{listErr: errors.New("no pulse")}
	d := NewDucker(nil, 0.3, 10, 0).WithRunner(pactl.run)

	err := d.Duck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pactl list sink-inputs")
}
