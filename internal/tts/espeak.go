package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int
vox_init(void)
{
	return espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
}

static int
vox_voice_count(void)
{
	const espeak_VOICE **v = espeak_ListVoices(NULL);
	int n = 0;
	if (!v)
	{ return 0; }
	while (v[n])
	{ n++; }
	return n;
}

static const espeak_VOICE *
vox_voice_at(int i)
{
	return espeak_ListVoices(NULL)[i];
}

static int
vox_say(const char *text, size_t size)
{
	int rc = espeak_Synth(text, size, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	if (rc != EE_OK)
	{ return rc; }
	return espeak_Synchronize();
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"voxchat/internal/speech"
)

// Espeak drives espeak-ng in synchronous playback mode.
type Espeak struct {
	mu     sync.Mutex
	closed bool
}

// NewEspeak initializes the espeak-ng library. Only one instance should
// exist per process.
func NewEspeak() (*Espeak, error) {
	if rc := C.vox_init(); rc < 0 {
		return nil, fmt.Errorf("espeak_Initialize failed: %d", int(rc))
	}
	return &Espeak{}, nil
}

func (e *Espeak) Voices() ([]speech.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errClosed
	}

	n := int(C.vox_voice_count())
	out := make([]speech.Voice, 0, n)
	for i := 0; i < n; i++ {
		v := C.vox_voice_at(C.int(i))
		if v == nil {
			continue
		}
		out = append(out, speech.Voice{
			ID:        C.GoString(v.identifier),
			Name:      C.GoString(v.name),
			Languages: parseLanguages(v.languages),
		})
	}
	return out, nil
}

// parseLanguages walks espeak's packed list: a priority byte followed by a
// NUL-terminated language name, repeated, ending with a zero priority.
func parseLanguages(p *C.char) []string {
	if p == nil {
		return nil
	}
	var langs []string
	ptr := unsafe.Pointer(p)
	for {
		if *(*C.char)(ptr) == 0 {
			break
		}
		ptr = unsafe.Add(ptr, 1)
		lang := C.GoString((*C.char)(ptr))
		langs = append(langs, lang)
		ptr = unsafe.Add(ptr, len(lang)+1)
	}
	return langs
}

func (e *Espeak) SetVoice(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed
	}

	cid := C.CString(id)
	defer C.free(unsafe.Pointer(cid))

	if rc := C.espeak_SetVoiceByName(cid); rc != C.EE_OK {
		return fmt.Errorf("espeak_SetVoiceByName(%q) failed: %d", id, int(rc))
	}
	return nil
}

func (e *Espeak) SetRate(wpm int) error {
	return e.setParameter(C.espeakRATE, wpm)
}

// SetVolume takes 0..1 and maps it onto espeak's 0..100 normal range.
func (e *Espeak) SetVolume(v float64) error {
	return e.setParameter(C.espeakVOLUME, int(v*100))
}

func (e *Espeak) setParameter(p C.espeak_PARAMETER, value int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed
	}
	if rc := C.espeak_SetParameter(p, C.int(value), 0); rc != C.EE_OK {
		return fmt.Errorf("espeak_SetParameter(%d, %d) failed: %d", int(p), value, int(rc))
	}
	return nil
}

func (e *Espeak) Say(text string) error {
	if text == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	if rc := C.vox_say(ctext, C.size_t(len(text)+1)); rc != C.EE_OK {
		return fmt.Errorf("espeak_Synth failed: %d", int(rc))
	}
	return nil
}

func (e *Espeak) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if rc := C.espeak_Terminate(); rc != C.EE_OK {
		return fmt.Errorf("espeak_Terminate failed: %d", int(rc))
	}
	return nil
}

var errClosed = errors.New("espeak: closed")

var _ speech.Engine = (*Espeak)(nil)
