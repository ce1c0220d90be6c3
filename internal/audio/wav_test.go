package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWriteWAV(t *testing.T) {
	pcm := []byte{0x10, 0x00, 0x20, 0x00}
	var buf bytes.Buffer
	if err := writeWAV(&buf, pcm, 24000, 1, 16); err != nil {
		t.Fatalf("writeWAV() error = %v", err)
	}

	data := buf.Bytes()
	if len(data) != 44+len(pcm) {
		t.Fatalf("WAV length = %d, want %d", len(data), 44+len(pcm))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q %q %q", data[0:4], data[8:12], data[36:40])
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 24000 {
		t.Errorf("sample rate = %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[28:32]); got != 48000 {
		t.Errorf("byte rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d", got)
	}
	if !bytes.Equal(data[44:], pcm) {
		t.Error("PCM payload changed")
	}

	if err := writeWAV(&buf, nil, 24000, 1, 16); err == nil {
		t.Error("writeWAV() with no data expected error")
	}
}
