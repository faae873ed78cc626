package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// DeviceConfig configures the malgo-backed capture and playback devices.
type DeviceConfig struct {
	SampleRate int
	FrameSize  int // samples per capture frame
}

// MalgoInput captures mono 16-bit PCM frames from the default microphone.
type MalgoInput struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	sampleRate int
	frameSize  int

	frames chan Frame

	mu      sync.Mutex
	pending []byte
	closed  bool
}

// NewMalgoInput opens the default capture device. A failure here is fatal
// to the engine; callers should wrap it in ErrInputUnavailable handling.
func NewMalgoInput(cfg DeviceConfig) (*MalgoInput, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init context: %v", ErrInputUnavailable, err)
	}

	in := &MalgoInput{
		ctx:        mctx,
		sampleRate: cfg.SampleRate,
		frameSize:  cfg.FrameSize,
		frames:     make(chan Frame, 32),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(outputSamples, inputSamples []byte, framecount uint32) {
			in.onCapture(inputSamples)
		},
	})
	if err != nil {
		mctx.Uninit()
		return nil, fmt.Errorf("%w: init capture device: %v", ErrInputUnavailable, err)
	}
	in.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return nil, fmt.Errorf("%w: start capture device: %v", ErrInputUnavailable, err)
	}

	return in, nil
}

// onCapture runs on the miniaudio thread. It accumulates samples until a
// full frame is available and then hands it off without blocking.
func (in *MalgoInput) onCapture(samples []byte) {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.pending = append(in.pending, samples...)

	frameBytes := in.frameSize * BytesPerSample
	var ready [][]byte
	for len(in.pending) >= frameBytes {
		frame := make([]byte, frameBytes)
		copy(frame, in.pending[:frameBytes])
		in.pending = in.pending[frameBytes:]
		ready = append(ready, frame)
	}
	in.mu.Unlock()

	for _, data := range ready {
		select {
		case in.frames <- Frame{Data: data, SampleRate: in.sampleRate, Timestamp: time.Now()}:
		default:
			// Consumer is behind; drop the oldest audio rather than block
			// the capture callback.
		}
	}
}

// ReadFrame implements Input.
func (in *MalgoInput) ReadFrame(ctx context.Context) (Frame, error) {
	select {
	case frame, ok := <-in.frames:
		if !ok {
			return Frame{}, ErrDeviceClosed
		}
		return frame, nil
	case <-ctx.Done():
		return Frame{}, ErrReadTimeout
	}
}

// SampleRate implements Input.
func (in *MalgoInput) SampleRate() int {
	return in.sampleRate
}

// Close implements Input.
func (in *MalgoInput) Close() error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	in.mu.Unlock()

	if in.device != nil {
		in.device.Stop()
		in.device.Uninit()
	}
	if in.ctx != nil {
		in.ctx.Uninit()
	}
	close(in.frames)
	return nil
}

// MalgoOutput renders queued 16-bit mono PCM on the default playback device.
type MalgoOutput struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu     sync.Mutex
	buffer []byte
	closed bool
}

// NewMalgoOutput opens the default playback device.
func NewMalgoOutput(cfg DeviceConfig) (*MalgoOutput, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init context: %v", ErrOutputUnavailable, err)
	}

	out := &MalgoOutput{ctx: mctx}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(outputSamples, inputSamples []byte, framecount uint32) {
			out.onRender(outputSamples)
		},
	})
	if err != nil {
		mctx.Uninit()
		return nil, fmt.Errorf("%w: init playback device: %v", ErrOutputUnavailable, err)
	}
	out.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return nil, fmt.Errorf("%w: start playback device: %v", ErrOutputUnavailable, err)
	}

	return out, nil
}

// onRender runs on the miniaudio thread and fills the output with queued
// audio, padding with silence when the queue runs dry.
func (out *MalgoOutput) onRender(outputSamples []byte) {
	out.mu.Lock()
	defer out.mu.Unlock()

	n := copy(outputSamples, out.buffer)
	out.buffer = out.buffer[n:]
	for i := n; i < len(outputSamples); i++ {
		outputSamples[i] = 0
	}
}

// PlayChunk implements Output.
func (out *MalgoOutput) PlayChunk(pcm []byte) error {
	out.mu.Lock()
	defer out.mu.Unlock()
	if out.closed {
		return ErrDeviceClosed
	}
	out.buffer = append(out.buffer, pcm...)
	return nil
}

// Cancel implements Output.
func (out *MalgoOutput) Cancel() {
	out.mu.Lock()
	defer out.mu.Unlock()
	out.buffer = out.buffer[:0]
}

// Drain implements Output.
func (out *MalgoOutput) Drain(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		out.mu.Lock()
		remaining := len(out.buffer)
		out.mu.Unlock()
		if remaining == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close implements Output.
func (out *MalgoOutput) Close() error {
	out.mu.Lock()
	if out.closed {
		out.mu.Unlock()
		return nil
	}
	out.closed = true
	out.buffer = nil
	out.mu.Unlock()

	if out.device != nil {
		out.device.Stop()
		out.device.Uninit()
	}
	if out.ctx != nil {
		out.ctx.Uninit()
	}
	return nil
}

var (
	_ Input  = (*MalgoInput)(nil)
	_ Output = (*MalgoOutput)(nil)
)
