package fifo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	mrand "math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ardnew/wrn/device/hal"
	"github.com/ardnew/wrn/pkg"
)

// FIFO file names, created inside a per-device subdirectory of the shared
// bus directory so more than one simulated device can coexist.
const (
	fifoUARTHostToDevice = "uart_host_to_device" // device reads host commands here
	fifoUARTDeviceToHost = "uart_device_to_host" // device writes responses here
	fifoRadio            = "radio_in"            // scripted inbound radio frames
)

// radioFrameWireSize is the fixed size of one scripted radio frame: one
// type byte followed by the 16-byte payload body.
const radioFrameWireSize = 1 + 16

// HAL implements hal.DeviceHAL over named pipes, standing in for real UART,
// ADC, GPIO, radio, and clock peripherals so the firmware model can be
// exercised end-to-end without hardware. It is the reference HAL used by the
// simulator command and by integration tests.
type HAL struct {
	busDir    string
	deviceDir string
	uuid      string

	uartRead  *os.File
	uartWrite *os.File
	radioRead *os.File

	started   uint32
	startTime time.Time

	mutex     sync.Mutex
	wallClock int32
	resetHigh bool
	interlock bool

	adcSource *mrand.Rand

	closeCh   chan struct{}
	closeOnce sync.Once
}

// New returns a HAL that will create its device subdirectory under busDir
// once Init is called.
func New(busDir string) *HAL {
	return &HAL{
		busDir:    busDir,
		adcSource: mrand.New(mrand.NewSource(time.Now().UnixNano())),
		closeCh:   make(chan struct{}),
	}
}

func generateUUID() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	raw[6] = (raw[6] & 0x0f) | 0x40
	raw[8] = (raw[8] & 0x3f) | 0x80
	return hex.EncodeToString(raw[:]), nil
}

// Init creates the device subdirectory and its FIFOs.
func (h *HAL) Init() error {
	uuid, err := generateUUID()
	if err != nil {
		return fmt.Errorf("generate uuid: %w", err)
	}
	h.uuid = uuid
	h.deviceDir = filepath.Join(h.busDir, "device-"+uuid)

	if err := os.MkdirAll(h.deviceDir, 0o755); err != nil {
		return fmt.Errorf("create device dir: %w", err)
	}

	for _, name := range []string{fifoUARTHostToDevice, fifoUARTDeviceToHost, fifoRadio} {
		if err := h.createFIFO(name); err != nil {
			return err
		}
	}

	h.uartRead, err = h.openFIFO(fifoUARTHostToDevice, os.O_RDWR|syscall.O_NONBLOCK)
	if err != nil {
		h.cleanup()
		return err
	}
	h.uartWrite, err = h.openFIFO(fifoUARTDeviceToHost, os.O_RDWR|syscall.O_NONBLOCK)
	if err != nil {
		h.cleanup()
		return err
	}
	h.radioRead, err = h.openFIFO(fifoRadio, os.O_RDWR|syscall.O_NONBLOCK)
	if err != nil {
		h.cleanup()
		return err
	}

	pkg.LogInfo(pkg.ComponentFIFO, "simulated device HAL initialized",
		"deviceDir", h.deviceDir, "uuid", h.uuid)
	return nil
}

// Start marks the HAL ready and resets the uptime clock.
func (h *HAL) Start() error {
	h.startTime = time.Now()
	atomic.StoreUint32(&h.started, 1)
	pkg.LogInfo(pkg.ComponentFIFO, "simulated device HAL started")
	return nil
}

// Stop tears down the FIFOs and removes the device directory.
func (h *HAL) Stop() error {
	atomic.StoreUint32(&h.started, 0)
	h.closeOnce.Do(func() { close(h.closeCh) })
	h.cleanup()
	pkg.LogInfo(pkg.ComponentFIFO, "simulated device HAL stopped")
	return nil
}

func (h *HAL) cleanup() {
	for _, f := range []*os.File{h.uartRead, h.uartWrite, h.radioRead} {
		if f != nil {
			f.Close()
		}
	}
	if h.deviceDir != "" {
		os.RemoveAll(h.deviceDir)
	}
}

// DeviceDir returns the device subdirectory path, useful for pointing a
// host-side HAL at this simulated device.
func (h *HAL) DeviceDir() string {
	return h.deviceDir
}

// Read implements hal.UART. It makes one non-blocking attempt and returns
// (0, nil) when nothing is pending, matching a real UART receive ring
// buffer with no complete bytes available.
func (h *HAL) Read(ctx context.Context, buf []byte) (int, error) {
	return readNonBlocking(h.uartRead, buf)
}

// Write implements hal.UART, writing the full buffer or failing.
func (h *HAL) Write(ctx context.Context, data []byte) (int, error) {
	return writeAll(ctx, h.closeCh, h.uartWrite, data)
}

// Sample implements hal.ADC with a pseudo-random noise source. This is
// simulation scaffolding, not part of the firmware model under test.
func (h *HAL) Sample(ctx context.Context) (uint8, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return uint8(h.adcSource.Intn(256)), nil
}

// SetResetLine implements hal.GPIO.
func (h *HAL) SetResetLine(high bool) error {
	h.mutex.Lock()
	h.resetHigh = high
	h.mutex.Unlock()
	pkg.LogDebug(pkg.ComponentFIFO, "reset line", "high", high)
	return nil
}

// ReleaseInterlock implements hal.GPIO.
func (h *HAL) ReleaseInterlock() error {
	h.mutex.Lock()
	h.interlock = true
	h.mutex.Unlock()
	pkg.LogDebug(pkg.ComponentFIFO, "programming interlock released")
	return nil
}

// Poll implements hal.Radio, decoding one scripted frame per call if the
// radio FIFO has one pending: a single type byte followed by a fixed
// 16-byte payload body.
func (h *HAL) Poll(ctx context.Context) (hal.RadioFrame, bool, error) {
	var raw [radioFrameWireSize]byte
	n, err := readNonBlocking(h.radioRead, raw[:])
	if err != nil {
		return hal.RadioFrame{}, false, err
	}
	if n == 0 {
		return hal.RadioFrame{}, false, nil
	}
	if n < radioFrameWireSize {
		pkg.LogWarn(pkg.ComponentFIFO, "short radio frame, dropping", "got", n)
		return hal.RadioFrame{}, false, nil
	}
	frame := hal.RadioFrame{Type: raw[0], PayloadLen: radioFrameWireSize - 1}
	copy(frame.Payload[:], raw[1:])
	return frame, true, nil
}

// UptimeMillis implements hal.Clock.
func (h *HAL) UptimeMillis() uint32 {
	if atomic.LoadUint32(&h.started) == 0 {
		return 0
	}
	elapsed := time.Since(h.startTime).Milliseconds()
	if elapsed > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(elapsed)
}

// WallClockSeconds implements hal.Clock.
func (h *HAL) WallClockSeconds() int32 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.wallClock
}

// SetWallClockSeconds implements hal.Clock.
func (h *HAL) SetWallClockSeconds(t int32) {
	h.mutex.Lock()
	h.wallClock = t
	h.mutex.Unlock()
}

// VCC implements hal.Clock with a steady simulated supply voltage, in
// millivolts.
func (h *HAL) VCC() int32 {
	return 3300
}

// Pet implements hal.OnChipWatchdog. The simulator has no real MCU
// peripheral to feed; this only logs so a stalled loop is visible in traces.
func (h *HAL) Pet() error {
	pkg.LogDebug(pkg.ComponentFIFO, "on-chip watchdog pet")
	return nil
}

func (h *HAL) createFIFO(name string) error {
	path := filepath.Join(h.deviceDir, name)
	os.Remove(path)
	if err := syscall.Mkfifo(path, 0o666); err != nil {
		return fmt.Errorf("mkfifo %s: %w", name, err)
	}
	return nil
}

func (h *HAL) openFIFO(name string, flag int) (*os.File, error) {
	path := filepath.Join(h.deviceDir, name)
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// readNonBlocking makes a single best-effort read attempt against a
// non-blocking FIFO file descriptor, treating "nothing available" (a short
// read deadline timeout, or EOF from no writer currently holding the pipe
// open) as a clean zero-byte result rather than an error.
func readNonBlocking(f *os.File, buf []byte) (int, error) {
	if f == nil {
		return 0, pkg.ErrNotConnected
	}
	f.SetReadDeadline(time.Now().Add(5 * time.Millisecond))
	n, err := f.Read(buf)
	if err != nil {
		if os.IsTimeout(err) {
			return 0, nil
		}
		return n, nil
	}
	return n, nil
}

// writeAll writes the full buffer to f, retrying on transient non-blocking
// write errors until ctx is cancelled or the HAL is closed.
func writeAll(ctx context.Context, closeCh <-chan struct{}, f *os.File, data []byte) (int, error) {
	if f == nil {
		return 0, pkg.ErrNotConnected
	}
	written := 0
	for written < len(data) {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		case <-closeCh:
			return written, pkg.ErrUnexpectedClose
		default:
		}
		f.SetWriteDeadline(time.Now().Add(100 * time.Millisecond))
		n, err := f.Write(data[written:])
		written += n
		if err != nil && !os.IsTimeout(err) {
			return written, err
		}
	}
	return written, nil
}

// Compile-time interface check.
var _ hal.DeviceHAL = (*HAL)(nil)
