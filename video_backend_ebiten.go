//go:build !headless

// video_backend_ebiten.go - Ebiten video backend

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionChip8
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

func init() {
	compiledFeatures = append(compiledFeatures, "video:ebiten")
}

// ebitenKeyLayout maps CHIP-8 key n to the host key at index n.
var ebitenKeyLayout = [NUM_KEYS]ebiten.Key{
	ebiten.KeyX, ebiten.Key1, ebiten.Key2, ebiten.Key3,
	ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyA,
	ebiten.KeyS, ebiten.KeyD, ebiten.KeyZ, ebiten.KeyC,
	ebiten.Key4, ebiten.KeyR, ebiten.KeyF, ebiten.KeyV,
}

type EbitenOutput struct {
	running     bool
	window      *ebiten.Image
	width       int
	height      int
	fullscreen  bool
	scale       int
	fg          uint32
	bg          uint32
	frameBuffer []byte
	bufferMutex sync.RWMutex
	frameCount  uint64
	refreshRate int
	vsyncChan   chan struct{}
	done        chan struct{}

	keyMask atomic.Uint32
	events  chan HostEvent

	clipboardOnce sync.Once
	clipboardOK   bool
	showStatusBar bool

	taps      []int // pasted keys still to be typed, Update goroutine only
	tapFrames int

	hardResetHandler func()
	resetInProgress  atomic.Bool
}

func NewEbitenOutput() (VideoOutput, error) {
	cfg := DefaultDisplayConfig()
	return &EbitenOutput{
		width:         cfg.Width,
		height:        cfg.Height,
		scale:         cfg.Scale,
		fg:            cfg.Foreground,
		bg:            cfg.Background,
		frameBuffer:   make([]byte, cfg.Width*cfg.Height*4),
		refreshRate:   cfg.RefreshRate,
		vsyncChan:     make(chan struct{}, 1),
		done:          make(chan struct{}),
		events:        make(chan HostEvent, 8),
		showStatusBar: true,
	}, nil
}

func (eo *EbitenOutput) Start() error {
	if eo.running {
		return nil
	}
	eo.bufferMutex.Lock()
	eo.done = make(chan struct{})
	eo.bufferMutex.Unlock()
	eo.running = true
	ebiten.SetWindowSize(eo.width*eo.scale, eo.height*eo.scale)
	ebiten.SetWindowTitle("Intuition Chip8 (c) 2024 - 2026 Zayn Otley")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if eo.fullscreen {
		ebiten.SetFullscreen(true)
	}

	go func() {
		defer func() {
			eo.running = false
			eo.bufferMutex.RLock()
			done := eo.done
			eo.bufferMutex.RUnlock()
			select {
			case <-done:
			default:
				close(done)
			}
		}()
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()

	// Wait for first Draw call to ensure Ebiten is ready
	<-eo.vsyncChan
	return nil
}

func (eo *EbitenOutput) Stop() error {
	eo.running = false
	return nil
}

func (eo *EbitenOutput) Close() error {
	return eo.Stop()
}

// Done is closed when the window goes away.
func (eo *EbitenOutput) Done() <-chan struct{} {
	eo.bufferMutex.RLock()
	done := eo.done
	eo.bufferMutex.RUnlock()
	return done
}

func (eo *EbitenOutput) UpdateFrame(data []byte) error {
	eo.bufferMutex.Lock()
	copy(eo.frameBuffer, data)
	eo.bufferMutex.Unlock()
	return nil
}

func (eo *EbitenOutput) SetDisplayConfig(config DisplayConfig) error {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()

	if config.Width != DISPLAY_WIDTH || config.Height != DISPLAY_HEIGHT {
		return &VideoError{
			Operation: "configure",
			Details:   fmt.Sprintf("unsupported geometry %dx%d", config.Width, config.Height),
		}
	}
	eo.scale = ClampScale(config.Scale)
	eo.fg = config.Foreground
	eo.bg = config.Background
	eo.fullscreen = config.Fullscreen
	if eo.running {
		ebiten.SetFullscreen(eo.fullscreen)
		if !eo.fullscreen {
			ebiten.SetWindowSize(eo.width*eo.scale, eo.height*eo.scale)
		}
	}
	return nil
}

func (eo *EbitenOutput) GetDisplayConfig() DisplayConfig {
	eo.bufferMutex.RLock()
	defer eo.bufferMutex.RUnlock()
	return DisplayConfig{
		Width:       eo.width,
		Height:      eo.height,
		Scale:       eo.scale,
		RefreshRate: eo.refreshRate,
		Foreground:  eo.fg,
		Background:  eo.bg,
		Fullscreen:  eo.fullscreen,
	}
}

func (eo *EbitenOutput) GetFrameCount() uint64 {
	return eo.frameCount
}

func (eo *EbitenOutput) GetRefreshRate() int {
	return eo.refreshRate
}

func (eo *EbitenOutput) GetSnapshot() (FrameSnapshot, error) {
	eo.bufferMutex.RLock()
	defer eo.bufferMutex.RUnlock()

	snapshot := FrameSnapshot{
		Buffer:    make([]byte, len(eo.frameBuffer)),
		Width:     eo.width,
		Height:    eo.height,
		Timestamp: time.Now(),
	}
	copy(snapshot.Buffer, eo.frameBuffer)
	return snapshot, nil
}

func (eo *EbitenOutput) IsStarted() bool {
	return eo.running
}

// Poll publishes the key state sampled by the last Update and returns
// one queued host event.
func (eo *EbitenOutput) Poll(keypad *Chip8Keypad) HostEvent {
	mask := eo.keyMask.Load()
	for i := 0; i < NUM_KEYS; i++ {
		keypad.Set(i, mask&(1<<i) != 0)
	}
	select {
	case ev := <-eo.events:
		return ev
	default:
		return HostEvent{}
	}
}

func (eo *EbitenOutput) postEvent(ev HostEvent) {
	select {
	case eo.events <- ev:
	default:
	}
}

// Reset clears the frame to the background colour.
func (eo *EbitenOutput) Reset() {
	eo.bufferMutex.Lock()
	for i := 0; i < len(eo.frameBuffer); i += 4 {
		eo.frameBuffer[i] = byte(eo.bg >> 16)
		eo.frameBuffer[i+1] = byte(eo.bg >> 8)
		eo.frameBuffer[i+2] = byte(eo.bg)
		eo.frameBuffer[i+3] = 0xFF
	}
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) Update() error {
	if ebiten.IsWindowBeingClosed() {
		eo.postEvent(HostEvent{Type: EventQuit})
		return ebiten.Termination
	}
	if !eo.running {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		eo.postEvent(HostEvent{Type: EventQuit})
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		eo.postEvent(HostEvent{Type: EventPause})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		eo.bufferMutex.Lock()
		eo.fullscreen = !eo.fullscreen
		ebiten.SetFullscreen(eo.fullscreen)
		if !eo.fullscreen {
			ebiten.SetWindowSize(eo.width*eo.scale, eo.height*eo.scale)
		}
		eo.bufferMutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		if eo.resetInProgress.CompareAndSwap(false, true) {
			eo.bufferMutex.RLock()
			handler := eo.hardResetHandler
			eo.bufferMutex.RUnlock()
			if handler != nil {
				go func() {
					defer eo.resetInProgress.Store(false)
					handler()
				}()
			} else {
				eo.resetInProgress.Store(false)
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		eo.bufferMutex.Lock()
		eo.showStatusBar = !eo.showStatusBar
		eo.bufferMutex.Unlock()
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyC) {
		eo.copyScreenToClipboard()
	}
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		eo.pasteKeysFromClipboard()
	}

	eo.handleDroppedFiles()
	eo.keyMask.Store(scanKeyMask(ebiten.IsKeyPressed) | eo.nextTap())
	return nil
}

// Pasted keys are held for PASTE_HOLD_FRAMES and released for as long
// again, so FX0A sees a full press and release.
const PASTE_HOLD_FRAMES = 4

func (eo *EbitenOutput) nextTap() uint32 {
	if len(eo.taps) == 0 {
		return 0
	}
	eo.tapFrames++
	if eo.tapFrames > 2*PASTE_HOLD_FRAMES {
		eo.taps = eo.taps[1:]
		eo.tapFrames = 0
		return 0
	}
	if eo.tapFrames > PASTE_HOLD_FRAMES {
		return 0
	}
	return 1 << eo.taps[0]
}

func (eo *EbitenOutput) pasteKeysFromClipboard() {
	if !eo.initClipboard() {
		return
	}
	eo.taps = append(eo.taps, parseKeyTaps(string(clipboard.Read(clipboard.FmtText)))...)
}

// parseKeyTaps turns pasted text into a key sequence. Hex digits map to
// keys 0-F; anything else is skipped.
func parseKeyTaps(s string) []int {
	var taps []int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			taps = append(taps, int(r-'0'))
		case r >= 'a' && r <= 'f':
			taps = append(taps, int(r-'a')+10)
		case r >= 'A' && r <= 'F':
			taps = append(taps, int(r-'A')+10)
		}
	}
	return taps
}

// scanKeyMask samples the 4x4 block of host keys into a CHIP-8 key mask.
func scanKeyMask(pressed func(ebiten.Key) bool) uint32 {
	var mask uint32
	for i, key := range ebitenKeyLayout {
		if pressed(key) {
			mask |= 1 << i
		}
	}
	return mask
}

func (eo *EbitenOutput) SetHardResetHandler(fn func()) {
	eo.bufferMutex.Lock()
	eo.hardResetHandler = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) initClipboard() bool {
	eo.clipboardOnce.Do(func() {
		eo.clipboardOK = clipboard.Init() == nil
	})
	return eo.clipboardOK
}

func (eo *EbitenOutput) copyScreenToClipboard() {
	if !eo.initClipboard() {
		return
	}
	snap, err := eo.GetSnapshot()
	if err != nil {
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(snap.Text(eo.bg)))
}

// handleDroppedFiles loads the first regular file dropped on the window
// as a new program.
func (eo *EbitenOutput) handleDroppedFiles() {
	files := ebiten.DroppedFiles()
	if files == nil {
		return
	}
	rom, name, err := firstDroppedROM(files)
	if err != nil {
		fmt.Printf("Drop ignored: %v\n", err)
		return
	}
	if rom == nil {
		return
	}
	runtimeStatus.setROM(name)
	eo.postEvent(HostEvent{Type: EventLoadProgram, Data: rom})
}

func firstDroppedROM(files fs.FS) ([]byte, string, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f, err := files.Open(e.Name())
		if err != nil {
			return nil, "", err
		}
		rom, err := io.ReadAll(io.LimitReader(f, CHIP8_MAX_ROM_SIZE+1))
		f.Close()
		if err != nil {
			return nil, "", err
		}
		if len(rom) > CHIP8_MAX_ROM_SIZE {
			return nil, "", fmt.Errorf("%s: %w", e.Name(), ErrRomTooLarge)
		}
		return rom, e.Name(), nil
	}
	return nil, "", nil
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	if eo.window == nil {
		eo.window = ebiten.NewImage(eo.width, eo.height)
	}

	eo.bufferMutex.RLock()
	eo.window.WritePixels(eo.frameBuffer)
	showStatusBar := eo.showStatusBar
	scale := eo.scale
	eo.bufferMutex.RUnlock()

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(eo.window, opts)
	if showStatusBar {
		eo.drawRuntimeStatusBar(screen)
	}

	eo.frameCount++
	select {
	case eo.vsyncChan <- struct{}{}:
	default:
	}
}

func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	eo.bufferMutex.RLock()
	defer eo.bufferMutex.RUnlock()
	return eo.width * eo.scale, eo.height * eo.scale
}

type statusToken struct {
	name    string
	enabled bool
}

func drawStatusLine(screen *ebiten.Image, x, baselineY int, label string, tokens []statusToken) {
	face := basicfont.Face7x13
	labelColor := color.RGBA{190, 190, 190, 255}
	offColor := color.RGBA{120, 120, 120, 255}
	onColor := color.RGBA{0, 220, 90, 255}

	text.Draw(screen, label, face, x, baselineY, labelColor)
	cursorX := x + text.BoundString(face, label).Dx() + 6

	for _, token := range tokens {
		c := offColor
		if token.enabled {
			c = onColor
		}
		text.Draw(screen, token.name, face, cursorX, baselineY, c)
		cursorX += text.BoundString(face, token.name).Dx() + 8
	}
}

// statusTokens builds the two status bar rows from a runtime snapshot.
func statusTokens(s runtimeStatusSnapshot) (vm []statusToken, host []statusToken) {
	state := STATE_UNINITIALIZED
	mode := MODE_LEGACY_SHIFT
	sound := false
	if s.cpu != nil {
		state = s.cpu.State()
		mode = s.cpu.Mode
		sound = s.cpu.SoundActive()
	}
	ips := int64(0)
	if s.runner != nil {
		ips = s.runner.MeasuredIPS()
	}

	vm = []statusToken{
		{name: "RUN", enabled: state == STATE_RUNNING},
		{name: "|", enabled: false},
		{name: "PAUSE", enabled: state == STATE_PAUSED},
		{name: "|", enabled: false},
		{name: "HALT", enabled: state == STATE_HALTED},
		{name: "  ", enabled: false},
		{name: "VIP", enabled: mode == MODE_LEGACY_SHIFT},
		{name: "|", enabled: false},
		{name: "AMIGA", enabled: mode == MODE_MODERN_SHIFT},
	}
	host = []statusToken{
		{name: fmt.Sprintf("%d IPS", ips), enabled: state == STATE_RUNNING},
		{name: "|", enabled: false},
		{name: "BEEP", enabled: sound},
	}
	if s.romName != "" {
		host = append(host, statusToken{name: "|", enabled: false}, statusToken{name: s.romName, enabled: true})
	}
	return vm, host
}

func (eo *EbitenOutput) drawRuntimeStatusBar(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	barHeight := 30
	if barHeight*2 >= h {
		return
	}
	y := h - barHeight
	ebitenutil.DrawRect(screen, 0, float64(y), float64(w), float64(barHeight), color.RGBA{0, 0, 0, 180})

	vmTokens, hostTokens := statusTokens(runtimeStatus.snapshot())
	drawStatusLine(screen, 6, y+13, "CHIP8", vmTokens)
	drawStatusLine(screen, 6, y+26, "HOST ", hostTokens)

	legendColor := color.RGBA{160, 160, 160, 255}
	legend := "P Pause  F10 Reset  F11 Full  F12 Bar"
	legendW := text.BoundString(basicfont.Face7x13, legend).Dx()
	if legendW+200 > w {
		return
	}
	legendOpts := &ebiten.DrawImageOptions{}
	legendOpts.GeoM.Translate(float64(w-legendW-6), float64(y+26))
	legendOpts.ColorScale.ScaleWithColor(legendColor)
	text.DrawWithOptions(screen, legend, basicfont.Face7x13, legendOpts)
}
