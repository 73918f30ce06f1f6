// main.go - Intuition Chip8 entry point

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
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"golang.org/x/term"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████\033[0m\n\033[38;2;255;50;147m▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀\033[0m\n\033[38;2;255;80;147m▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███\033[0m\n\033[38;2;255;110;147m░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄\033[0m\n\033[38;2;255;140;147m░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒\033[0m\n\033[38;2;255;170;147m░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░\033[0m\n\033[38;2;255;200;147m ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░\033[0m\n\033[38;2;255;230;147m ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░\033[0m\n\033[38;2;255;255;147m ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░\033[0m")
	fmt.Println("\nA CHIP-8 virtual machine from the Intuition Engine family.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionChip8")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

// cliOptions holds the flags that select an action instead of a run.
type cliOptions struct {
	features bool
	version  bool
}

func parseFlags(args []string) (Chip8Config, cliOptions, error) {
	cfg := DefaultChip8Config()
	var (
		opts     cliOptions
		mode     string
		video    string
		fg       string
		bg       string
		showHelp bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&mode, "mode", "legacy", "Shift quirk: legacy (cosmac, vip) or modern (amiga)")
	flagSet.IntVar(&cfg.IPS, "ips", DEFAULT_IPS, "Instructions per second")
	flagSet.IntVar(&cfg.Scale, "scale", DEFAULT_SCALE, "Window scale factor")
	flagSet.StringVar(&fg, "fg", "0xFFFFFF", "Foreground colour (RGB hex)")
	flagSet.StringVar(&bg, "bg", "0x000000", "Background colour (RGB hex)")
	flagSet.StringVar(&video, "video", "ebiten", "Video backend: ebiten, sdl, term, none")
	flagSet.BoolVar(&cfg.Mute, "mute", false, "Disable the beeper")
	flagSet.BoolVar(&cfg.Disasm, "disasm", false, "Print a disassembly of the ROM and exit")
	flagSet.BoolVar(&cfg.Monitor, "monitor", false, "Start frozen in the machine monitor on stdin")
	flagSet.BoolVar(&cfg.Debug, "debug", false, "Trace every instruction to stderr")
	flagSet.BoolVar(&opts.features, "features", false, "Print compiled features and exit")
	flagSet.BoolVar(&opts.version, "version", false, "Print version and exit")
	flagSet.BoolVar(&showHelp, "h", false, "Show help")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./intuition_chip8 [-mode legacy|modern] [-ips 700] [-video ebiten|sdl|term|none] [-monitor] filename")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			flagSet.Usage()
		}
		return cfg, opts, err
	}
	if showHelp {
		flagSet.Usage()
		return cfg, opts, flag.ErrHelp
	}

	var ok bool
	if cfg.Mode, ok = ParseChip8Mode(mode); !ok {
		return cfg, opts, fmt.Errorf("unknown mode %q", mode)
	}
	if cfg.Video, ok = ParseVideoBackend(video); !ok {
		return cfg, opts, fmt.Errorf("unknown video backend %q", video)
	}
	var err error
	if cfg.Foreground, err = parseColourFlag(fg); err != nil {
		return cfg, opts, fmt.Errorf("-fg: %w", err)
	}
	if cfg.Background, err = parseColourFlag(bg); err != nil {
		return cfg, opts, fmt.Errorf("-bg: %w", err)
	}
	cfg.ROM = flagSet.Arg(0)
	return cfg, opts, nil
}

func main() {
	cfg, opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case opts.features:
		printFeatures()
		return
	case opts.version:
		fmt.Printf("version: %s\n", Version)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Disasm {
		rom, err := os.ReadFile(cfg.ROM)
		if err != nil {
			fmt.Printf("Error reading program: %v\n", err)
			os.Exit(1)
		}
		if err := writeROMDisassembly(os.Stdout, rom, cfg.Mode); err != nil {
			os.Exit(1)
		}
		return
	}

	boilerPlate()
	if err := run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the VM to its host collaborators and blocks until the
// machine halts, the window closes or the process is interrupted.
func run(cfg Chip8Config) error {
	var vmOpts []Chip8Option
	if cfg.Debug {
		vmOpts = append(vmOpts, WithTrace(os.Stderr))
	}
	cpu := NewCPUChip8(cfg.Mode, vmOpts...)
	if err := cpu.LoadProgram(cfg.ROM); err != nil {
		return err
	}
	runner := NewChip8Runner(cpu, cfg.IPS)

	out, err := NewVideoOutput(cfg.Video)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.SetDisplayConfig(cfg.DisplayConfig()); err != nil {
		return err
	}
	runner.SetRenderer(NewDisplayPresenter(out))

	switch in := out.(type) {
	case InputSource:
		runner.SetInputSource(in)
	default:
		if !cfg.Monitor {
			host := NewTerminalHost()
			host.Start()
			defer host.Stop()
			runner.SetInputSource(host)
		}
	}

	audioName := "off"
	if !cfg.Mute {
		beeper, err := NewOtoBeeper(BEEP_SAMPLE_RATE)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audio: %v, continuing without sound\n", err)
		} else {
			beeper.Start()
			defer beeper.Close()
			runner.SetAudioSink(beeper)
			audioName = "oto"
		}
	}

	runtimeStatus.setRunner(runner)
	runtimeStatus.setBackends(videoBackendName(cfg.Video), audioName)
	runtimeStatus.setROM(filepath.Base(cfg.ROM))

	actions := NewEmulatorActions(runner)
	if h, ok := out.(interface{ SetHardResetHandler(func()) }); ok {
		h.SetHardResetHandler(actions.Reset)
	}

	if err := out.Start(); err != nil {
		return err
	}
	fmt.Printf("Starting CHIP-8 (%s, %d IPS) with program: %s\n\n", cfg.Mode, cfg.IPS, cfg.ROM)

	if cfg.Monitor {
		mon := NewMachineMonitor(NewDebugChip8(runner), os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
		if mon.Run(os.Stdin) {
			return nil
		}
	}
	runner.StartExecution()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var videoDone <-chan struct{}
	if d, ok := out.(interface{ Done() <-chan struct{} }); ok {
		videoDone = d.Done()
	}

	select {
	case <-runner.Done():
	case <-videoDone:
		actions.Quit()
		runner.Stop()
	case <-ctx.Done():
		runner.Stop()
	}
	return runner.Err()
}
