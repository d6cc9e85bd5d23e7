package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/pion/logging"

	"gomos/civil"
	"gomos/host/agon"
	"gomos/host/config"
	"gomos/host/sim"
	"gomos/mos"
)

var (
	device     = flag.String("device", "", "Serial device path")
	baud       = flag.Int("baud", 0, "Baud rate (MOS console default is 115200)")
	configPath = flag.String("config", "", "JSON configuration file")
	simulate   = flag.Bool("sim", false, "Talk to an in-process simulator instead of hardware")
	verbose    = flag.Bool("v", false, "Enable protocol logging")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loggerFactory := logging.NewDefaultLoggerFactory()
	if cfg.Verbose {
		loggerFactory.DefaultLogLevel = logging.LogLevelDebug
	}

	var (
		client  *agon.Client
		machine *sim.Machine
	)
	if *simulate {
		machine = sim.NewMachine()
		hostEnd, devEnd := net.Pipe()
		go machine.Serve(devEnd)
		client = agon.NewClient(hostEnd, loggerFactory)
		err = client.Identify()
	} else {
		fmt.Printf("Connecting to %s...\n", cfg.Device)
		client, err = agon.Connect(cfg.SerialConfig(), loggerFactory)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	client.SetTimeout(cfg.CallTimeout())

	fmt.Printf("Connected: %s\n", client.Firmware())
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")

	// In simulator mode the machine's display output lands in a buffer;
	// echo anything new after each command so dir and oscli are visible.
	consoleSeen := 0
	flushConsole := func() {
		if machine == nil {
			return
		}
		out := machine.Console()
		if len(out) > consoleSeen {
			fmt.Print(strings.ReplaceAll(out[consoleSeen:], "\r\n", "\n"))
			consoleSeen = len(out)
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(parts) == 0 {
			continue
		}

		if parts[0] == "quit" || parts[0] == "exit" || parts[0] == "q" {
			fmt.Println("Goodbye!")
			return
		}
		if err := dispatch(client, parts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		flushConsole()
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the defaults, the optional JSON file, and the flags,
// with flags winning.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, err
		}
		cfg, err = config.LoadConfig(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", *configPath, err)
		}
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if *verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func dispatch(client *agon.Client, parts []string) error {
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "help", "?":
		printHelp()
		return nil

	case "rtc":
		text, err := client.RTC()
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil

	case "setrtc":
		if len(args) != 1 {
			return fmt.Errorf("usage: setrtc <unix seconds>|now")
		}
		return cmdSetRTC(client, args[0])

	case "time":
		if len(args) != 1 {
			return fmt.Errorf("usage: time <unix seconds>")
		}
		return cmdTime(args[0])

	case "uptime":
		up, err := client.Uptime()
		if err != nil {
			return err
		}
		fmt.Printf("Uptime: %v\n", up)
		return nil

	case "sysvars":
		return cmdSysVars(client)

	case "dir":
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return client.Dir(path)

	case "type":
		if len(args) != 1 {
			return fmt.Errorf("usage: type <file>")
		}
		return cmdType(client, args[0])

	case "put":
		if len(args) < 2 {
			return fmt.Errorf("usage: put <file> <text>")
		}
		return cmdPut(client, args[0], strings.Join(args[1:], " "))

	case "del":
		if len(args) != 1 {
			return fmt.Errorf("usage: del <file>")
		}
		return client.Delete(args[0])

	case "ren":
		if len(args) != 2 {
			return fmt.Errorf("usage: ren <old> <new>")
		}
		return client.Rename(args[0], args[1])

	case "copy":
		if len(args) != 2 {
			return fmt.Errorf("usage: copy <src> <dst>")
		}
		return client.Copy(args[0], args[1])

	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("usage: mkdir <dir>")
		}
		return client.MkDir(args[0])

	case "cd":
		if len(args) != 1 {
			return fmt.Errorf("usage: cd <dir>")
		}
		return client.ChangeDir(args[0])

	case "oscli":
		if len(args) == 0 {
			return fmt.Errorf("usage: oscli <command>")
		}
		return client.OSCLI(strings.Join(args, " "))

	case "err":
		if len(args) != 1 {
			return fmt.Errorf("usage: err <code>")
		}
		return cmdErr(client, args[0])

	default:
		return fmt.Errorf("unknown command %q (type 'help' for available commands)", cmd)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help                 - Show this help message")
	fmt.Println("  rtc                  - Read the machine's clock")
	fmt.Println("  setrtc <unix>|now    - Set the machine's clock")
	fmt.Println("  time <unix>          - Convert Unix seconds to a calendar date")
	fmt.Println("  uptime               - Time since the machine booted")
	fmt.Println("  sysvars              - Dump the system variable area")
	fmt.Println("  dir [path]           - List a directory on the machine's display")
	fmt.Println("  type <file>          - Print a file's contents")
	fmt.Println("  put <file> <text>    - Write text to a file")
	fmt.Println("  del <file>           - Delete a file")
	fmt.Println("  ren <old> <new>      - Rename a file")
	fmt.Println("  copy <src> <dst>     - Copy a file")
	fmt.Println("  mkdir <dir>          - Create a directory")
	fmt.Println("  cd <dir>             - Change the current directory")
	fmt.Println("  oscli <command>      - Run a MOS star command")
	fmt.Println("  err <code>           - Show the message for an error code")
	fmt.Println("  quit/exit/q          - Exit the program")
	fmt.Println()
}

func cmdSetRTC(client *agon.Client, arg string) error {
	var t civil.Time
	var err error
	if arg == "now" {
		now := time.Now()
		year, month, day := now.Date()
		hour, min, sec := now.Clock()
		t, err = civil.Date(year, month, day, hour, min, sec)
	} else {
		var unix int64
		unix, err = strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("bad unix time %q", arg)
		}
		t, err = civil.FromUnix(unix)
	}
	if err != nil {
		return err
	}
	if err := client.SetRTC(t); err != nil {
		return err
	}
	fmt.Printf("Clock set to %s\n", t)
	return nil
}

func cmdTime(arg string) error {
	unix, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("bad unix time %q", arg)
	}
	t, err := civil.FromUnix(unix)
	if err != nil {
		return err
	}
	fmt.Printf("%d -> %s (%s, day %d of the year)\n", unix, t, t.Weekday, t.YearDay+1)
	return nil
}

func cmdSysVars(client *agon.Client) error {
	vars, err := client.SysVars()
	if err != nil {
		return err
	}

	width, height := vars.ScreenSize()
	cols, rows := vars.TextSize()
	fmt.Printf("Uptime:   %v (%d ticks)\n", vars.Uptime(), vars.Time())
	fmt.Printf("Screen:   %dx%d pixels, %dx%d text, %d colours\n",
		width, height, cols, rows, vars.Colours())
	fmt.Printf("VDP:      flags %#02x\n", uint8(vars.VDPFlags()))
	fmt.Printf("Keyboard: delay %dms, rate %dms", vars.KeyDelay(), vars.KeyRate())
	if key := vars.KeyASCII(); key != 0 {
		fmt.Printf(", key %q down", key)
	}
	fmt.Println()
	rtcRaw := vars.RTC()
	if rtc, err := mos.UnpackTimeData(rtcRaw[:mos.TimeDataSize]); err == nil {
		fmt.Printf("RTC:      %s\n", rtc)
	}
	return nil
}

func cmdType(client *agon.Client, name string) error {
	f, err := client.Open(name, mos.ModeRead)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	os.Stdout.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

func cmdPut(client *agon.Client, name, text string) error {
	f, err := client.Open(name, mos.ModeWrite|mos.ModeCreateAlways)
	if err != nil {
		return err
	}
	if _, err := f.Write([]byte(text)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(text), name)
	return nil
}

func cmdErr(client *agon.Client, arg string) error {
	code, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return fmt.Errorf("bad error code %q", arg)
	}
	text, err := client.ErrorText(mos.Result(code))
	if err != nil {
		return err
	}
	fmt.Printf("%d: %s\n", code, text)
	return nil
}
