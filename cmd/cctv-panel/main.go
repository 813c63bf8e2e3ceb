package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/blit"
	"github.com/BeatGlow/panel/framebuffer"
	"github.com/BeatGlow/panel/pixel"
	"github.com/BeatGlow/panel/termpanel"
)

func main() {
	spiPortFlag := flag.String("spi", "", "SPI port (default: use first available)")
	spiSpeedFlag := flag.Int64("spi-speed", int64(panel.DefaultSPIConfig.Speed/physic.Hertz), "SPI clock in Hz")
	resetPinFlag := flag.String("reset", "GPIO25", "Reset GPIO pin")
	dcPinFlag := flag.String("dc", "GPIO24", "Data/Command GPIO pin (DC)")
	csPinFlag := flag.String("cs", "", "Chip select GPIO pin, if not driven by the SPI port")
	tePinFlag := flag.String("te", "GPIO23", "Tearing effect GPIO pin, empty to disable")
	blPinFlag := flag.String("bl", "GPIO19", "Backlight GPIO pin")
	ledPinFlag := flag.String("led", "GPIO26", "Error indicator LED GPIO pin")
	formatFlag := flag.String("format", "rgb565", "Pixel format on the SPI link (rgb565 or rgb888)")
	fbDeviceFlag := flag.String("fb", "/dev/fb0", "Framebuffer device")
	colsFlag := flag.Int("cols", 80, "Terminal columns")
	imageFlag := flag.String("image", "", "Image to show (PNG or JPEG, default: test card)")
	captionFlag := flag.String("caption", "CCTV FEED", "Caption")
	infoFlag := flag.String("info", "THIS IS SHOWING YOUR FRONT DOOR|USE THE SWITCH BUTTON TO SWITCH VIEW", "Info lines below the caption, separated by |")
	buttonFlag := flag.String("button", "SWITCH FEED", "Button label")
	timeoutFlag := flag.Duration("timeout", panel.DefaultRefresherOptions.Timeout, "Refresh completion timeout, 0 to wait forever")
	intervalFlag := flag.Duration("interval", 0, "Minimum time between refreshes")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <spi|fb|term>\n", os.Args[0])
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		output panel.Display
		led    gpio.PinOut
		err    error
	)
	switch backend := strings.ToLower(flag.Arg(0)); backend {
	case "spi":
		if _, err = host.Init(); err != nil {
			fatal(err)
		}
		led = pin(*ledPinFlag)

		var format pixel.Format
		if format, err = parseFormat(*formatFlag); err != nil {
			halt(ctx, led, err)
		}
		var link panel.Link
		if link, err = panel.OpenSPI(&panel.SPIConfig{
			Port:      *spiPortFlag,
			Speed:     physic.Frequency(*spiSpeedFlag) * physic.Hertz,
			Mode:      panel.DefaultSPIConfig.Mode,
			BatchSize: panel.DefaultSPIConfig.BatchSize,
			Reset:     pin(*resetPinFlag),
			DC:        pin(*dcPinFlag),
			CS:        pin(*csPinFlag),
		}); err != nil {
			halt(ctx, led, err)
		}
		fmt.Printf("using connection: %s\n", link)

		config := &panel.Config{
			Format:    format,
			Backlight: pin(*blPinFlag),
		}
		if te := gpioreg.ByName(*tePinFlag); te != nil {
			config.TE = te
		}
		output, err = panel.DCS(link, config)
	case "fb":
		output, err = framebuffer.Open(*fbDeviceFlag, nil)
	case "term":
		output, err = termpanel.New(&termpanel.Opts{Columns: *colsFlag})
	default:
		err = fmt.Errorf("unsupported backend %q", backend)
	}
	if err != nil {
		halt(ctx, led, err)
	}
	fmt.Printf("using display: %s\n", output)

	if err = run(ctx, output, &options{
		Image:    *imageFlag,
		Caption:  *captionFlag,
		Info:     splitLines(*infoFlag),
		Button:   *buttonFlag,
		Timeout:  *timeoutFlag,
		Interval: *intervalFlag,
	}); err != nil {
		fatal(err)
	}
}

type options struct {
	Image    string
	Caption  string
	Info     []string
	Button   string
	Timeout  time.Duration
	Interval time.Duration
}

// run paints the scene and keeps the display refreshed until ctx is done. The
// display is closed before run returns.
func run(ctx context.Context, output panel.Display, opts *options) (err error) {
	defer func() {
		if cerr := output.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	view := &scene{
		Caption: opts.Caption,
		Info:    opts.Info,
		Button:  opts.Button,
	}
	if opts.Image != "" {
		if view.Image, err = loadImage(opts.Image); err != nil {
			return err
		}
	}

	var (
		blitter   = blit.New(blit.NewSoftware())
		refresher = panel.NewRefresher(output, &panel.RefresherOptions{
			Timeout:  opts.Timeout,
			Interval: opts.Interval,
		})
	)
	if err = refresher.Update(ctx, func(fb *pixel.ARGB8888Image) error {
		return view.paint(fb, blitter)
	}); err != nil {
		return err
	}

	fmt.Println("hit control-c to stop...")
	if err = refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Printf("stopped after %d frames\n", refresher.Frames())
	return nil
}

// pin looks up a GPIO pin by name, an empty name is no pin.
func pin(name string) gpio.PinIO {
	if name == "" {
		return nil
	}
	return gpioreg.ByName(name)
}

func parseFormat(name string) (pixel.Format, error) {
	switch strings.ToLower(name) {
	case "rgb565", "565", "16":
		return pixel.FormatRGB565, nil
	case "rgb888", "888", "24":
		return pixel.FormatRGB888, nil
	default:
		return 0, fmt.Errorf("invalid pixel format %q specified", name)
	}
}

// splitLines splits a |-separated flag value, an empty value is no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}

func loadImage(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}

// halt reports a failure to bring up the panel: the indicator LED is lit and
// the process waits to be signalled before exiting.
func halt(ctx context.Context, led gpio.PinOut, err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	if led == nil {
		os.Exit(1)
	}
	if lerr := led.Out(gpio.High); lerr != nil {
		fmt.Fprintln(os.Stderr, "error indicator: "+lerr.Error())
	}
	fmt.Fprintln(os.Stderr, "halted, hit control-c to exit...")
	<-ctx.Done()
	_ = led.Out(gpio.Low)
	os.Exit(1)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
