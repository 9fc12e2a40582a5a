package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"fyne.io/fyne/v2/app"
	"github.com/gogpu/gg"

	"DigitPad/internal/config"
	"DigitPad/internal/export"
	localnet "DigitPad/internal/net"
	"DigitPad/internal/recognizer"
	"DigitPad/internal/state"
	"DigitPad/internal/surface"
	"DigitPad/internal/ui"
)

const usage = `usage:
  digitpad                              open the drawing pad
  digitpad replay <file.json> [out.pdf] resend saved drawings without a window,
                                        optionally exporting the answers to a PDF`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Debug {
		gg.SetLogger(slog.Default())
	}

	args := os.Args
	switch {
	case len(args) == 1:
		runApp(cfg)
	case (len(args) == 3 || len(args) == 4) && args[1] == "replay":
		pdfPath := ""
		if len(args) == 4 {
			pdfPath = args[3]
		}
		if err := runReplay(cfg, args[2], pdfPath); err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func runApp(cfg config.Config) {
	log.Println("Starting DigitPad")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := newRecognizer(cfg)
	if err != nil {
		log.Fatalf("Failed to set up recognizer: %v", err)
	}

	a := app.New()
	results := ui.NewResultsLabel()
	var rep surface.Reporter = ui.LabelReporter{Label: results}
	if cfg.Report == "log" {
		rep = surface.LogReporter{}
	}
	rep = startFeed(ctx, cfg, rep)

	history := state.NewHistory()
	pad := surface.New(surfaceOptions(cfg), client, rep)
	defer pad.Close()
	pad.OnSubmission = history.Add

	win := ui.NewWindow(a, pad, history, results)
	win.ShowAndRun()
}

// runReplay feeds every saved drawing through a headless pad, one submission
// per drawing, and waits for the answers. A non-empty pdfPath receives the
// replayed submissions as a contact sheet.
func runReplay(cfg config.Config, path, pdfPath string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	subs, err := state.LoadSubmissions(f)
	f.Close()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := newRecognizer(cfg)
	if err != nil {
		return err
	}
	rep := startFeed(ctx, cfg, surface.LogReporter{})

	history := state.NewHistory()
	pad := surface.New(surfaceOptions(cfg), client, rep)
	defer pad.Close()
	pad.OnSubmission = history.Add

	for _, sub := range subs {
		replayStrokes(pad, sub.Strokes)
		pad.Flush()
	}
	pad.Wait()

	failed := 0
	for _, sub := range history.All() {
		if !sub.OK() {
			failed++
		}
	}
	log.Printf("Replayed %d drawings, %d sent, %d failed", len(subs), history.Len(), failed)

	if pdfPath == "" {
		return nil
	}
	if err := export.ExportPDF(pdfPath, history.All()); err != nil {
		return fmt.Errorf("export %s: %w", pdfPath, err)
	}
	log.Printf("Exported replay to %s", pdfPath)
	return nil
}

func replayStrokes(pad *surface.Surface, strokes []state.Stroke) {
	for _, st := range strokes {
		if len(st.Points) == 0 {
			continue
		}
		pad.PointerMove(st.Points[0].X, st.Points[0].Y)
		pad.PointerDown()
		for _, pt := range st.Points[1:] {
			pad.PointerMove(pt.X, pt.Y)
		}
		pad.PointerUp()
	}
}

func newRecognizer(cfg config.Config) (*recognizer.Client, error) {
	endpoint := cfg.Endpoint
	if cfg.UsesMDNS() {
		found, err := localnet.DiscoverRecognizer(cfg.DiscoverTimeout())
		if err != nil {
			return nil, err
		}
		endpoint = found
	}
	payload, err := recognizer.ParsePayload(cfg.Payload)
	if err != nil {
		return nil, err
	}

	client := recognizer.NewClient(endpoint)
	client.UploadPath = cfg.UploadPath
	client.Payload = payload
	client.ExpectLabel = cfg.ExpectLabel
	client.HTTPClient.Timeout = cfg.Timeout()
	log.Printf("Recognizer endpoint: %s%s (%s)", endpoint, cfg.UploadPath, payload)
	return client, nil
}

func surfaceOptions(cfg config.Config) surface.Options {
	bg, err := surface.ParseBackground(cfg.Background)
	if err != nil {
		log.Printf("%v, using white", err)
	}
	opts := surface.DefaultOptions()
	opts.Width = cfg.Width
	opts.Height = cfg.Height
	opts.StrokeWidth = cfg.StrokeWidth
	opts.Debounce = cfg.Debounce()
	opts.Background = bg
	opts.RequireContent = cfg.RequireContent
	opts.RequestTimeout = cfg.Timeout()
	return opts
}

// startFeed runs the websocket status feed when configured and returns rep
// extended with it.
func startFeed(ctx context.Context, cfg config.Config, rep surface.Reporter) surface.Reporter {
	if cfg.StatusAddr == "" {
		return rep
	}
	hub := localnet.NewStatusHub()
	go func() {
		err := hub.Serve(ctx, cfg.StatusAddr, func(port int) {
			log.Printf("Status feed: %s", localnet.FeedURL(localnet.FeedHost(cfg.StatusAddr), port))
			if !cfg.Advertise {
				return
			}
			server, err := localnet.Advertise(port)
			if err != nil {
				log.Printf("mDNS advertise failed: %v", err)
				return
			}
			go func() {
				<-ctx.Done()
				_ = server.Shutdown()
			}()
		})
		if err != nil {
			log.Printf("Status feed stopped: %v", err)
		}
	}()
	return surface.MultiReporter{rep, hub}
}
