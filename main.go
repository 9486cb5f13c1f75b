package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/meadori/vibe64/bus"
	"github.com/meadori/vibe64/cartridge"
	"github.com/meadori/vibe64/display"
	"github.com/meadori/vibe64/plugin"
	"github.com/meadori/vibe64/savestate"
	"github.com/meadori/vibe64/server"
)

type CLI struct {
	ROM               string        `arg:"" type:"existingfile" help:"Program image to run."`
	System            string        `enum:"ntsc,pal,mpal" default:"ntsc" help:"Video standard of the program (${enum})."`
	Engine            string        `enum:"pure,cached,dynarec" default:"pure" help:"CPU execution engine (${enum})."`
	AlternateVITiming bool          `name:"alternate-vi-timing" help:"Use the alternate VI_CURRENT computation."`
	Port              int           `default:"50051" help:"gRPC listen port."`
	SaveDir           string        `type:"path" default:"saves" help:"Directory holding save state slots."`
	CacheSize         int           `default:"4" help:"Number of slot blobs kept in memory."`
	Load              int           `default:"-1" help:"Slot to restore before starting."`
	FPSReport         time.Duration `name:"fps-report" default:"0s" help:"Log the frame rate at this interval (0 disables)."`
}

var systems = map[string]plugin.SystemType{
	"ntsc": plugin.NTSC,
	"pal":  plugin.PAL,
	"mpal": plugin.MPAL,
}

// frontend logs core notifications.
type frontend struct {
	plugin.Nop
}

func (frontend) StateChanged(param plugin.CoreParam, value int) {
	if value == 0 {
		log.Printf("%v: failed", param)
		return
	}
	log.Printf("%v", param)
}

func (c *CLI) Run() error {
	cart, err := cartridge.Open(c.ROM, systems[c.System])
	if err != nil {
		return err
	}
	log.Printf("loaded %s (%s)", c.ROM, cart.Digest)

	disp := display.New(c.FPSReport)
	b, err := bus.New(cart, bus.Config{
		Engine:            c.Engine,
		AlternateVITiming: c.AlternateVITiming,
	}, bus.Plugins{Video: disp, Frontend: frontend{}})
	if err != nil {
		return err
	}
	disp.Registers = func(reg int) uint32 { return b.VI.Regs[reg] }

	store, err := savestate.NewStore(afero.NewOsFs(), c.SaveDir, c.CacheSize)
	if err != nil {
		return err
	}
	if c.Load >= 0 {
		blob, err := store.Read(cart.Digest, c.Load)
		if err != nil {
			return err
		}
		if err := b.LoadState(blob); err != nil {
			return fmt.Errorf("slot %d: %w", c.Load, err)
		}
	}

	srv := server.NewGRPCServer(store)
	srv.SetBus(b)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.ListenAndServe(c.Port)
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.Stop()
		return nil
	})
	g.Go(func() error {
		return runFrames(ctx, b)
	})

	return g.Wait()
}

// runFrames advances the machine one video frame per tick.
func runFrames(ctx context.Context, b *bus.Bus) error {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := b.RunFrame(); err != nil {
				return err
			}
		}
	}
}

func main() {
	var c CLI
	ctx := kong.Parse(&c,
		kong.Name("vibe64"),
		kong.Description("vibe64 runs the N64 machine core and serves save states over gRPC"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	ctx.FatalIfErrorf(c.Run())
}
