package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/meadori/vibe64/api"
)

// step is one script line: run the machine for Frames frames, then apply
// Op to Slot.
type step struct {
	Frames int
	Op     string
	Slot   int32
}

// cyclesPerFrame is the NTSC frame length used when replaying.
const cyclesPerFrame = 795000

func parseStep(line string) (step, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return step{}, fmt.Errorf("invalid line: %s", line)
	}
	frames, err := strconv.Atoi(parts[0])
	if err != nil {
		return step{}, fmt.Errorf("invalid frame count: %s", parts[0])
	}
	s := step{Frames: frames, Op: strings.ToUpper(parts[1])}

	switch s.Op {
	case "NONE":
		return s, nil
	case "SAVE", "LOAD":
		if len(parts) != 3 {
			return step{}, fmt.Errorf("%s needs a slot: %s", s.Op, line)
		}
		slot, err := strconv.ParseInt(parts[2], 10, 32)
		if err != nil {
			return step{}, fmt.Errorf("invalid slot: %s", parts[2])
		}
		s.Slot = int32(slot)
		return s, nil
	}
	return step{}, fmt.Errorf("unknown operation: %s", parts[1])
}

// readScript parses a replay script. Blank lines and lines starting with
// '#' are skipped.
func readScript(fs afero.Fs, path string) ([]step, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var steps []step
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, err := parseStep(line)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, scanner.Err()
}

func replay(ctx context.Context, client api.SaveStateServiceClient, steps []step) error {
	for _, s := range steps {
		if s.Frames > 0 {
			if _, err := client.Run(ctx, wrapperspb.UInt32(uint32(s.Frames)*cyclesPerFrame)); err != nil {
				return fmt.Errorf("run %d frames: %w", s.Frames, err)
			}
		}
		switch s.Op {
		case "SAVE":
			if _, err := client.Save(ctx, wrapperspb.Int32(s.Slot)); err != nil {
				return fmt.Errorf("save slot %d: %w", s.Slot, err)
			}
			log.Printf("saved slot %d", s.Slot)
		case "LOAD":
			if _, err := client.Load(ctx, wrapperspb.Int32(s.Slot)); err != nil {
				return fmt.Errorf("load slot %d: %w", s.Slot, err)
			}
			log.Printf("loaded slot %d", s.Slot)
		}
	}
	return nil
}

type CLI struct {
	Script string        `arg:"" type:"existingfile" help:"Path to the recorded script file to replay."`
	Addr   string        `default:"localhost:50051" help:"Emulator gRPC address."`
	Delay  time.Duration `default:"2s" help:"Pause before the replay starts."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("client"),
		kong.Description("client replays a script of frame runs, saves and loads against a running emulator"),
		kong.UsageOnError())

	steps, err := readScript(afero.NewOsFs(), cli.Script)
	if err != nil {
		log.Fatalf("Failed to read script file: %v", err)
	}

	log.Printf("Connecting to emulator on %s...", cli.Addr)
	conn, err := grpc.NewClient(cli.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		api.ClientOption())
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Starting replay of %s in %v...", cli.Script, cli.Delay)
	time.Sleep(cli.Delay)

	if err := replay(context.Background(), api.NewSaveStateServiceClient(conn), steps); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	log.Println("Replay complete. Disconnected.")
}
