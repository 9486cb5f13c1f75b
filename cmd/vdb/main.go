package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/meadori/vibe64/api"
	"github.com/meadori/vibe64/savestate"
)

type SaveCmd struct {
	Slot int32 `arg:"" help:"Slot to write."`
}

type LoadCmd struct {
	Slot int32 `arg:"" help:"Slot to restore."`
}

type SlotsCmd struct{}

type InfoCmd struct{}

type RunCmd struct {
	Cycles uint32 `arg:"" help:"CPU cycles to run."`
}

type ExportCmd struct {
	File string `arg:"" type:"path" help:"File to write the uncompressed blob to."`
}

type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Blob to restore."`
}

type InspectCmd struct {
	File string `arg:"" type:"existingfile" help:"Blob to describe. No connection is made."`
}

type ShellCmd struct{}

type CLI struct {
	Addr    string        `default:"localhost:50051" help:"Emulator gRPC address."`
	Timeout time.Duration `default:"30s" help:"Per request timeout."`

	Save    SaveCmd    `cmd:"" help:"Save the machine state to a slot."`
	Load    LoadCmd    `cmd:"" help:"Load the machine state from a slot."`
	Slots   SlotsCmd   `cmd:"" help:"List occupied slots."`
	Info    InfoCmd    `cmd:"" help:"Describe the running machine."`
	Run     RunCmd     `cmd:"" help:"Advance the machine."`
	Export  ExportCmd  `cmd:"" help:"Download the machine state."`
	Import  ImportCmd  `cmd:"" help:"Upload a machine state."`
	Inspect InspectCmd `cmd:"" help:"Print the header and layout of a blob file."`
	Shell   ShellCmd   `cmd:"" default:"1" help:"Interactive debugger shell."`
}

// session is a connected client with the request timeout applied.
type session struct {
	client  api.SaveStateServiceClient
	timeout time.Duration
	fs      afero.Fs
}

func dial(cli *CLI) (*session, func(), error) {
	conn, err := grpc.NewClient(cli.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		api.ClientOption())
	if err != nil {
		return nil, nil, fmt.Errorf("did not connect: %w", err)
	}
	s := &session{
		client:  api.NewSaveStateServiceClient(conn),
		timeout: cli.Timeout,
		fs:      afero.NewOsFs(),
	}
	return s, func() { conn.Close() }, nil
}

func (s *session) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *session) save(slot int32) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if _, err := s.client.Save(ctx, wrapperspb.Int32(slot)); err != nil {
		return err
	}
	fmt.Printf("State saved to slot %d\n", slot)
	return nil
}

func (s *session) load(slot int32) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if _, err := s.client.Load(ctx, wrapperspb.Int32(slot)); err != nil {
		return err
	}
	fmt.Printf("State loaded from slot %d\n", slot)
	return nil
}

func (s *session) slots() error {
	ctx, cancel := s.ctx()
	defer cancel()
	list, err := s.client.Slots(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}
	if len(list.GetValues()) == 0 {
		fmt.Println("No saved slots.")
	}
	for _, v := range list.GetValues() {
		f := v.GetStructValue().GetFields()
		fmt.Printf("  %d  %10.0f bytes  %s\n",
			int(f["slot"].GetNumberValue()), f["size"].GetNumberValue(), f["modified"].GetStringValue())
	}
	return nil
}

func (s *session) info() error {
	ctx, cancel := s.ctx()
	defer cancel()
	info, err := s.client.Info(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}
	f := info.GetFields()
	fmt.Printf("ROM:        %s\n", f["digest"].GetStringValue())
	fmt.Printf("Version:    %s\n", f["version"].GetStringValue())
	fmt.Printf("Fixed size: %.0f bytes\n", f["fixed_size"].GetNumberValue())
	fmt.Printf("Count:      %.0f\n", f["count"].GetNumberValue())
	return nil
}

func (s *session) run(cycles uint32) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.client.Run(ctx, wrapperspb.UInt32(cycles))
	return err
}

func (s *session) export(path string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	blob, err := s.client.Export(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, path, blob.GetValue(), 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(blob.GetValue()), path)
	return nil
}

func (s *session) importFile(path string) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if _, err := s.client.Import(ctx, wrapperspb.Bytes(data)); err != nil {
		return err
	}
	fmt.Printf("Restored %s\n", path)
	return nil
}

func (c *SaveCmd) Run(cli *CLI) error {
	return withSession(cli, func(s *session) error { return s.save(c.Slot) })
}

func (c *LoadCmd) Run(cli *CLI) error {
	return withSession(cli, func(s *session) error { return s.load(c.Slot) })
}

func (c *SlotsCmd) Run(cli *CLI) error {
	return withSession(cli, (*session).slots)
}

func (c *InfoCmd) Run(cli *CLI) error {
	return withSession(cli, (*session).info)
}

func (c *RunCmd) Run(cli *CLI) error {
	return withSession(cli, func(s *session) error { return s.run(c.Cycles) })
}

func (c *ExportCmd) Run(cli *CLI) error {
	return withSession(cli, func(s *session) error { return s.export(c.File) })
}

func (c *ImportCmd) Run(cli *CLI) error {
	return withSession(cli, func(s *session) error { return s.importFile(c.File) })
}

func withSession(cli *CLI, fn func(*session) error) error {
	s, closeFn, err := dial(cli)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(s)
}

func (c *InspectCmd) Run() error {
	data, err := afero.ReadFile(afero.NewOsFs(), c.File)
	if err != nil {
		return err
	}
	h, err := savestate.ReadHeader(data)
	if err != nil {
		return err
	}
	fmt.Printf("Version: %#08x\n", h.Version)
	fmt.Printf("ROM:     %s\n", h.Digest)
	fmt.Printf("Size:    %d bytes (queue %d bytes)\n", len(data), len(data)-savestate.FixedSize())
	for _, f := range savestate.Layout() {
		fmt.Printf("  %08X %8d  %s\n", f.Offset, f.Size, f.Name)
	}
	return nil
}

func (c *ShellCmd) Run(cli *CLI) error {
	fmt.Println("VDB - vibe64 DeBugger")
	fmt.Printf("Connecting to emulator on %s...\n", cli.Addr)

	return withSession(cli, func(s *session) error {
		fmt.Println("Connected. Type 'help' for commands.")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("(vdb) ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			parts := strings.Fields(scanner.Text())
			if len(parts) == 0 {
				continue
			}
			if parts[0] == "quit" || parts[0] == "q" || parts[0] == "exit" {
				return nil
			}
			if err := s.exec(parts); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}
	})
}

func (s *session) exec(parts []string) error {
	arg := func() (string, error) {
		if len(parts) < 2 {
			return "", fmt.Errorf("usage: %s <arg>", parts[0])
		}
		return parts[1], nil
	}
	num := func() (uint64, error) {
		a, err := arg()
		if err != nil {
			return 0, err
		}
		return strconv.ParseUint(a, 0, 32)
	}

	switch parts[0] {
	case "help", "h":
		fmt.Println("Commands:")
		fmt.Println("  save <slot>     - Save state to a slot")
		fmt.Println("  load <slot>     - Load state from a slot")
		fmt.Println("  slots           - List occupied slots")
		fmt.Println("  info, i         - Describe the machine")
		fmt.Println("  run <cycles>    - Advance the machine")
		fmt.Println("  export <file>   - Download the state")
		fmt.Println("  import <file>   - Upload a state")
		fmt.Println("  quit, q         - Exit debugger")
		return nil
	case "save":
		n, err := num()
		if err != nil {
			return err
		}
		return s.save(int32(n))
	case "load":
		n, err := num()
		if err != nil {
			return err
		}
		return s.load(int32(n))
	case "slots":
		return s.slots()
	case "info", "i":
		return s.info()
	case "run", "c":
		n, err := num()
		if err != nil {
			return err
		}
		return s.run(uint32(n))
	case "export":
		path, err := arg()
		if err != nil {
			return err
		}
		return s.export(path)
	case "import":
		path, err := arg()
		if err != nil {
			return err
		}
		return s.importFile(path)
	}
	return fmt.Errorf("unknown command: %s", parts[0])
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("vdb"),
		kong.Description("vdb drives a running vibe64 emulator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	ctx.FatalIfErrorf(ctx.Run(&cli))
}
