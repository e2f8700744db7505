// Command veil hides, lists and extracts data carried in custom PNG chunks.
package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mitsimi/veil/internal/logging"
)

const version = "0.4.0"

// stdout receives command output; logs go to stderr.
var stdout io.Writer = os.Stdout

// Globals are flags shared by every command.
type Globals struct {
	LogLevel  string          `name:"log-level" default:"warn" enum:"debug,info,warn,error" env:"VEIL_LOG_LEVEL" help:"Log level (debug, info, warn, error)"`
	LogFormat string          `name:"log-format" default:"text" enum:"text,json" env:"VEIL_LOG_FORMAT" help:"Log format (text, json)"`
	Config    kong.ConfigFlag `name:"config" help:"Load flag defaults from a JSON file"`
}

// cli defines the command-line interface for veil.
type cli struct {
	Globals

	Check   CheckCmd   `cmd:"" help:"Check whether a file carries hidden data"`
	Hide    HideCmd    `cmd:"" help:"Hide a message or file inside a carrier"`
	Extract ExtractCmd `cmd:"" help:"Extract all hidden items from a carrier"`
	Chunks  ChunksCmd  `cmd:"" help:"List custom chunk types in a carrier"`
	Decode  DecodeCmd  `cmd:"" help:"Print one custom chunk as text"`
	Remove  RemoveCmd  `cmd:"" help:"Remove the first chunk of a given type"`
	Info    InfoCmd    `cmd:"" help:"Show the image header and chunk table"`
	Scan    ScanCmd    `cmd:"" help:"Scan directories for carriers with hidden data"`
	Query   QueryCmd   `cmd:"" help:"Query a scan index"`
	Bundle  BundleCmd  `cmd:"" help:"List or print entries of an extraction bundle"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// CLI holds the parsed command line.
var CLI cli

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	_, err := io.WriteString(stdout, "veil version "+version+"\n")
	return err
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("veil"),
		kong.Description("Hide and extract data in PNG images"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, "~/.config/veil/config.json"),
	)

	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))

	ctx := logging.WithRunID(context.Background(), logging.NewRunID())
	kctx.BindTo(ctx, (*context.Context)(nil))

	err := kctx.Run()
	if err != nil {
		logging.OperationError(ctx, kctx.Command(), err)
	}
	kctx.FatalIfErrorf(err)
}
