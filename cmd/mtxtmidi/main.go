// Package main is the entry point for the mtxtmidi CLI.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mtxt-tools/mtxtmidi/pkg/api"
	"github.com/mtxt-tools/mtxtmidi/pkg/smfcodec"
	"github.com/mtxt-tools/mtxtmidi/pkg/surface"
	"github.com/mtxt-tools/mtxtmidi/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	verbose    bool
	serverPort int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mtxtmidi",
	Short: "Convert between Standard MIDI Files and MTXT",
	Long: `mtxtmidi translates between Standard MIDI Files (.mid) and MTXT,
a human-editable text representation of a MIDI performance.

Examples:
  mtxtmidi midi song.mid song.mtxt
  mtxtmidi mtxt song.mtxt song.mid
  mtxtmidi tui
  mtxtmidi serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var midiCmd = &cobra.Command{
	Use:   "midi <in.mid> <out.mtxt>",
	Short: "Convert a Standard MIDI File to MTXT",
	Args:  cobra.ExactArgs(2),
	RunE:  runMIDIToMTXT,
}

var mtxtCmd = &cobra.Command{
	Use:   "mtxt <in.mtxt> <out.mid>",
	Short: "Convert MTXT to a Standard MIDI File",
	Args:  cobra.ExactArgs(2),
	RunE:  runMTXTToMIDI,
}

var transformCmd = &cobra.Command{
	Use:   "transform <in.mtxt> <out.mtxt>",
	Short: "Apply quantize/transpose/merge-notes operators to an MTXT file",
	Args:  cobra.ExactArgs(2),
	RunE:  runTransform,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also log debug details (record counts); tolerance warnings are logged either way")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	rootCmd.AddCommand(midiCmd)
	rootCmd.AddCommand(mtxtCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func newLogger() *log.Logger {
	logger := log.New(os.Stderr)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

func runMIDIToMTXT(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]
	logger := newLogger()
	smfcodec.SetLogger(logger)

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	records, err := smfcodec.ToMTXT(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", input, err)
	}
	logger.Debug("decoded MIDI", "file", input, "records", len(records))

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer f.Close()

	if err := surface.Write(f, records); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("Converted %s -> %s\n", input, output)
	return nil
}

func runMTXTToMIDI(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]
	logger := newLogger()

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	defer f.Close()

	records, err := surface.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", input, err)
	}
	logger.Debug("parsed MTXT", "file", input, "records", len(records))

	data, err := smfcodec.ToSMF(records)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", input, err)
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("Converted %s -> %s\n", input, output)
	return nil
}

func runTransform(cmd *cobra.Command, args []string) error {
	return fmt.Errorf("transform: quantize/transpose/merge-notes operators are not implemented in this core; wire an external transforms pipeline against pkg/mtxt.Record")
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
