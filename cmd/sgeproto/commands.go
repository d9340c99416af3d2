package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/sgeproto/codec"
	"github.com/wippyai/sgeproto/schema"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [schema...]",
		Short: "Parse schema files and report errors",
		Long:  "Parses each schema file, or the configured schema when none is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if a.cfg.Schema == "" {
					return fmt.Errorf("no schema to check")
				}
				args = []string{a.cfg.Schema}
			}
			failed := 0
			for _, path := range args {
				reg, err := schema.ParseFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d messages\n", path, reg.Len())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d schemas failed", failed, len(args))
			}
			return nil
		},
	}
}

func newEncodeCmd(a *app) *cobra.Command {
	var (
		typeName string
		output   string
		pack     bool
	)
	cmd := &cobra.Command{
		Use:   "encode -t TYPE [input...]",
		Short: "Encode YAML or JSON documents",
		Long: `Encodes every document of each input file as a message of TYPE and
writes the messages back to back. With one input (or stdin) the code goes to
--output or stdout; with several inputs --output names a directory and each
input gets its own .bin (or .sgf when packed) file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if typeName == "" {
				return fmt.Errorf("--type is required")
			}
			if err := a.loadSchema(); err != nil {
				return err
			}
			if len(args) <= 1 {
				in := "-"
				if len(args) == 1 {
					in = args[0]
				}
				code, err := a.encodeFile(typeName, in, pack)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, code)
			}

			if output == "" {
				return fmt.Errorf("--output directory is required with several inputs")
			}
			ext := ".bin"
			if pack {
				ext = ".sgf"
			}

			// Each input owns one output file; two inputs must not share it.
			dsts := make([]string, len(args))
			seen := make(map[string]string, len(args))
			for i, in := range args {
				base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
				dst := filepath.Join(output, base+ext)
				if prev, ok := seen[dst]; ok {
					return fmt.Errorf("%s and %s both write %s", prev, in, dst)
				}
				seen[dst] = in
				dsts[i] = dst
			}

			if err := os.MkdirAll(output, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			var g errgroup.Group
			g.SetLimit(runtime.GOMAXPROCS(0))
			for i, in := range args {
				in := in
				dst := dsts[i]
				g.Go(func() error {
					code, err := a.encodeFile(typeName, in, pack)
					if err != nil {
						return err
					}
					if err := os.WriteFile(dst, code, 0o644); err != nil {
						return fmt.Errorf("write %s: %w", dst, err)
					}
					a.log.Info("encoded", zap.String("input", in), zap.String("output", dst), zap.Int("bytes", len(code)))
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "message type")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or directory for several inputs")
	cmd.Flags().BoolVarP(&pack, "pack", "p", false, "wrap the code in a frame")
	return cmd
}

func (a *app) encodeFile(typeName, path string, pack bool) ([]byte, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	docs, err := readDocuments(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: no documents", path)
	}

	var code []byte
	for i, doc := range docs {
		msg, err := a.eng.Encode(typeName, doc)
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", path, i+1, err)
		}
		code = append(code, msg...)
	}
	if pack {
		return a.eng.Pack(code)
	}
	return code, nil
}

func newDecodeCmd(a *app) *cobra.Command {
	var unpack bool
	cmd := &cobra.Command{
		Use:   "decode [input]",
		Short: "Decode messages to YAML",
		Long:  "Decodes every message in the input and prints one YAML document per message.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadSchema(); err != nil {
				return err
			}
			in := "-"
			if len(args) == 1 {
				in = args[0]
			}
			data, err := readInput(in)
			if err != nil {
				return err
			}
			if unpack || isFrame(data) {
				if data, err = a.eng.Unpack(data); err != nil {
					return err
				}
			}
			msgs, err := a.eng.DecodeAll(data)
			if err != nil {
				return err
			}
			return writeMessages(cmd.OutOrStdout(), msgs)
		},
	}
	cmd.Flags().BoolVarP(&unpack, "unpack", "u", false, "input is a frame (detected automatically when it starts with the frame magic)")
	return cmd
}

func newPackCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pack [input]",
		Short: "Wrap code in a frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(argOrStdin(args))
			if err != nil {
				return err
			}
			framed, err := a.eng.Pack(data)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, framed)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func newUnpackCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "unpack [input]",
		Short: "Extract code from a frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(argOrStdin(args))
			if err != nil {
				return err
			}
			code, err := a.eng.Unpack(data)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, code)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func argOrStdin(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "-"
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

var frameMagic = []byte("SG")

func isFrame(data []byte) bool {
	return len(data) > 0 && data[0] != codec.Version && bytes.HasPrefix(data, frameMagic)
}
