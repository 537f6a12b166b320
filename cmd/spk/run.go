package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/spk/internal/binding"
	"github.com/dshills/spk/internal/dispatch"
	"github.com/dshills/spk/internal/keymap"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		commandsJSON string
		file         string
		keymapPath   string
		keys         []string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play back a composite command",
		Long: `Runs each command of a composite binding in order through the editor
command line tool. Playback stops at the first entry without a command name
or at the first failure.

The command list comes from --commands, --file, or the record bound to
--keys in the key map.`,
		Example: `  spk run --commands '[{"command":"select_all"},{"command":"copy"}]'
  spk run --keys ctrl+k,ctrl+d --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				rec binding.Record
				err error
			)
			switch {
			case commandsJSON != "" && file != "":
				return errors.New("--commands and --file are mutually exclusive")
			case commandsJSON != "":
				rec, err = recordFromPayload([]byte(commandsJSON))
			case file != "":
				var data []byte
				if data, err = os.ReadFile(file); err == nil {
					rec, err = recordFromPayload(data)
				}
			case len(keys) > 0:
				rec, err = a.lookup(keymapPath, keys)
			default:
				return errors.New("one of --commands, --file or --keys is required")
			}
			if err != nil {
				return err
			}

			var runner dispatch.Runner = dispatch.PrintRunner{W: a.stdout}
			if !dryRun {
				if runner, err = dispatch.NewExecRunner(a.cfg.Editor.Command, a.logger); err != nil {
					return err
				}
			}

			n, err := dispatch.DispatchRecord(cmd.Context(), runner, rec)
			a.logger.WithField("count", n).Debug("Playback finished")
			return err
		},
	}

	cmd.Flags().StringVar(&commandsJSON, "commands", "", "Command list as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File holding the command list as JSON")
	cmd.Flags().StringVarP(&keymapPath, "keymap", "k", "", "Key map to look --keys up in (defaults to the destination)")
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "Chord sequence to look up, comma separated")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the commands instead of running them")

	return cmd
}

func recordFromPayload(data []byte) (binding.Record, error) {
	cmds, err := dispatch.ParseCommands(data)
	if err != nil {
		return binding.Record{}, err
	}
	return binding.Record{
		Command: binding.MultiCommand,
		Args:    binding.NewArgs().Set(binding.CommandsArg, cmds),
	}, nil
}

func (a *app) lookup(path string, keys []string) (binding.Record, error) {
	if path == "" {
		_, path = a.compiler().Resolve(a.compileOptions("", ""))
	}
	records, err := keymap.ReadFile(path)
	if err != nil {
		return binding.Record{}, err
	}
	rec, err := keymap.Lookup(records, keys)
	if err != nil {
		return binding.Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}
