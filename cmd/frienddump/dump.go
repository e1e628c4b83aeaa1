package main

import (
	"errors"
	"fmt"
	"strings"

	"frienddump/pkg/dumper"
	"frienddump/pkg/logger"
	"frienddump/pkg/storage"
	"frienddump/pkg/ui"
	"frienddump/pkg/validator"

	"github.com/spf13/cobra"
)

var (
	// Dump command flags
	seedFile       string
	seedIDs        []string
	seedURLs       []string
	outputName     string
	unsepName      string
	prefixes       []string
	recursive      bool
	outputDir      string
	maxConcurrency int
	skipValidation bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Export friends of seed profiles",
	Long: `Fetch the friends list of every seed and append "id|name" lines to the
output file. With --recursive the friends of the seeds' friends are
exported instead; the seeds' own friends only select whose lists to fetch.

Seeds come from --seeds (one id per line, "id|name" lines allowed), --id
and --url. Profile URLs are resolved to ids first.

With --prefix, ids starting with a prefix go to --output and the rest to
--unsep; without --unsep they are dropped.`,
	Example: `  # Friends of the ids in seeds.txt
  frienddump dump --seeds seeds.txt --output friends.txt

  # Friends of friends, split by prefix
  frienddump dump --seeds seeds.txt --recursive --prefix 1000 --output main.txt --unsep rest.txt

  # A profile URL as seed
  frienddump dump --url https://www.facebook.com/someone --output friends.txt`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringVarP(&seedFile, "seeds", "s", "", "file with one seed id per line")
	dumpCmd.Flags().StringSliceVar(&seedIDs, "id", nil, "seed id (repeatable)")
	dumpCmd.Flags().StringSliceVar(&seedURLs, "url", nil, "seed profile URL (repeatable)")
	dumpCmd.Flags().StringVarP(&outputName, "output", "o", "friends.txt", "output file, relative to the output directory")
	dumpCmd.Flags().StringVar(&unsepName, "unsep", "", "file for ids matching no prefix")
	dumpCmd.Flags().StringSliceVar(&prefixes, "prefix", nil, "id prefix routed to the output file (repeatable)")
	dumpCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "export friends of friends")
	dumpCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default from config)")
	dumpCmd.Flags().IntVar(&maxConcurrency, "concurrency", 0, "max in-flight requests per phase (0 = one per target)")
	dumpCmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "do not probe the session before dumping")

	commandFlags = append(commandFlags, func(cmd *cobra.Command, flags map[string]interface{}) {
		if cmd != dumpCmd {
			return
		}
		if outputDir != "" {
			flags["output-dir"] = outputDir
		}
		if cmd.Flags().Changed("concurrency") {
			flags["max-concurrency"] = maxConcurrency
		}
	})
}

// checkPrefixes rejects blank --prefix values
func checkPrefixes(prefixes []string) error {
	for _, p := range prefixes {
		if strings.TrimSpace(p) == "" {
			return errors.New("--prefix must not be blank")
		}
	}
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := checkPrefixes(prefixes); err != nil {
		return err
	}

	svc, err := newServices()
	if err != nil {
		return err
	}
	creds, err := svc.auth.Current()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if !creds.LoggedIn() {
		return errors.New("not logged in; run 'frienddump auth cookie' first")
	}

	seeds, err := collectSeeds(seedFile, seedIDs)
	if err != nil {
		return err
	}
	if len(seedURLs) > 0 {
		for _, r := range svc.auth.ResolveUIDs(ctx, seedURLs) {
			if r.Err != nil {
				ui.PrintWarning("Skipping URL", r.Err)
				continue
			}
			seeds = append(seeds, r.UID)
		}
	}
	if len(seeds) == 0 {
		return errors.New("no seeds given; use --seeds, --id or --url")
	}

	if !skipValidation {
		res := validator.New(svc.client, svc.store, cfg, nil).Validate(ctx, creds)
		if err := reportValidation(res); err != nil {
			return err
		}
	}

	manager, err := storage.NewManager(cfg.Dump.OutputDirectory)
	if err != nil {
		return err
	}
	req := dumper.Request{
		Seeds:       seeds,
		Output:      manager.Resolve(outputName),
		Unseparated: manager.Resolve(unsepName),
		Prefixes:    prefixes,
		Recursive:   recursive,
	}

	ui.PrintInfo("Seeds", fmt.Sprintf("%d", len(seeds)))
	ui.PrintInfo("Output directory", manager.GetOutputDir())
	ui.PrintInfo("Output", req.Output)
	if req.Unseparated != "" {
		ui.PrintInfo("Unseparated", req.Unseparated)
	}

	tracker := ui.NewDumpTracker(quiet)
	req.OnProgress = tracker.Report

	d := dumper.New(svc.client, creds, cfg, logger.GetLogger())
	res, err := d.Dump(ctx, req)
	tracker.Finish()

	ui.PrintInfo("Main lines", fmt.Sprintf("%d", res.Main))
	if req.Unseparated != "" {
		ui.PrintInfo("Unseparated lines", fmt.Sprintf("%d", res.Unseparated))
	}
	if err != nil {
		return err
	}
	ui.PrintSuccess("Dump complete")
	return nil
}

// collectSeeds merges the seed file with ids given on the command line
func collectSeeds(path string, ids []string) ([]string, error) {
	var seeds []string
	if path != "" {
		fromFile, err := storage.ReadIdentifiers(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		seeds = append(seeds, fromFile...)
	}
	return append(seeds, ids...), nil
}
