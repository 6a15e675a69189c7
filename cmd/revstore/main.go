// Package main provides the revstore CLI: it keeps the successive revisions
// of a single text file in a compact store file, restores any revision on
// demand, and exchanges changes between stores as portable patch blobs.
//
// Modes:
//   - SNAPSHOT : revstore -store repo.rsd -snap file.txt
//   - LOG      : revstore -store repo.rsd -log
//   - RESTORE  : revstore -store repo.rsd -restore <rev> [-out file]
//   - DIFF     : revstore -store repo.rsd -diff <rev1>:<rev2>
//   - PATCH    : revstore -store repo.rsd -patch <rev1>:<rev2> -out patch.rsp
//   - APPLY    : revstore -store repo.rsd -apply patch.rsp
//   - BEFORE   : revstore -store repo.rsd -before 2024-06-01T12:00:00Z
//   - OPTIMIZE : revstore -store repo.rsd -optimize
//
// Key design goals:
//   - One store file per tracked document, written atomically
//   - Deterministic revision ids (hash of the normalized content)
//   - Readable diffs between any two revisions
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"revstore/internal/blobstore"
	"revstore/internal/codec"
	"revstore/internal/compress"
	"revstore/internal/config"
	"revstore/internal/diffview"
	"revstore/internal/meta"
	"revstore/internal/store"
	"revstore/internal/textutil"
)

func main() {
	flag.Usage = func() {
		prog := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  SNAPSHOT : %s -store repo.rsd -snap file.txt\n", prog)
		fmt.Fprintf(os.Stderr, "  LOG      : %s -store repo.rsd -log\n", prog)
		fmt.Fprintf(os.Stderr, "  RESTORE  : %s -store repo.rsd -restore <rev> [-out file]\n", prog)
		fmt.Fprintf(os.Stderr, "  DIFF     : %s -store repo.rsd -diff <rev1>:<rev2>\n", prog)
		fmt.Fprintf(os.Stderr, "  PATCH    : %s -store repo.rsd -patch <rev1>:<rev2> -out patch.rsp\n", prog)
		fmt.Fprintf(os.Stderr, "  APPLY    : %s -store repo.rsd -apply patch.rsp\n", prog)
		fmt.Fprintf(os.Stderr, "  BEFORE   : %s -store repo.rsd -before 2024-06-01T12:00:00Z\n", prog)
		fmt.Fprintf(os.Stderr, "  OPTIMIZE : %s -store repo.rsd -optimize\n", prog)
		fmt.Fprintln(os.Stderr, "\nCommon flags:")
		flag.PrintDefaults()
	}

	storeFlag := flag.String("store", "", "path to the store file")
	configFlag := flag.String("config", "", "path to a YAML config file with engine tunables")
	compFlag := flag.String("compressor", "zstd", "patch blob compressor: zstd|snappy|none")
	normalizeFlag := flag.Bool("normalize", true, "normalize newlines/UTF-8 of snapshot input")
	outFlag := flag.String("out", "", "output file for -restore and -patch (default stdout)")
	verboseFlag := flag.Bool("v", false, "log compaction and apply events to stderr")

	snapFlag := flag.String("snap", "", "snapshot the given file into the store")
	logFlag := flag.Bool("log", false, "list revisions")
	restoreFlag := flag.String("restore", "", "restore the given revision")
	diffFlag := flag.String("diff", "", "show a unified diff between <rev1>:<rev2>")
	patchFlag := flag.String("patch", "", "export a portable patch between <rev1>:<rev2>")
	applyFlag := flag.String("apply", "", "apply an exported patch file to the latest revision")
	beforeFlag := flag.String("before", "", "print the last revision at or before an RFC3339 time")
	optimizeFlag := flag.Bool("optimize", false, "re-run delta compaction over the whole graph")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(meta.Detect().Short())
		return
	}

	modes := 0
	for _, on := range []bool{
		*snapFlag != "", *logFlag, *restoreFlag != "", *diffFlag != "",
		*patchFlag != "", *applyFlag != "", *beforeFlag != "", *optimizeFlag,
	} {
		if on {
			modes++
		}
	}
	if modes != 1 || *storeFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*storeFlag, *configFlag, *compFlag, *outFlag, options{
		normalize: *normalizeFlag,
		verbose:   *verboseFlag,
		snap:      *snapFlag,
		log:       *logFlag,
		restore:   *restoreFlag,
		diff:      *diffFlag,
		patch:     *patchFlag,
		apply:     *applyFlag,
		before:    *beforeFlag,
		optimize:  *optimizeFlag,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "revstore: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	normalize bool
	verbose   bool
	snap      string
	log       bool
	restore   string
	diff      string
	patch     string
	apply     string
	before    string
	optimize  bool
}

func run(storePath, configPath, compName, outPath string, opt options) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := zerolog.Nop()
	if opt.verbose || cfg.Log != "" {
		level := zerolog.DebugLevel
		if cfg.Log != "" {
			if l, err := zerolog.ParseLevel(cfg.Log); err == nil {
				level = l
			}
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}

	comp, err := compressorByName(compName)
	if err != nil {
		return err
	}

	repo := store.New[string](codec.String{},
		store.WithCompressor(comp),
		store.WithEngine(cfg.Engine()),
		store.WithLogger(logger),
	)

	st, err := blobstore.Load(storePath)
	switch {
	case err == nil:
		if err := repo.LoadState(st); err != nil {
			return fmt.Errorf("load %s: %w", storePath, err)
		}
	case errors.Is(err, blobstore.ErrNotExist) && opt.snap != "":
		// First snapshot creates the store.
	default:
		return err
	}

	mutated := false
	switch {
	case opt.snap != "":
		b, err := os.ReadFile(opt.snap)
		if err != nil {
			return err
		}
		if opt.normalize {
			b = textutil.EnsureTrailingLF(textutil.NormalizeUTF8LF(b))
		}
		rev, err := repo.Snapshot(string(b))
		if err != nil {
			return err
		}
		mutated = true
		fmt.Printf("%s  (%d revisions, %s)\n", rev, len(repo.History()), humanize.Bytes(uint64(repo.Size())))

	case opt.log:
		for i, rev := range repo.History() {
			at, err := repo.CreatedAt(rev)
			if err != nil {
				return err
			}
			fmt.Printf("%4d  %s  %s\n", i, rev, at.Format(time.RFC3339))
		}

	case opt.restore != "":
		rev, err := resolveRev(repo.History(), opt.restore)
		if err != nil {
			return err
		}
		text, err := repo.Restore(rev)
		if err != nil {
			return err
		}
		return writeOut(outPath, []byte(text))

	case opt.diff != "":
		rev1, rev2, err := splitRevPair(opt.diff)
		if err != nil {
			return err
		}
		if rev1, err = resolveRev(repo.History(), rev1); err != nil {
			return err
		}
		if rev2, err = resolveRev(repo.History(), rev2); err != nil {
			return err
		}
		a, err := repo.Restore(rev1)
		if err != nil {
			return err
		}
		b, err := repo.Restore(rev2)
		if err != nil {
			return err
		}
		body, _ := diffview.Unified(shortRev(rev1), shortRev(rev2), a, b, diffview.Options{})
		fmt.Print(body)

	case opt.patch != "":
		rev1, rev2, err := splitRevPair(opt.patch)
		if err != nil {
			return err
		}
		if rev1, err = resolveRev(repo.History(), rev1); err != nil {
			return err
		}
		if rev2, err = resolveRev(repo.History(), rev2); err != nil {
			return err
		}
		p, err := repo.PatchBetween(rev1, rev2)
		if err != nil {
			return err
		}
		return writeOut(outPath, []byte(p.Data))

	case opt.apply != "":
		b, err := os.ReadFile(opt.apply)
		if err != nil {
			return err
		}
		if _, err := repo.ApplyPatch(store.Patch{Data: string(b)}); err != nil {
			return err
		}
		mutated = true
		fmt.Printf("%s  (%d revisions, %s)\n", repo.LatestRev(), len(repo.History()), humanize.Bytes(uint64(repo.Size())))

	case opt.before != "":
		t, err := time.Parse(time.RFC3339, opt.before)
		if err != nil {
			return fmt.Errorf("bad -before time %q: %w", opt.before, err)
		}
		rev, err := repo.RevisionBefore(t)
		if err != nil {
			return err
		}
		fmt.Println(rev)

	case opt.optimize:
		before := repo.Size()
		repo.Optimize()
		mutated = true
		fmt.Printf("%s -> %s\n", humanize.Bytes(uint64(before)), humanize.Bytes(uint64(repo.Size())))
	}

	if mutated {
		return blobstore.Save(storePath, repo.State())
	}
	return nil
}

func compressorByName(name string) (store.Compressor, error) {
	switch name {
	case "zstd":
		return compress.Zstd{}, nil
	case "snappy":
		return compress.Snappy{}, nil
	case "none":
		return compress.Identity{}, nil
	}
	return nil, fmt.Errorf("unknown compressor %q (want zstd, snappy, or none)", name)
}

// splitRevPair parses "<rev1>:<rev2>".
func splitRevPair(s string) (string, string, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("bad revision pair %q (want <rev1>:<rev2>)", s)
	}
	return parts[0], parts[1], nil
}

// resolveRev expands a unique revision prefix to the full id. Full ids pass
// through unchanged.
func resolveRev(history []string, prefix string) (string, error) {
	match := ""
	for _, rev := range history {
		if !strings.HasPrefix(rev, prefix) {
			continue
		}
		if match != "" && match != rev {
			return "", fmt.Errorf("revision prefix %q is ambiguous", prefix)
		}
		match = rev
	}
	if match == "" {
		return "", fmt.Errorf("no revision matches %q", prefix)
	}
	return match, nil
}

func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func writeOut(path string, b []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
