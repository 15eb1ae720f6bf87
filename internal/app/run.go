package app

import (
	"fmt"
	"io"
	"os"

	"github.com/0x6d6e647a/rpmconf/internal/diff"
	"github.com/0x6d6e647a/rpmconf/internal/exitcode"
	"github.com/0x6d6e647a/rpmconf/internal/input"
	"github.com/0x6d6e647a/rpmconf/internal/merge"
	"github.com/0x6d6e647a/rpmconf/internal/resolve"
	"github.com/0x6d6e647a/rpmconf/internal/scanner"
	"github.com/0x6d6e647a/rpmconf/internal/store"
)

// packageDB is the read-only package database surface the driver
// needs. Satisfied by *rpm.DB.
type packageDB interface {
	ListPackages(names []string) ([]string, error)
	ConfigFiles(pkg string) ([]string, error)
	OwnerOfPath(path string) (string, error)
}

// run executes one resolution pass: packages in database order, config
// files in declared order, each recognized suffix in turn, then the
// orphan scan when --clean is set.
func run(opts *runOptions, db packageDB, out io.Writer) error {
	var packages []string
	if opts.all || len(opts.packages) > 0 {
		var err error
		packages, err = db.ListPackages(opts.packages)
		if err != nil {
			return err
		}
	}

	files := resolve.NewFileOps(opts.dryRun, out)
	in := input.New(os.Stdin, out)

	var journal resolve.Journal
	if opts.journaling {
		st, err := openJournal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: journal disabled: %v\n", err)
		} else {
			defer st.Close()
			journal = st
		}
	}

	resolver := &resolve.Resolver{
		In:     in,
		Out:    out,
		Differ: diff.New(out),
		Merger: &merge.Dispatcher{
			Frontend: opts.frontend,
			Files:    files,
			Out:      out,
		},
		Files:   files,
		Journal: journal,
		SELinux: opts.selinux,
	}

	pending := 0
	for _, pkg := range packages {
		configFiles, err := db.ConfigFiles(pkg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			continue
		}

		for _, configFile := range configFiles {
			if opts.diffOnly {
				diffAudit(resolver.Differ, configFile)
				continue
			}

			for kind := resolve.KindNew; kind <= resolve.KindOrig; kind++ {
				pair := resolve.NewPair(kind, pkg, configFile)
				if !fileExists(pair.Artifact) {
					continue
				}
				if opts.testOnly {
					fmt.Fprintln(out, pair.Artifact)
					pending++
					continue
				}
				if _, err := resolver.Resolve(pair, opts.policy); err != nil {
					return err
				}
			}
		}
	}

	if opts.clean {
		if err := clean(db, in, files, opts, out); err != nil {
			return err
		}
	}

	if pending > 0 {
		// Paths were already printed; the status alone carries the
		// result for scripting.
		return exitcode.New(exitcode.FilesPending, nil)
	}
	return nil
}

// diffAudit shows, without prompting, what each existing artifact
// changes relative to the installed file. Direction matches "what
// changed": shipped-new diffs base to artifact, backups diff artifact
// to base.
func diffAudit(differ resolve.Differ, configFile string) {
	show := func(a, b string) {
		if err := differ.Present(a, b); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: diff failed: %v\n", err)
		}
	}

	if artifact := configFile + ".rpmnew"; fileLexists(artifact) {
		show(configFile, artifact)
	}
	if artifact := configFile + ".rpmsave"; fileLexists(artifact) {
		show(artifact, configFile)
	}
	if artifact := configFile + ".rpmorig"; fileLexists(artifact) {
		show(artifact, configFile)
	}
}

// clean runs the orphan scan and drives confirmed deletion.
func clean(db packageDB, in *input.Channel, files *resolve.FileOps, opts *runOptions, out io.Writer) error {
	sc := &scanner.Scanner{
		DB:      db,
		Root:    opts.root,
		Exclude: opts.exclude,
		Out:     out,
	}
	result, err := sc.Scan()
	if err != nil {
		return err
	}
	sc.Report(result)
	return sc.DeleteOrphans(result, in, files)
}

// openJournal opens the resolution journal at the configured or
// default location.
func openJournal() (*store.Store, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	backupDir, err := getBackupDir()
	if err != nil {
		return nil, err
	}
	return store.New(dbPath, backupDir)
}

// fileExists follows symlinks, matching an access(2) existence probe.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// fileLexists does not follow a final symlink.
func fileLexists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
