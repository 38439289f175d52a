// SOM CLI - runs SOM programs, the interactive shell and the editor services
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/som/compiler"
	"github.com/chazu/som/manifest"
	"github.com/chazu/som/server"
	"github.com/chazu/som/vm"
)

var log = commonlog.GetLogger("som.cmd")

func main() {
	classPath := flag.String("cp", "", "Class path, directories separated by '"+string(os.PathListSeparator)+"'")
	dump := flag.Bool("d", false, "Dump the bytecodes of every loaded class")
	verbosity := flag.Int("v", 0, "Log verbosity (0 = warnings, 1 = info, 2 = debug)")
	interactive := flag.Bool("i", false, "Start the interactive shell after loading")
	lspMode := flag.Bool("lsp", false, "Start the language server on stdio")
	serveAddr := flag.String("serve", "", "Start the evaluation service on the given address (e.g. ':4567')")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: som [options] [Class [arguments...]]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the SOM class Class, or starts the shell when no class is given.\n")
		fmt.Fprintf(os.Stderr, "Settings are read from the nearest %s and overridden by flags.\n\n", manifest.FileName)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  som                          # Start the shell\n")
		fmt.Fprintf(os.Stderr, "  som -cp examples Hello       # Run Hello from examples/\n")
		fmt.Fprintf(os.Stderr, "  som -cp src -d Fib 20        # Run Fib with an argument, dumping bytecodes\n")
		fmt.Fprintf(os.Stderr, "\nEditor Services:\n")
		fmt.Fprintf(os.Stderr, "  som -lsp                     # Language server on stdio\n")
		fmt.Fprintf(os.Stderr, "  som -cp src -serve :4567     # Evaluation service on :4567\n")
	}
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the manifest
	flagSet := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { flagSet[f.Name] = true })
	if flagSet["cp"] {
		cfg.classPath = filepath.SplitList(*classPath)
	}
	if flagSet["d"] {
		cfg.dumpBytecodes = *dump
	}
	if flagSet["v"] {
		cfg.verbosity = *verbosity
	}

	commonlog.Configure(cfg.verbosity, nil)

	u, err := compiler.NewUniverse(
		vm.WithClassPath(cfg.classPath...),
		vm.WithDumpBytecodes(cfg.dumpBytecodes),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", compiler.Describe(err))
		os.Exit(1)
	}
	log.Infof("class path: %s", strings.Join(cfg.classPath, string(os.PathListSeparator)))

	// Editor services take over the process
	if *lspMode {
		if err := server.NewLSP(u).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "LSP error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	if *serveAddr != "" {
		os.Exit(serve(server.New(u), *serveAddr))
	}

	args := flag.Args()
	if len(args) == 0 && cfg.entry != "" {
		args = append([]string{cfg.entry}, cfg.args...)
	}

	if len(args) > 0 {
		code, err := u.Run(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", compiler.Describe(err))
		}
		if !*interactive {
			os.Exit(code)
		}
	}

	os.Exit(runShell(u))
}

// serve runs the evaluation service until it fails and answers the exit
// code. The worker is stopped before the caller exits.
func serve(srv *server.SomServer, addr string) int {
	defer srv.Stop()
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}

// config is the merged result of the manifest and its defaults.
type config struct {
	classPath     []string
	dumpBytecodes bool
	verbosity     int
	entry         string
	args          []string
}

// loadConfig reads the nearest som.toml, if any, and resolves its
// dependencies into the class path.
func loadConfig() (*config, error) {
	cfg := &config{classPath: []string{"."}}

	cwd, err := os.Getwd()
	if err != nil {
		return cfg, nil
	}
	m, err := manifest.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return cfg, nil
	}

	cfg.classPath, err = m.FullClassPath()
	if err != nil {
		return nil, err
	}
	cfg.dumpBytecodes = m.Debug.DumpBytecodes
	cfg.verbosity = m.Log.Verbosity
	cfg.entry = m.Run.Entry
	cfg.args = m.Run.Args
	return cfg, nil
}
