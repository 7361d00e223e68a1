package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	fenics "github.com/nekoniyah/Fenics-Lang"
)

const (
	appName     = "fenics"
	historyFile = ".fenics_history"
	promptMain  = ">>> "
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl())
	case "version":
		fmt.Println(fenics.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Fenics %s

Usage:
  %s run <file.fenics>    Run a script.
  %s repl                 Start the REPL.
  %s version              Print the version.

`, fenics.Version, appName, appName, appName)
}

// newInterpreter builds an engine with the reference bridges registered and
// any fenics.yaml manifest next to the entry script applied.
func newInterpreter(scriptDir string) *fenics.Interpreter {
	in := fenics.NewInterpreter()
	in.RegisterBridge("fs", fenics.NewFSBridge())
	in.RegisterBridge("http", fenics.NewHTTPBridge(nil))

	if scriptDir != "" {
		m, err := fenics.LoadManifest(scriptDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		} else if m != nil {
			in.SetModulePaths(m.ModulePaths)
		}
	}
	return in
}

func cmdRun(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file.fenics>\n", appName)
		return 2
	}
	file := args[0]
	abs := file
	if a, err := filepath.Abs(file); err == nil {
		abs = a
	}
	in := newInterpreter(filepath.Dir(abs))
	return in.RunFile(abs)
}

func cmdRepl() int {
	fmt.Printf("Fenics %s REPL. Ctrl+D exits.\n", fenics.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	cwd, _ := os.Getwd()
	in := newInterpreter(cwd)

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if err != nil {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		v, evalErr := in.EvalPersistent(line)
		if evalErr != nil {
			fmt.Fprintln(os.Stderr, fenics.WrapErrorWithSource(evalErr, line).Error())
			continue
		}
		fmt.Println(fenics.FormatValue(v))
		ln.AppendHistory(line)
	}
}
