package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"gopkg.in/yaml.v3"

	nikl "github.com/Neko-Nik/Nik-Lang"
)

const (
	appName     = "nikl"
	historyFile = ".nikl_history"
	promptMain  = ">>> "
	scriptExt   = ".nk"
)

func main() {
	if len(os.Args) < 2 {
		os.Exit(cmdRepl())
	}

	switch os.Args[1] {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "usage: %s run <file%s>\n", appName, scriptExt)
			os.Exit(2)
		}
		os.Exit(cmdRun(os.Args[2]))
	case "repl":
		os.Exit(cmdRepl())
	case "version":
		fmt.Println(nikl.Version)
	case "-h", "--help", "help":
		usage()
	default:
		// `nikl script.nk` is shorthand for `nikl run script.nk`
		os.Exit(cmdRun(os.Args[1]))
	}
}

func usage() {
	fmt.Printf(`Nikl %s

Usage:
  %s run <file%s>    Run a script (a directory runs its main%s).
  %s repl            Start the REPL (default with no arguments).
  %s version         Print the version.
`, nikl.Version, appName, scriptExt, scriptExt, appName, appName)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(arg string) int {
	file, ok := resolveScript(arg)
	if !ok {
		return 1
	}

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", file, err)
		return 1
	}

	tokens, err := nikl.Tokenize(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, nikl.WrapErrorWithSource(err, string(src)))
		return 1
	}
	stmts, err := nikl.Parse(tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, nikl.WrapErrorWithSource(err, string(src)))
		return 1
	}

	ip := nikl.New(filepath.Dir(file))
	if _, err := ip.Run(stmts); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing script: %v\n", err)
		return 1
	}
	return 0
}

// resolveScript validates the argument: a directory must contain a main
// script, a file must exist, end in the script extension, and be non-empty.
func resolveScript(arg string) (string, bool) {
	info, err := os.Stat(arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: File '%s' does not exist\n", arg)
		return "", false
	}

	if info.IsDir() {
		main := filepath.Join(arg, "main"+scriptExt)
		if _, err := os.Stat(main); err != nil {
			fmt.Fprintf(os.Stderr, "Error: 'main%s' not found in the specified folder\n", scriptExt)
			return "", false
		}
		return main, true
	}

	if !strings.HasSuffix(arg, scriptExt) {
		fmt.Fprintf(os.Stderr, "Error: File '%s' is not a valid script, it should end with %s\n", arg, scriptExt)
		return "", false
	}
	if info.Size() == 0 {
		fmt.Fprintf(os.Stderr, "Error: File '%s' is empty\n", arg)
		return "", false
	}
	return arg, true
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

// replConfig holds the optional REPL settings read from
// ~/.config/nikl/config.yaml.
type replConfig struct {
	History string `yaml:"history"`
	Prompt  string `yaml:"prompt"`
}

func loadConfig() replConfig {
	cfg := replConfig{Prompt: promptMain}
	home, err := os.UserHomeDir()
	if err != nil {
		return cfg
	}
	cfg.History = filepath.Join(home, historyFile)

	data, err := os.ReadFile(filepath.Join(home, ".config", appName, "config.yaml"))
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s: ignoring bad config: %v\n", appName, err)
		return replConfig{Prompt: promptMain, History: filepath.Join(home, historyFile)}
	}
	if cfg.Prompt == "" {
		cfg.Prompt = promptMain
	}
	if cfg.History == "" {
		cfg.History = filepath.Join(home, historyFile)
	}
	return cfg
}

func ensureHistoryFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func cmdRepl() int {
	fmt.Println("Welcome to Nikl REPL!")
	fmt.Println("To exit, type 'exit' or press Ctrl+D")

	cfg := loadConfig()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if err := ensureHistoryFile(cfg.History); err == nil {
		if f, err := os.Open(cfg.History); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if f, err := os.Create(cfg.History); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = "."
	}
	ip := nikl.New(baseDir)

	for {
		line, err := ln.Prompt(cfg.Prompt)
		if err == liner.ErrPromptAborted {
			fmt.Println("Keyboard Interrupt")
			continue
		}
		if err == io.EOF {
			fmt.Println("Exiting REPL.")
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" {
			break
		}
		ln.AppendHistory(input)

		tokens, err := nikl.Tokenize(input)
		if err != nil {
			fmt.Fprintln(os.Stderr, nikl.WrapErrorWithSource(err, input))
			continue
		}
		stmts, err := nikl.Parse(tokens)
		if err != nil {
			fmt.Fprintln(os.Stderr, nikl.WrapErrorWithSource(err, input))
			continue
		}

		v, err := ip.Run(stmts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
			continue
		}
		if v.Tag != nikl.VTNone {
			fmt.Println(nikl.FormatValue(v))
		}
	}

	return 0
}
