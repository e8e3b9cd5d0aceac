package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	dircast "github.com/mattkeenan/dircast/pkg"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one dcastfind invocation and returns the exit status
func run(argv []string, stdout, stderr io.Writer) int {
	if len(argv) < 1 {
		showUsage(stderr)
		return 1
	}

	switch argv[0] {
	case "--help", "-h", "help":
		showHelp(stdout)
		return 0
	}

	args, err := parseArguments(argv)
	if err != nil {
		fmt.Fprintf(stderr, "dcastfind: %v\n", err)
		return 1
	}

	status := 0
	for _, source := range args.StartingPoints {
		if err := processSource(source, args, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "dcastfind: %s: %v\n", source, err)
			status = 1
		}
	}
	return status
}

func showUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: dcastfind CAST... [expressions]\n")
	fmt.Fprintf(w, "Try 'dcastfind --help' for more information.\n")
}

func showHelp(w io.Writer) {
	fmt.Fprintf(w, "dcastfind - find-style queries over dircast casts\n\n")
	fmt.Fprintf(w, "Usage: dcastfind CAST... [expressions]\n\n")
	fmt.Fprintf(w, "CAST is a saved cast file or a directory, which is cast on the fly.\n\n")

	fmt.Fprintf(w, "TESTS:\n")
	fmt.Fprintf(w, "  --name PATTERN        Match entry name (glob)\n")
	fmt.Fprintf(w, "  --iname PATTERN       Case-insensitive name match\n")
	fmt.Fprintf(w, "  --path PATTERN        Match path relative to the cast root (glob)\n")
	fmt.Fprintf(w, "  --ipath PATTERN       Case-insensitive path match\n")
	fmt.Fprintf(w, "  --size [+-]N[ckMG]    Size comparison (directories use their total)\n")
	fmt.Fprintf(w, "  --empty               Empty files and directories\n")
	fmt.Fprintf(w, "  --type d|f            Entry kind\n")
	fmt.Fprintf(w, "  --hash HASH           Exact digest or checksum match\n")
	fmt.Fprintf(w, "  --hash-prefix PREFIX  Digest starts with prefix\n\n")

	fmt.Fprintf(w, "ACTIONS:\n")
	fmt.Fprintf(w, "  --print               Print path (default)\n")
	fmt.Fprintf(w, "  --print0              Print null-terminated paths\n")
	fmt.Fprintf(w, "  --ls                  Detailed listing\n")
	fmt.Fprintf(w, "  --printf FORMAT       Custom format output\n\n")

	fmt.Fprintf(w, "OPERATORS:\n")
	fmt.Fprintf(w, "  --and                 Logical AND (implicit)\n")
	fmt.Fprintf(w, "  --or                  Logical OR\n")
	fmt.Fprintf(w, "  --not, !              Logical NOT\n")
	fmt.Fprintf(w, "  ( ... )               Grouping\n\n")

	fmt.Fprintf(w, "GLOBAL OPTIONS:\n")
	fmt.Fprintf(w, "  --maxdepth N          Descend at most N levels below the root\n")
	fmt.Fprintf(w, "  --mindepth N          Skip entries less than N levels deep\n\n")

	fmt.Fprintf(w, "PRINTF FORMAT SPECIFIERS:\n")
	fmt.Fprintf(w, "  %%p - Path              %%s - Size in bytes\n")
	fmt.Fprintf(w, "  %%f - Name              %%a - Checksum or subdirectory count\n")
	fmt.Fprintf(w, "  %%h - Parent path       %%b - Digest or file count\n")
	fmt.Fprintf(w, "  %%y - Kind (d or f)     %%i - Cast source\n")
	fmt.Fprintf(w, "  %%d - Depth             %%%% - Literal %%\n")
	fmt.Fprintf(w, "  Escape sequences: \\n (newline), \\t (tab), \\r (carriage return), \\0 (NUL)\n\n")

	fmt.Fprintf(w, "EXAMPLES:\n")
	fmt.Fprintf(w, "  dcastfind tree.cast --name \"*.go\"              # Find Go files\n")
	fmt.Fprintf(w, "  dcastfind tree.cast --size +100M --ls          # Large entries\n")
	fmt.Fprintf(w, "  dcastfind tree.cast --type d --empty           # Empty directories\n")
	fmt.Fprintf(w, "  dcastfind tree.cast --printf \"%%b  %%p\\n\"         # sha256sum-style listing\n")
}

// Arguments represents parsed command line arguments
type Arguments struct {
	StartingPoints []string
	Expression     Expression
	Actions        []Action
	GlobalOptions  GlobalOptions
}

// GlobalOptions represents global dcastfind options
type GlobalOptions struct {
	MaxDepth int // -1 for unlimited
	MinDepth int
}

func parseArguments(args []string) (*Arguments, error) {
	result := &Arguments{
		GlobalOptions: GlobalOptions{MaxDepth: -1},
	}

	i := 0
	// Starting points are everything before the first option or operator
	for i < len(args) && !strings.HasPrefix(args[i], "-") && args[i] != "!" && args[i] != "(" {
		result.StartingPoints = append(result.StartingPoints, args[i])
		i++
	}
	if len(result.StartingPoints) == 0 {
		return nil, fmt.Errorf("no cast specified")
	}

	parser := &ExpressionParser{
		tokens:     args[i:],
		globalArgs: make(map[string]string),
	}
	expr, err := parser.parse()
	if err != nil {
		return nil, err
	}

	for option, value := range parser.globalArgs {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s requires a non-negative integer, got %q", option, value)
		}
		switch option {
		case "--maxdepth":
			result.GlobalOptions.MaxDepth = n
		case "--mindepth":
			result.GlobalOptions.MinDepth = n
		}
	}

	result.Expression = expr
	result.Actions = parser.actions
	if len(result.Actions) == 0 {
		result.Actions = []Action{&PrintAction{}}
	}
	return result, nil
}

// processSource loads one starting point and runs the expression over it
func processSource(source string, args *Arguments, stdout, stderr io.Writer) error {
	c, err := dircast.OpenSource(context.Background(), source, dircast.BuildOptions{})
	if err != nil {
		return err
	}

	var actionErr error
	dircast.IterateCast(c, func(info *dircast.EntryInfo) bool {
		if args.GlobalOptions.MaxDepth >= 0 && info.Depth > args.GlobalOptions.MaxDepth {
			return true
		}
		if info.Depth < args.GlobalOptions.MinDepth {
			return true
		}

		ctx := &EvalContext{Source: source, Cast: c, Out: stdout}
		if args.Expression != nil && !args.Expression.Evaluate(info, ctx) {
			return true
		}
		for _, action := range args.Actions {
			if err := action.Execute(info, ctx); err != nil {
				actionErr = fmt.Errorf("action %s failed for %s: %w", action, displayPath(info.Path), err)
				return false
			}
		}
		return true
	})
	return actionErr
}
