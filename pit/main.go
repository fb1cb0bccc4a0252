// Command pit is a personal investment tracker.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/pit/cmd"
	"github.com/etnz/pit/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// Answers shell completion requests, and exits, when COMP_LINE is set.
	completion(commander).Complete("pit")

	flag.Parse()

	if name := flag.Arg(0); name != "" && !registered(commander, name) {
		if ok, code := cmd.RunExtension(name, flag.Args()[1:]); ok {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

func registered(commander *subcommands.Commander, name string) (found bool) {
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		found = found || c.Name() == name
	})
	return found
}

// completion describes the subcommands and their flags for the shell.
func completion(commander *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flags(flag.CommandLine),
	}
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: flags(fs)}
		switch c.Name() {
		case "import":
			sub.Args = predict.Files("*.jsonl")
		case "settings":
			sub.Args = predict.Set{"base_currency"}
		case "topic":
			sub.Args = predict.Set(append(docs.List(), "*"))
		}
		root.Sub[c.Name()] = sub
	})
	return root
}

var periods = predict.Set{"day", "week", "month", "quarter", "year"}

func flags(fs *flag.FlagSet) map[string]complete.Predictor {
	m := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			m[f.Name] = predict.Nothing
			return
		}
		switch f.Name {
		case "config":
			m[f.Name] = predict.Files("*.toml")
		case "db":
			m[f.Name] = predict.Files("*.db")
		case "o":
			m[f.Name] = predict.Files("*.jsonl")
		case "chart":
			m[f.Name] = predict.Files("*")
		default:
			m[f.Name] = predict.Something
		}
	})
	if p := fs.Lookup("p"); p != nil && p.DefValue != "" {
		// only the report commands have a default period.
		m["p"] = periods
	}
	return m
}
