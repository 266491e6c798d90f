// Command fastc compiles, checks, or formats a single FastC source
// file from the command line. It is a thin wrapper over the public
// fastc package API: every real decision (what's an error, what's a
// warning, how to lower and emit) lives in the library, not here.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/skelf-research/fastc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "check":
		runCheck(args)
	case "compile":
		runCompile(args)
	case "format":
		runFormat(args)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fastc <check|compile|format> [flags] <file.fc>")
}

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	safety := fs.String("safety", "standard", "safety level: relaxed, standard, critical")
	strict := fs.Bool("strict", false, "treat warnings as errors")
	color := fs.Bool("color", true, "colorize diagnostics")
	fs.Parse(args)
	path := requirePath(fs)

	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("fastc: %v", err)
	}

	opts := fastc.DefaultOptions()
	opts.SafetyLevel = parseSafety(*safety)
	opts.Strict = *strict

	diags := fastc.Check(path, src, fastc.FileLoader{Root: filepath.Dir(path)}, opts)
	reportAndExit(diags, *color)
}

func runCompile(args []string) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	out := fs.String("o", "", "output .c path (defaults to the input name with .c)")
	header := fs.Bool("header", true, "also emit a .h file")
	safety := fs.String("safety", "standard", "safety level: relaxed, standard, critical")
	strict := fs.Bool("strict", false, "treat warnings as errors")
	runtimeInclude := fs.String("runtime-include", "", "extra #include for a hand-written runtime")
	color := fs.Bool("color", true, "colorize diagnostics")
	fs.Parse(args)
	path := requirePath(fs)

	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("fastc: %v", err)
	}

	opts := fastc.DefaultOptions()
	opts.SafetyLevel = parseSafety(*safety)
	opts.Strict = *strict
	opts.EmitHeader = *header
	opts.RuntimeInclude = *runtimeInclude

	cOutPath := *out
	if cOutPath == "" {
		cOutPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".c"
	}
	opts.HeaderName = strings.TrimSuffix(filepath.Base(cOutPath), ".c") + ".h"

	cSource, hSource, diags := fastc.Compile(path, src, fastc.FileLoader{Root: filepath.Dir(path)}, opts)
	hasErr := reportOnly(diags, *color)
	if hasErr {
		os.Exit(1)
	}

	if err := os.WriteFile(cOutPath, []byte(cSource), 0o644); err != nil {
		log.Fatalf("fastc: %v", err)
	}
	if opts.EmitHeader {
		hOutPath := filepath.Join(filepath.Dir(cOutPath), opts.HeaderName)
		if err := os.WriteFile(hOutPath, []byte(hSource), 0o644); err != nil {
			log.Fatalf("fastc: %v", err)
		}
	}
}

func runFormat(args []string) {
	fs := flag.NewFlagSet("format", flag.ExitOnError)
	write := fs.Bool("w", false, "overwrite the input file instead of printing to stdout")
	fs.Parse(args)
	path := requirePath(fs)

	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("fastc: %v", err)
	}
	formatted, diags := fastc.Format(src)
	if reportOnly(diags, true) {
		os.Exit(1)
	}
	if *write {
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			log.Fatalf("fastc: %v", err)
		}
		return
	}
	fmt.Print(formatted)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	return fs.Arg(0)
}

func parseSafety(s string) fastc.SafetyLevel {
	switch s {
	case "relaxed":
		return fastc.SafetyRelaxed
	case "critical":
		return fastc.SafetyCritical
	default:
		return fastc.SafetyStandard
	}
}

func reportAndExit(diags []fastc.Diagnostic, color bool) {
	if reportOnly(diags, color) {
		os.Exit(1)
	}
}

// reportOnly prints every diagnostic and reports whether any of them
// was an error.
func reportOnly(diags []fastc.Diagnostic, color bool) bool {
	bag := &fastc.DiagnosticBag{}
	for _, d := range diags {
		bag.Add(d)
	}
	fmt.Fprint(os.Stderr, fastc.RenderBag(bag, color))
	return bag.HasErrors()
}
