// Command categorize is the external categorizer-program spec.md §6
// describes: it reads a Bag over stdin using the engine's null-terminated
// wire protocol and prints one category token to stdout.
package main

import (
	"fmt"
	"os"

	"seedcurator/internal/categorizer"
	"seedcurator/internal/catproto"
	"seedcurator/internal/regexload"
	"seedcurator/internal/seederr"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "categorize:", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return seederr.Setup(fmt.Errorf("usage: categorize <regex-file>"))
	}
	regexPath := os.Args[1]

	source, err := regexload.Load(regexPath)
	if err != nil {
		return err
	}
	avRegex, err := categorizer.CompileAVRegex(source)
	if err != nil {
		return seederr.Setup(err)
	}

	bag, err := catproto.Decode(os.Stdin, os.Stderr)
	if err != nil {
		return seederr.Setup(err)
	}

	cat, err := categorizer.Classify(bag, avRegex)
	if err != nil {
		return seederr.Setup(err)
	}

	fmt.Println(string(cat))
	return nil
}
