// Command templategen writes the bracket template table used by package brackets.
//
//	go run ./cmd/templategen -out brackets/templates.yaml
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Dosada05/tennis-tournament/brackets"
)

func main() {
	out := flag.String("out", "templates.yaml", "output file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := write(*out); err != nil {
		logger.Error("failed to generate templates", slog.String("out", *out), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("templates generated", slog.String("out", *out),
		slog.Int("count", brackets.MaxPlayers-brackets.MinPlayers+1))
}

func write(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := writeTable(w); err != nil {
		return err
	}
	return w.Flush()
}

func writeTable(w io.Writer) error {
	fmt.Fprintln(w, "# Code generated by cmd/templategen. DO NOT EDIT.")
	fmt.Fprintln(w, "# Second-round slots of the draw: 0 = preliminary match, 1 = bye.")
	fmt.Fprintln(w, "templates:")
	for n := brackets.MinPlayers; n <= brackets.MaxPlayers; n++ {
		p, err := brackets.LayoutTemplate(n)
		if err != nil {
			return fmt.Errorf("layout %d: %w", n, err)
		}
		fmt.Fprintf(w, "  %d: %q\n", n, p.String())
	}
	return nil
}
