// Command transform extracts the stage array from a raw league schedule
// download so it can be dropped into SEASONS_DIR.
//
//	transform -in 2019.json -out data/stages-2019.json
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"pythag-league/internal/logger"
	"pythag-league/internal/season"
)

func main() {
	in := flag.String("in", "", "raw season download (default stdin)")
	out := flag.String("out", "", "stages output file (default stdout)")
	flag.Parse()

	log := logger.NewTo(os.Stderr, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	if err := run(*in, *out, os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Str("in", *in).Str("out", *out).Msg("transform failed")
	}
	log.Info().Str("in", *in).Str("out", *out).Msg("stages extracted")
}

func run(inPath, outPath string, stdin io.Reader, stdout io.Writer) error {
	r := stdin
	if inPath != "" {
		f, err := os.Open(inPath)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if outPath == "" {
		return season.ExtractStages(r, stdout)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := season.ExtractStages(r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
