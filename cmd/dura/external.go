package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/umputun/dura/pkg/extverb"
)

// runExternalVerb passes an unrecognized verb through to a dura-<verb>
// binary on PATH, the way git dispatches to git-<subcommand> (§6).
func runExternalVerb(ctx context.Context, verb string, args []string) error {
	dispatcher := extverb.NewDispatcher()

	code, err := dispatcher.Dispatch(ctx, verb, args)
	if errors.Is(err, extverb.ErrNotFound) {
		return fmt.Errorf("unknown verb %q (no dura-%s on PATH)", verb, verb)
	}
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
