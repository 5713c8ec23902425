package main

import (
	"fmt"
	"time"

	"github.com/umputun/dura/pkg/capture"
	"github.com/umputun/dura/pkg/config"
	"github.com/umputun/dura/pkg/daemon"
	"github.com/umputun/dura/pkg/duralog"
	"github.com/umputun/dura/pkg/gitrepo"
)

func verbPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func runWatch(store *config.Store, args []string) error {
	path := verbPath(args)
	if err := store.Watch(path); err != nil {
		return err
	}
	fmt.Println("watching", path)
	return nil
}

func runUnwatch(store *config.Store, args []string) error {
	path := verbPath(args)
	if err := store.Unwatch(path); err != nil {
		return err
	}
	fmt.Println("no longer watching", path)
	return nil
}

func runKill(runtimeDir string) error {
	if err := daemon.RequestShutdown(runtimeDir); err != nil {
		return err
	}
	fmt.Println("shutdown requested")
	return nil
}

// runCaptureOnce runs a single, immediate capture attempt against one repo,
// outside the supervisor loop — useful for scripting and manual testing.
// It reuses that repo's configured filters if it happens to be watched.
func runCaptureOnce(store *config.Store, args []string) error {
	path := verbPath(args)

	repo, err := gitrepo.Open(path)
	if err != nil {
		return err
	}

	doc, err := store.Load()
	if err != nil {
		return err
	}
	repoCfg := doc.Repos[repo.Root()]

	opts := capture.Options{
		Include:                repoCfg.Include,
		Exclude:                repoCfg.Exclude,
		MaxDepth:               repoCfg.MaxDepth,
		CommitAuthor:           doc.CommitAuthor,
		CommitEmail:            doc.CommitEmail,
		CommitExcludeGitConfig: doc.CommitExcludeGitConfig,
	}

	start := time.Now()
	plan, err := capture.Compute(repo, opts)
	if err != nil {
		return err
	}

	res, err := capture.Write(plan, start)
	if err != nil {
		return err
	}

	log := duralog.New()
	if res.NoOp {
		log.NothingToCapture(repo.Root(), start, time.Since(start))
		return nil
	}
	log.Captured(repo.Root(), res.CommitHash.String(), start, time.Since(start))
	return nil
}
