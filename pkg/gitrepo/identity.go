package gitrepo

import (
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Identity is the author/committer pair stamped onto every capture commit.
type Identity struct {
	Name  string
	Email string
}

// sentinelIdentity is used when commit_exclude_git_config is set and when
// no VCS identity can be resolved at all, so capture never fails for want
// of an author line (§4.3 step 10).
var sentinelIdentity = Identity{Name: "dura", Email: "dura@github.io"}

// ResolveIdentity picks the commit identity for a capture on this repo,
// following the precedence of §4.3 step 10:
//  1. commitAuthor, when set — also used as the email unless commitEmail
//     is set too, since a single configured value serves double duty.
//  2. the sentinel identity, when commitExcludeGitConfig is set.
//  3. the repository's own user.name/user.email, falling back to the
//     user's global gitconfig, falling back to the sentinel.
func ResolveIdentity(root string, commitAuthor, commitEmail string, commitExcludeGitConfig bool) Identity {
	globalConfig := ""
	if home, err := os.UserHomeDir(); err == nil {
		globalConfig = filepath.Join(home, ".gitconfig")
	}
	return resolveIdentity(root, commitAuthor, commitEmail, commitExcludeGitConfig, globalConfig)
}

// resolveIdentity is ResolveIdentity with the global gitconfig path
// injected, so tests can point it at a fixture instead of the real user's
// home directory.
func resolveIdentity(root string, commitAuthor, commitEmail string, commitExcludeGitConfig bool, globalConfigPath string) Identity {
	if commitAuthor != "" {
		email := commitEmail
		if email == "" {
			email = commitAuthor
		}
		return Identity{Name: commitAuthor, Email: email}
	}
	if commitExcludeGitConfig {
		return sentinelIdentity
	}
	if id, ok := identityFromConfig(filepath.Join(root, ".git", "config")); ok {
		return id
	}
	if globalConfigPath != "" {
		if id, ok := identityFromConfig(globalConfigPath); ok {
			return id
		}
	}
	return sentinelIdentity
}

// identityFromConfig reads a [user] name/email pair out of a plain INI-style
// git config file. Returns ok=false if the file is missing, unreadable, or
// has neither field set.
func identityFromConfig(path string) (Identity, bool) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Identity{}, false
	}

	section := cfg.Section("user")
	name := section.Key("name").String()
	email := section.Key("email").String()
	if name == "" && email == "" {
		return Identity{}, false
	}
	return Identity{Name: name, Email: email}, true
}
