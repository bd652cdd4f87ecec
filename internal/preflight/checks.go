package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable. A missing directory passes when its nearest existing
// ancestor is writable, since runs create their directories on demand.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if parentWritable(path) {
				return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
			}
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist and parent is not writable)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCookiesFile verifies the authentication cookie export exists and holds
// content. Runs refuse to launch the fetch tool without it.
func CheckCookiesFile(path string) Result {
	const name = "Cookies file"
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (missing; export browser cookies)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if info.Size() == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (empty; re-export browser cookies)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, info.Size())}
}

// CheckArchiveWritable verifies the download ledger can be appended to, or
// created where it does not exist yet.
func CheckArchiveWritable(path string) Result {
	const name = "Archive ledger"
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if parentWritable(path) {
				return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
			}
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: parent directory not writable)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (appendable)", path)}
}

// parentWritable walks up to the nearest existing ancestor and checks write
// access on it.
func parentWritable(path string) bool {
	dir := filepath.Dir(path)
	for {
		if info, err := os.Stat(dir); err == nil {
			return info.IsDir() && unix.Access(dir, unix.W_OK|unix.X_OK) == nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}
