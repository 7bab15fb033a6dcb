package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"
)

// registryLock is the advisory lock file format claiming exclusive write
// access to the registry document for one load-mutate-save cycle.
type registryLock struct {
	Holder    string    `json:"holder"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
}

const (
	lockRetryInterval = 100 * time.Millisecond
	lockWaitTimeout   = 5 * time.Second
)

// AcquireLock creates an advisory lock file next to the registry document.
// If another live process holds the lock it waits briefly for release;
// locks held by dead processes are treated as stale and overwritten.
// Returns the lock file path for ReleaseLock.
func AcquireLock(ctx context.Context, registryPath string) (string, error) {
	lockPath := registryPath + ".lock"
	deadline := time.Now().Add(lockWaitTimeout)

	for {
		held, holder := lockHeld(lockPath)
		if !held {
			if err := writeLock(lockPath); err != nil {
				return "", err
			}
			return lockPath, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("registry is locked by %s (PID %d on %s, started %s)",
				holder.Holder, holder.PID, holder.Hostname, holder.StartedAt.Format(time.RFC3339))
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// ReleaseLock removes the advisory lock file. Use with defer after a
// successful AcquireLock.
func ReleaseLock(lockPath string) error {
	if lockPath == "" {
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing registry lock: %w", err)
	}
	return nil
}

func writeLock(lockPath string) error {
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("getting hostname: %w", err)
	}

	lock := registryLock{
		Holder:    "trustgate",
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lock: %w", err)
	}

	if err := os.WriteFile(lockPath, data, 0644); err != nil {
		return fmt.Errorf("creating registry lock: %w", err)
	}

	return nil
}

// lockHeld reports whether a live process holds the lock at lockPath.
// Unparseable lock files count as stale.
func lockHeld(lockPath string) (bool, registryLock) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return false, registryLock{}
	}

	var lock registryLock
	if json.Unmarshal(data, &lock) != nil {
		return false, registryLock{}
	}

	return isProcessAlive(lock.PID, lock.Hostname), lock
}

// isProcessAlive checks whether the lock holder still exists. Remote hosts
// cannot be checked, so their locks are assumed live (fail-safe).
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		return true
	}

	if !strings.EqualFold(hostname, currentHost) {
		return true
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 probes for existence without sending anything.
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	// EPERM means the process exists but belongs to another user.
	return err == syscall.EPERM
}
