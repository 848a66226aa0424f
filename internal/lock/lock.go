package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	monoverErrors "github.com/monover/monover/internal/errors"
)

// Locker prevents concurrent repo-mutating monover runs against the same
// repository. The lock is a flock'd temp file keyed by the repo path and
// holding the owner's PID, so stale locks from dead processes can be
// reclaimed.
type Locker struct {
	lockFile string
	lockFd   *os.File
	pid      int
	acquired bool
}

// New creates a Locker for the specified repository path
func New(repoPath string) (*Locker, error) {
	if runtime.GOOS == "windows" {
		return nil, monoverErrors.NewLockError("", 0,
			monoverErrors.Wrap(monoverErrors.ErrLockAcquisitionFailure,
				"monover tagging currently only supports Unix-like operating systems"))
	}

	repoHash := fmt.Sprintf("%x", sha256.Sum256([]byte(repoPath)))[:16]
	lockFile := filepath.Join(os.TempDir(), fmt.Sprintf("monover-%s.lock", repoHash))

	return &Locker{
		lockFile: lockFile,
		pid:      os.Getpid(),
	}, nil
}

// Acquire tries to take the lock, reclaiming it when the previous holder
// is no longer running.
func (l *Locker) Acquire() error {
	err := l.tryCreateLock()
	if err == nil {
		return nil
	}
	if os.IsExist(err) {
		return l.tryAcquireExistingLock()
	}
	return err
}

// tryCreateLock attempts to create and lock a new lock file
func (l *Locker) tryCreateLock() error {
	var err error

	// O_EXCL with O_CREATE ensures the file is created atomically
	l.lockFd, err = os.OpenFile(l.lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
	if err != nil {
		// Pass through the original error so os.IsExist() can detect it
		if os.IsExist(err) {
			return err
		}
		return monoverErrors.NewLockError(l.lockFile, 0,
			monoverErrors.Wrap(err, "failed to create lock file"))
	}

	return l.finishAcquire()
}

// tryAcquireExistingLock acquires a lock on an existing lock file
func (l *Locker) tryAcquireExistingLock() error {
	var err error
	l.lockFd, err = os.OpenFile(l.lockFile, os.O_RDWR, 0666)
	if err != nil {
		return monoverErrors.NewLockError(l.lockFile, 0,
			monoverErrors.Wrap(err, "failed to open existing lock file"))
	}

	if err = l.acquireFlock(); err != nil {
		l.closeFileDescriptor()

		// Older Unixes report EWOULDBLOCK distinct from EAGAIN; check both.
		if monoverErrors.Is(err, syscall.EWOULDBLOCK) || monoverErrors.Is(err, syscall.EAGAIN) {
			return l.handleBlockedLock()
		}

		return monoverErrors.NewLockError(l.lockFile, 0,
			monoverErrors.Wrap(err, "failed to acquire lock"))
	}

	if err := l.lockFd.Truncate(0); err != nil {
		_ = l.Release()
		return monoverErrors.NewLockError(l.lockFile, l.pid,
			monoverErrors.Wrap(err, "failed to truncate lock file"))
	}

	if err = l.writePidToLockFile(); err != nil {
		_ = l.Release()
		return err
	}

	l.acquired = true
	return nil
}

// handleBlockedLock inspects a lock held elsewhere: if the recorded PID
// is dead the lock is stale and gets reclaimed.
func (l *Locker) handleBlockedLock() error {
	otherPid, pidErr := l.readLockFilePid()
	if pidErr != nil {
		return monoverErrors.NewLockError(l.lockFile, 0,
			monoverErrors.Wrap(pidErr, "another monover instance is running, but couldn't identify its PID"))
	}

	if isProcessRunning(otherPid) {
		return monoverErrors.NewLockError(l.lockFile, otherPid, monoverErrors.ErrAlreadyRunning)
	}

	return l.reclaimStaleLock(otherPid)
}

// reclaimStaleLock removes and recreates a lock left behind by a dead process
func (l *Locker) reclaimStaleLock(otherPid int) error {
	l.closeFileDescriptor()

	if err := os.Remove(l.lockFile); err != nil {
		return monoverErrors.NewLockError(l.lockFile, otherPid,
			monoverErrors.Wrap(err, fmt.Sprintf("found stale lock file from PID %d, but failed to remove it", otherPid)))
	}

	var err error
	l.lockFd, err = os.OpenFile(l.lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
	if err != nil {
		if os.IsExist(err) {
			return monoverErrors.NewLockError(l.lockFile, 0,
				monoverErrors.Wrap(err, "another monover instance took the lock immediately after we removed the stale lock"))
		}
		return monoverErrors.NewLockError(l.lockFile, 0,
			monoverErrors.Wrap(err, "failed to open lock file after removing stale lock"))
	}

	return l.finishAcquire()
}

// finishAcquire flocks the freshly created lock file and records our PID
func (l *Locker) finishAcquire() error {
	if err := l.acquireFlock(); err != nil {
		l.closeFileDescriptor()
		return monoverErrors.NewLockError(l.lockFile, 0,
			monoverErrors.Wrap(err, "failed to acquire lock on lock file"))
	}

	if err := l.writePidToLockFile(); err != nil {
		_ = l.Release()
		return err
	}

	l.acquired = true
	return nil
}

// acquireFlock gets an exclusive non-blocking lock
func (l *Locker) acquireFlock() error {
	return syscall.Flock(int(l.lockFd.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

// writePidToLockFile writes PID to the lock file
func (l *Locker) writePidToLockFile() error {
	_, err := l.lockFd.WriteAt([]byte(strconv.Itoa(l.pid)), 0)
	if err != nil {
		return monoverErrors.NewLockError(l.lockFile, l.pid,
			monoverErrors.Wrap(err, "failed to write PID to lock file"))
	}
	return nil
}

// closeFileDescriptor closes the lock file descriptor
func (l *Locker) closeFileDescriptor() {
	if l.lockFd != nil {
		_ = l.lockFd.Close()
		l.lockFd = nil
	}
}

// isProcessRunning checks if a process exists using signal 0
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// readLockFilePid reads and parses the PID from the lock file
func (l *Locker) readLockFilePid() (int, error) {
	data, err := os.ReadFile(l.lockFile)
	if err != nil {
		return 0, monoverErrors.Wrap(err, "failed to read lock file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, monoverErrors.Wrap(err, "invalid PID in lock file")
	}
	return pid, nil
}

// Release unlocks, closes, and removes the lock file. Safe to call when
// the lock was never acquired.
func (l *Locker) Release() error {
	if l.lockFd == nil {
		return nil
	}

	var err error
	if flockErr := syscall.Flock(int(l.lockFd.Fd()), syscall.LOCK_UN); flockErr != nil {
		err = monoverErrors.NewLockError(l.lockFile, l.pid,
			monoverErrors.Wrap(flockErr, "failed to release lock"))
	}

	if closeErr := l.lockFd.Close(); closeErr != nil && err == nil {
		err = monoverErrors.NewLockError(l.lockFile, l.pid,
			monoverErrors.Wrap(closeErr, "failed to close lock file"))
	}

	l.lockFd = nil
	l.acquired = false

	// Best-effort cleanup; only report when nothing else went wrong.
	if removeErr := os.Remove(l.lockFile); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
		err = monoverErrors.NewLockError(l.lockFile, l.pid,
			monoverErrors.Wrap(removeErr, "failed to remove lock file"))
	}

	return err
}
