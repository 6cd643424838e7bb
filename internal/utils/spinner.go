package utils

import (
	"os"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/sys/unix"
)

// WithSpinner runs function exactly once under a console spinner, for
// callers whose function already loops internally. The spinner is
// suppressed when the process is not the foreground process of a
// terminal, so output stays clean under cron or when piped into a file.
func WithSpinner(message string, function func() error) error {
	spin := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	spin.Prefix = message
	spin.FinalMSG = message + "\n"

	if IsRunningInForegroundOrDefault() {
		spin.Start()
	}

	err := function()

	spin.Stop()

	return err
}

// NewSpinner runs function under a console spinner until it succeeds or the
// retries are exhausted.
func NewSpinner(message string, maxRetries int, function func() error) error {
	return WithSpinner(message, func() error {
		return RetryError(time.Second, maxRetries, function)
	})
}

func IsRunningInForegroundOrDefault() bool {
	// Get the foreground process group ID of the terminal
	foregroundPGID, err := unix.IoctlGetInt(int(os.Stdout.Fd()), unix.TIOCGPGRP)
	if err != nil {
		// spinner running by default
		return true
	}

	// Get the process group ID of the current process
	currentPGID := syscall.Getpgrp()

	// Check if the process is in the foreground
	return currentPGID == foregroundPGID
}
