//go:build !unix

package scheduler

import "os/exec"

func SetupProcessGroup(cmd *exec.Cmd) {}

func InterruptProcessGroup(pid int) error { return nil }

func AutoSizeWorkers(fallback int) int { return fallback }
