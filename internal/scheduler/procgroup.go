//go:build unix

package scheduler

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// SetupProcessGroup puts a compiler child in its own process group, so
// InterruptProcessGroup can kill an entire chunk compile (including any sub-
// processes gcc/clang spawn for its own internal cc1/as/ld stages) with one
// signal instead of racing each child individually.
func SetupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// InterruptProcessGroup sends SIGINT to the process group rooted at pid,
// the negative-pid convention kill(2)/killpg use.
func InterruptProcessGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGINT)
}

// AutoSizeWorkers probes RLIMIT_NOFILE and returns a worker count that
// leaves headroom for each worker's open file descriptors (compiler
// stdout/stderr pipes plus the chunk's own synthetic source), rather than
// trusting a caller-supplied MaxWorkers of 0 to mean "unbounded". Mirrors
// the teacher's own (never-enabled) syscall.Rlimit probing left as a
// comment in nocc-server.go/daemon.go: here it is wired in rather than
// left commented out, since a local build has no remote operator to
// configure this by hand per machine.
func AutoSizeWorkers(fallback int) int {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return fallback
	}

	const fdsPerWorker = 4
	budget := int(rlimit.Cur) / fdsPerWorker
	if budget < 1 {
		return fallback
	}
	if budget > fallback*4 {
		// a high FD ceiling never raises the count: fallback (typically
		// runtime.NumCPU()) is the upper bound, and the FD budget only
		// lowers it when fewer workers than that can be supported.
		return fallback
	}
	if budget < fallback {
		return budget
	}
	return fallback
}
