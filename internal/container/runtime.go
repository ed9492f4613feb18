// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container locates a usable container engine (docker or podman)
// for extraction backends that run as images.
package container

import (
	"fmt"
	"io"
	"os/exec"
)

// Runtime is a detected container engine. The zero value is not usable;
// construct one through DetectRuntime.
type Runtime struct {
	bin        string
	existsArgs []string

	lookPath  func(file string) (string, error)
	runSilent func(name string, args ...string) error
	runPiped  func(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

func newRuntime(bin string, existsArgs ...string) *Runtime {
	return &Runtime{
		bin:        bin,
		existsArgs: existsArgs,
		lookPath:   exec.LookPath,
		runSilent: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
		runPiped: func(name string, args []string, stdin io.Reader, stdout io.Writer) error {
			cmd := exec.Command(name, args...)
			cmd.Stdin = stdin
			cmd.Stdout = stdout
			return cmd.Run()
		},
	}
}

// engines lists the supported runtimes in preference order. Docker and
// podman differ only in the image-existence subcommand.
func engines() []*Runtime {
	return []*Runtime{
		newRuntime("docker", "image", "inspect"),
		newRuntime("podman", "image", "exists"),
	}
}

// Name returns the engine binary name.
func (r *Runtime) Name() string { return r.bin }

// available reports whether the binary is on PATH and answers an info
// probe. A binary that exists but cannot reach its daemon is unavailable.
func (r *Runtime) available() bool {
	if _, err := r.lookPath(r.bin); err != nil {
		return false
	}
	return r.runSilent(r.bin, "info") == nil
}

// ImageExists returns nil when the image is present locally.
func (r *Runtime) ImageExists(image string) error {
	args := append(append([]string(nil), r.existsArgs...), image)
	if err := r.runSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

// Run executes the image once, piping stdin through to stdout. The
// container is removed on exit.
func (r *Runtime) Run(image string, stdin io.Reader, stdout io.Writer) error {
	if err := r.runPiped(r.bin, []string{"run", "--rm", "-i", image}, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

// DetectRuntime returns the first operational engine, docker before
// podman.
func DetectRuntime() (*Runtime, error) {
	return pick(engines())
}

func pick(candidates []*Runtime) (*Runtime, error) {
	for _, rt := range candidates {
		if rt.available() {
			return rt, nil
		}
	}
	return nil, fmt.Errorf("no container runtime available: neither docker nor podman found or operational")
}
