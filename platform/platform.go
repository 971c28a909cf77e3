// Package platform classifies the host for executor selection.
package platform

import (
	"os"
	"runtime"
	"strings"
)

// Kind identifies the execution platform. The set is closed: every host
// maps to exactly one of the three variants.
type Kind int

const (
	// Windows is a native Windows host (PowerShell execution).
	Windows Kind = iota
	// WSL is a Windows Subsystem for Linux environment, or a Windows host
	// that routes commands through the WSL launcher.
	WSL
	// Unix is a native Linux, macOS, or other Unix-like host.
	Unix
)

// String returns the string representation of the platform kind.
func (k Kind) String() string {
	switch k {
	case Windows:
		return "windows"
	case WSL:
		return "wsl"
	case Unix:
		return "unix"
	default:
		return "unknown"
	}
}

// Info describes the detected host.
type Info struct {
	// Kind is the classified platform.
	Kind Kind

	// OS is runtime.GOOS.
	OS string

	// Arch is runtime.GOARCH.
	Arch string

	// Distro is the WSL distribution name, when known.
	Distro string
}

// Detect classifies the current host. The result is cheap to compute but
// callers are expected to probe once at construction and hold the value.
func Detect() Info {
	return detect(runtime.GOOS, os.Getenv, readProcVersion())
}

// detect is the testable core of Detect.
func detect(goos string, getenv func(string) string, procVersion string) Info {
	info := Info{
		OS:   goos,
		Arch: runtime.GOARCH,
	}

	if goos == "windows" {
		info.Kind = Windows
		return info
	}

	if distro := getenv("WSL_DISTRO_NAME"); distro != "" {
		info.Kind = WSL
		info.Distro = distro
		return info
	}

	if getenv("WSL_INTEROP") != "" || isWSLKernel(procVersion) {
		info.Kind = WSL
		return info
	}

	info.Kind = Unix
	return info
}

// isWSLKernel reports whether a kernel release string names the WSL kernel.
func isWSLKernel(release string) bool {
	release = strings.ToLower(release)
	return strings.Contains(release, "microsoft") || strings.Contains(release, "wsl")
}

// readProcVersion returns the kernel version string on Linux, or "".
func readProcVersion() string {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return ""
	}
	return string(data)
}
