// Package arch models the machine/OS part of the scope filter: which
// operating systems and CPU architectures can run a candidate
// implementation on the current host, and how well each fits.
//
// Lower rank is better. Rank 1 is an exact match; compatible but less
// preferred values get higher ranks; absence from the rank table means
// the candidate cannot run here at all.
package arch

import (
	"fmt"
	"runtime"
)

// machineCompat lists, per host machine, the runnable machines from most
// to least preferred (the host itself first). Derived from the usual
// multi-arch rules: an x86-64 can run every older x86, a 64-bit ARM can
// run its 32-bit predecessors, and so on.
var machineCompat = map[string][]string{
	"i386":    {"i386"},
	"i486":    {"i486", "i386"},
	"i586":    {"i586", "i486", "i386"},
	"i686":    {"i686", "i586", "i486", "i386"},
	"x86_64":  {"x86_64", "i686", "i586", "i486", "i386"},
	"ppc":     {"ppc"},
	"ppc64":   {"ppc64", "ppc"},
	"armv6l":  {"armv6l"},
	"armv7l":  {"armv7l", "armv6l"},
	"aarch64": {"aarch64", "armv7l", "armv6l"},
}

// goMachine maps Go's GOARCH names onto feed machine names.
var goMachine = map[string]string{
	"386":   "i686",
	"amd64": "x86_64",
	"arm":   "armv7l",
	"arm64": "aarch64",
	"ppc64": "ppc64",
}

// goOS maps Go's GOOS names onto feed OS names.
var goOS = map[string]string{
	"linux":   "Linux",
	"darwin":  "Darwin",
	"freebsd": "FreeBSD",
	"windows": "Windows",
}

// posixLike OSes additionally accept candidates declaring "POSIX".
var posixLike = map[string]bool{
	"Linux":   true,
	"Darwin":  true,
	"FreeBSD": true,
}

// Architecture is the resolved scope filter for one solve: rank tables
// for OS and machine. Immutable once constructed.
type Architecture struct {
	// OSRanks maps acceptable OS names to preference ranks. The empty
	// name (feed declared no OS) is always acceptable.
	OSRanks map[string]int

	// MachineRanks maps acceptable machine names to preference ranks.
	// The empty name is always acceptable.
	MachineRanks map[string]int
}

// Get returns the architecture for the given OS and machine names. Empty
// arguments fall back to the host values.
func Get(os, machine string) *Architecture {
	if os == "" {
		os = HostOS()
	}
	if machine == "" {
		machine = HostMachine()
	}

	osRanks := map[string]int{os: 1, "": 2}
	if posixLike[os] {
		osRanks["POSIX"] = 2
		osRanks[""] = 3
	}

	machineRanks := map[string]int{"": len(machineCompat[machine]) + 1}
	for i, m := range machineCompat[machine] {
		machineRanks[m] = i + 1
	}
	if _, known := machineCompat[machine]; !known {
		machineRanks[machine] = 1
	}

	return &Architecture{OSRanks: osRanks, MachineRanks: machineRanks}
}

// Source returns a copy of a whose machine ranks accept only "src",
// used for the root role when solving for source code.
func (a *Architecture) Source() *Architecture {
	return &Architecture{
		OSRanks:      a.OSRanks,
		MachineRanks: map[string]int{"src": 1},
	}
}

// OSRank returns the preference rank for an OS name, or false if
// implementations for that OS cannot run here.
func (a *Architecture) OSRank(os string) (int, bool) {
	r, ok := a.OSRanks[os]
	return r, ok
}

// MachineRank returns the preference rank for a machine name, or false
// if implementations for that machine cannot run here.
func (a *Architecture) MachineRank(machine string) (int, bool) {
	r, ok := a.MachineRanks[machine]
	return r, ok
}

// Supports reports whether an implementation declaring the given OS and
// machine (either may be empty, meaning any) can run here.
func (a *Architecture) Supports(os, machine string) bool {
	if _, ok := a.OSRanks[os]; !ok {
		return false
	}
	_, ok := a.MachineRanks[machine]
	return ok
}

func (a *Architecture) String() string {
	return fmt.Sprintf("arch(%d os, %d machines)", len(a.OSRanks), len(a.MachineRanks))
}

// HostOS returns the feed OS name for the running system.
func HostOS() string {
	if name, ok := goOS[runtime.GOOS]; ok {
		return name
	}
	return runtime.GOOS
}

// HostMachine returns the feed machine name for the running system.
func HostMachine() string {
	if name, ok := goMachine[runtime.GOARCH]; ok {
		return name
	}
	return runtime.GOARCH
}
