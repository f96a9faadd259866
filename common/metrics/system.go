package metrics

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// captureSystemInfo probes the host once at startup. The service deploys on
// Linux; elsewhere the Go runtime values stand in and the file probes return
// their fallbacks.
func captureSystemInfo() *SystemInfo {
	info := &SystemInfo{
		OS:        runtime.GOOS,
		OSVersion: osVersion(),
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		GoVersion: runtime.Version(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	} else {
		info.Hostname = "unknown"
	}

	info.TotalMemoryMB = totalMemoryMB()
	info.InContainer, info.ContainerRuntime = detectContainer()

	return info
}

// osVersion reads the distribution name from /etc/os-release
func osVersion() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return runtime.GOOS
	}

	var name, version string
	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, "PRETTY_NAME="):
			return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), `"`)
		case strings.HasPrefix(line, "NAME="):
			name = strings.Trim(strings.TrimPrefix(line, "NAME="), `"`)
		case strings.HasPrefix(line, "VERSION="):
			version = strings.Trim(strings.TrimPrefix(line, "VERSION="), `"`)
		}
	}
	if name != "" {
		return strings.TrimSpace(name + " " + version)
	}
	return runtime.GOOS
}

// totalMemoryMB reads MemTotal from /proc/meminfo, zero when unavailable
func totalMemoryMB() uint64 {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}

// detectContainer reports whether the process runs inside a container and
// which runtime put it there. kubepods is checked before docker because
// Kubernetes nodes often run docker underneath.
func detectContainer() (bool, string) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "docker"
	}
	if _, err := os.Stat("/var/run/secrets/kubernetes.io"); err == nil {
		return true, "kubernetes"
	}

	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		switch {
		case strings.Contains(content, "kubepods"):
			return true, "kubernetes"
		case strings.Contains(content, "docker"):
			return true, "docker"
		case strings.Contains(content, "containerd"):
			return true, "containerd"
		}
	}

	return false, ""
}
