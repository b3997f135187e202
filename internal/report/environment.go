package report

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"
)

// Row is one environment table line.
type Row struct {
	Key   string
	Value string
}

// Environment describes where a report was produced.
type Environment struct {
	Version   string
	Revision  string
	DeviceID  string
	OS        string
	Arch      string
	GoVersion string
	Host      string
}

// Rows returns the populated fields in display order.
func (e Environment) Rows() []Row {
	all := []Row{
		{Key: "version", Value: e.Version},
		{Key: "build", Value: e.Revision},
		{Key: "device id", Value: e.DeviceID},
		{Key: "os", Value: e.OS},
		{Key: "arch", Value: e.Arch},
		{Key: "go", Value: e.GoVersion},
		{Key: "host", Value: e.Host},
	}
	rows := all[:0]
	for _, r := range all {
		if strings.TrimSpace(r.Value) != "" {
			rows = append(rows, r)
		}
	}
	return rows
}

// CollectEnvironment gathers what is known about the running binary. Every
// lookup is best-effort; failures leave the field empty. An explicit version
// wins over the module version recorded in the build info.
func CollectEnvironment(version, deviceID string) Environment {
	env := Environment{
		Version:   strings.TrimSpace(version),
		DeviceID:  strings.TrimSpace(deviceID),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
	}
	if host, err := os.Hostname(); err == nil {
		env.Host = host
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if env.Version == "" && info.Main.Version != "(devel)" {
			env.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				env.Revision = s.Value
			}
		}
	}
	return env
}
