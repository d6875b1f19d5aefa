package report

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/host"
)

// Host identifies the machine a report was sampled on.
type Host struct {
	Hostname        string `json:"Hostname" yaml:"Hostname"`
	OS              string `json:"OS,omitempty" yaml:"OS,omitempty"`
	Platform        string `json:"Platform,omitempty" yaml:"Platform,omitempty"`
	PlatformVersion string `json:"Platform_Version,omitempty" yaml:"Platform_Version,omitempty"`
	KernelVersion   string `json:"Kernel_Version,omitempty" yaml:"Kernel_Version,omitempty"`
}

// hostInfo allows tests to stub gopsutil.
var hostInfo = host.InfoWithContext

// DescribeHost gathers host metadata. On failure it still returns the hostname when the
// OS can provide it.
func DescribeHost(ctx context.Context) (Host, error) {
	info, err := hostInfo(ctx)
	if err != nil || info == nil {
		name, _ := os.Hostname()
		if err == nil {
			err = fmt.Errorf("no host info returned")
		}
		return Host{Hostname: name}, fmt.Errorf("reading host info: %w", err)
	}
	return Host{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
	}, nil
}
