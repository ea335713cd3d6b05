package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// browserCommand returns the launcher for the current platform.
func browserCommand(url string) (string, []string, error) {
	switch rt := getRuntime(); rt {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Used by the auth commands to start OAuth consent flows.
func OpenBrowser(url string) error {
	name, args, err := browserCommand(url)
	if err != nil {
		return err
	}

	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
