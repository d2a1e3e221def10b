// Package platform hands entry links to the desktop: the default browser or
// the clipboard.
package platform

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var (
	ErrNoLink      = errors.New("entry has no link")
	ErrNoClipboard = errors.New("no clipboard command available")
)

// ValidateEntryURL checks that a feed item link can be handed to a browser.
// Protocol-relative links ("//host/path") are upgraded to https.
func ValidateEntryURL(raw string) (string, error) {
	link := strings.TrimSpace(raw)
	if link == "" {
		return "", ErrNoLink
	}
	if strings.HasPrefix(link, "//") {
		link = "https:" + link
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", link, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported link scheme: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("link has no host: %q", link)
	}
	return link, nil
}

func OpenURLInBrowser(link string) error {
	name, args := browserCommand(runtime.GOOS, link)
	if err := exec.Command(name, args...).Run(); err != nil {
		return fmt.Errorf("open with %s: %w", name, err)
	}
	return nil
}

func browserCommand(goos, link string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{link}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}
	default:
		return "xdg-open", []string{link}
	}
}

func CopyURLToClipboard(link string) error {
	argv, err := clipboardCommand(exec.LookPath, os.Getenv)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(link)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("copy with %s: %w", argv[0], err)
	}
	return nil
}

// clipboardCommand picks the first installed clipboard tool. Wayland sessions
// try wl-copy before the X11 tools.
func clipboardCommand(lookPath func(string) (string, error), getenv func(string) string) ([]string, error) {
	candidates := [][]string{
		{"pbcopy"},
		{"xclip", "-selection", "clipboard"},
		{"xsel", "--clipboard", "--input"},
		{"wl-copy"},
	}
	if getenv("WAYLAND_DISPLAY") != "" {
		candidates = append([][]string{{"wl-copy"}}, candidates[:3]...)
	}
	for _, argv := range candidates {
		if _, err := lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, ErrNoClipboard
}
