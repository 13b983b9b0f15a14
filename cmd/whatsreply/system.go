package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// systemClipboard shells out to the platform clipboard tools.
type systemClipboard struct{}

func (systemClipboard) WriteText(ctx context.Context, s string) error {
	name, args, err := firstAvailable(copyCommands())
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(s)
	return cmd.Run()
}

func (systemClipboard) ReadText(ctx context.Context) (string, error) {
	name, args, err := firstAvailable(pasteCommands())
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// systemLauncher opens URIs with the desktop handler.
type systemLauncher struct{}

func (systemLauncher) CanOpen(ctx context.Context, uri string) bool {
	name, _, err := firstAvailable(openCommands())
	if err != nil {
		return false
	}
	// xdg-mime can tell whether a scheme has a handler; elsewhere assume it does.
	if name == "xdg-open" {
		scheme, _, _ := strings.Cut(uri, ":")
		out, err := exec.CommandContext(ctx, "xdg-mime", "query", "default", "x-scheme-handler/"+scheme).Output()
		return err == nil && strings.TrimSpace(string(out)) != ""
	}
	return true
}

func (systemLauncher) Open(ctx context.Context, uri string) error {
	name, args, err := firstAvailable(openCommands())
	if err != nil {
		return err
	}
	return exec.CommandContext(ctx, name, append(args, uri)...).Run()
}

var errNoTool = errors.New("no supported system tool found")

func firstAvailable(cmds [][]string) (string, []string, error) {
	for _, c := range cmds {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c[0], c[1:], nil
		}
	}
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c[0])
	}
	return "", nil, fmt.Errorf("%w (tried %s)", errNoTool, strings.Join(names, ", "))
}

func copyCommands() [][]string {
	switch runtime.GOOS {
	case "darwin":
		return [][]string{{"pbcopy"}}
	case "windows":
		return [][]string{{"clip"}}
	}
	return [][]string{{"wl-copy"}, {"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}}
}

func pasteCommands() [][]string {
	switch runtime.GOOS {
	case "darwin":
		return [][]string{{"pbpaste"}}
	case "windows":
		return [][]string{{"powershell", "-NoProfile", "-Command", "Get-Clipboard"}}
	}
	return [][]string{{"wl-paste", "--no-newline"}, {"xclip", "-selection", "clipboard", "-o"}, {"xsel", "--clipboard", "--output"}}
}

func openCommands() [][]string {
	switch runtime.GOOS {
	case "darwin":
		return [][]string{{"open"}}
	case "windows":
		return [][]string{{"rundll32", "url.dll,FileProtocolHandler"}}
	}
	return [][]string{{"xdg-open"}}
}
