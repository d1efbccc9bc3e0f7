package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"path"
	"strings"
)

// Placeholders substituted into command templates.
const (
	placeholderURI       = "{uri}"
	placeholderQuotedURI = "{quoted_uri}"
)

// DefaultOpenCommand opens a link on a USB-connected Android device. The URI
// is quoted because adb passes it through the device shell, where '&' would
// otherwise split the command.
const DefaultOpenCommand = "adb shell am start -a android.intent.action.VIEW -d {quoted_uri}"

// Runner executes a command. Tests replace it to capture invocations.
type Runner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command with os/exec and includes its output in errors.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CommandOpener opens links by running a configured command template.
type CommandOpener struct {
	template []string
	schemes  map[string]bool
	run      Runner
	lookPath func(string) (string, error)
}

// NewCommandOpener parses template (DefaultOpenCommand when empty). Only the
// given schemes are reported as openable; with none, upi and gpay are.
func NewCommandOpener(template string, schemes ...string) *CommandOpener {
	if strings.TrimSpace(template) == "" {
		template = DefaultOpenCommand
	}
	fields := strings.Fields(template)
	if !strings.Contains(template, placeholderURI) && !strings.Contains(template, placeholderQuotedURI) {
		fields = append(fields, placeholderURI)
	}
	if len(schemes) == 0 {
		schemes = []string{"upi", "gpay"}
	}
	allowed := make(map[string]bool, len(schemes))
	for _, s := range schemes {
		allowed[strings.ToLower(s)] = true
	}
	return &CommandOpener{
		template: fields,
		schemes:  allowed,
		run:      ExecRunner,
		lookPath: exec.LookPath,
	}
}

// WithRunner swaps the command runner.
func (o *CommandOpener) WithRunner(run Runner) *CommandOpener {
	o.run = run
	o.lookPath = func(name string) (string, error) { return name, nil }
	return o
}

// CanOpen implements Opener. It checks the scheme and that the command exists.
func (o *CommandOpener) CanOpen(ctx context.Context, uri string) (bool, error) {
	scheme, _, ok := strings.Cut(uri, ":")
	if !ok || !o.schemes[strings.ToLower(scheme)] {
		return false, nil
	}
	if _, err := o.lookPath(o.template[0]); err != nil {
		return false, nil
	}
	return true, nil
}

// Open implements Opener.
func (o *CommandOpener) Open(ctx context.Context, uri string) error {
	args := expand(o.template, map[string]string{
		placeholderURI:       uri,
		placeholderQuotedURI: shellQuote(uri),
	})
	if err := o.run(ctx, args[0], args[1:]...); err != nil {
		return fmt.Errorf("CommandOpener.Open: %w", err)
	}
	return nil
}

// ADBSharer shares a file with an app on a USB-connected Android device by
// pushing it to the device and firing a SEND intent at the package.
type ADBSharer struct {
	DeviceDir string
	run       Runner
}

// NewADBSharer creates a sharer that pushes files to /sdcard/Download.
func NewADBSharer() *ADBSharer {
	return &ADBSharer{DeviceDir: "/sdcard/Download", run: ExecRunner}
}

// WithRunner swaps the command runner.
func (s *ADBSharer) WithRunner(run Runner) *ADBSharer {
	s.run = run
	return s
}

// ShareTo implements Sharer.
func (s *ADBSharer) ShareTo(ctx context.Context, packageName, localPath string) error {
	if packageName == "" {
		return fmt.Errorf("ADBSharer.ShareTo: package name is required")
	}
	remote := path.Join(s.DeviceDir, path.Base(strings.ReplaceAll(localPath, "\\", "/")))

	if err := s.run(ctx, "adb", "push", localPath, remote); err != nil {
		return fmt.Errorf("ADBSharer.ShareTo: push: %w", err)
	}
	err := s.run(ctx, "adb", "shell", "am", "start",
		"-a", "android.intent.action.SEND",
		"-t", "image/png",
		"--eu", "android.intent.extra.STREAM", shellQuote("file://"+remote),
		"-p", packageName)
	if err != nil {
		return fmt.Errorf("ADBSharer.ShareTo: send: %w", err)
	}
	return nil
}

func expand(template []string, values map[string]string) []string {
	out := make([]string, len(template))
	for i, field := range template {
		for placeholder, v := range values {
			field = strings.ReplaceAll(field, placeholder, v)
		}
		out[i] = field
	}
	return out
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var (
	_ Opener = (*CommandOpener)(nil)
	_ Sharer = (*ADBSharer)(nil)
)
