package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/thoreinstein/miuitask/internal/paths"
)

// resetFlags restores every package-level flag variable to its default.
// Cobra keeps parsed values between Execute calls on the shared rootCmd.
func resetFlags() {
	_ = closeLogFile()
	rootFlag = ""
	verbosity = 0
	quiet = false
	logFormat = "text"
	logFile = ""
	showOutput = outputYAML
	showReveal = false
	getReveal = false
	validateJSON = false
	doctorJSON = false
	doctorAll = false
	doctorFix = false
	accountShowReveal = false
}

// executeCommand runs rootCmd with args and returns what it wrote to stdout.
// Log output is forwarded to the test log.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags()
	t.Cleanup(resetFlags)

	origNoColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = origNoColor })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())

	if stderr.Len() > 0 {
		t.Log(stderr.String())
	}
	return stdout.String(), err
}

// newInstall returns an installation root, optionally seeded with a config
// file below its data directory. MIUITASK_CONFIG_PATH is cleared.
func newInstall(t *testing.T, name, content string) string {
	t.Helper()
	t.Setenv(paths.EnvConfigPath, "")
	t.Setenv("MIUITASK_DEBUG", "")

	root := t.TempDir()
	if name != "" {
		dataDir := filepath.Join(root, paths.DataDirName)
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			t.Fatalf("creating data dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return root
}

const twoAccountsYAML = `accounts:
    - uid: "1001"
      password: password
      cookies: "serviceToken=abcdefgh; userId=1001"
      CheckIn: true
      ThumbUp: true
    - uid: "1002"
      WxSign: true
ONEPUSH:
    notifier: telegram
    params:
        token: secret-token
        title: MIUI
`

// hashedAccountsYAML is twoAccountsYAML with the password already stored as
// its digest, so checks report no plain-text password.
var hashedAccountsYAML = strings.Replace(twoAccountsYAML, "password: password", "password: 5F4DCC3B5AA765D61D8327DEB882CF99", 1)
