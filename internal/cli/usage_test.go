package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"

	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/exitcode"
)

func TestHelpTemplate_ContainsEveryBoundFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	BindFlags(cmd, config.NewDefaultConfig())

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		assert.Contains(t, helpTemplate, "--"+f.Name, "flag --%s is not documented", f.Name)
	})
	for _, f := range []string{"--help", "--version"} {
		assert.Contains(t, helpTemplate, f)
	}
}

func TestHelpTemplate_ExitCodes(t *testing.T) {
	rows := map[int]string{
		exitcode.Success:     "Success",
		exitcode.Error:       "Error",
		exitcode.Quit:        "Quit",
		exitcode.Interrupted: "Interrupted",
	}
	exitSection := helpTemplate[strings.Index(helpTemplate, "EXIT CODES"):]
	for code, name := range rows {
		assert.Regexp(t, fmt.Sprintf(`(?m)^\s+%d\s+%s\s`, code, name), exitSection)
	}
}

func TestHelpTemplate_SectionOrder(t *testing.T) {
	last := -1
	for _, section := range []string{"USAGE", "FLAGS", "SETTINGS", "EXIT CODES", "EXAMPLES"} {
		i := strings.Index(helpTemplate, "\n"+section+"\n")
		if assert.GreaterOrEqual(t, i, 0, section) {
			assert.Greater(t, i, last, "%s is out of order", section)
			last = i
		}
	}
}

func TestSetCustomHelp(t *testing.T) {
	cmd := &cobra.Command{Use: "rl-context-task"}
	SetCustomHelp(cmd)
	assert.Equal(t, helpTemplate, cmd.HelpTemplate())
}
