package commands

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"jupyterchat/internal/config"
	"jupyterchat/internal/observability"
	contextutils "jupyterchat/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// scriptedPrompter answers prompts from a fixed list
type scriptedPrompter struct {
	answers []string
	err     error
	labels  []string
}

func (p *scriptedPrompter) Prompt(w io.Writer, label string) (string, error) {
	p.labels = append(p.labels, label)
	_, _ = io.WriteString(w, label)
	if p.err != nil {
		return "", p.err
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func runPassword(t *testing.T, prompter PasswordPrompter) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := PasswordCommand(prompter, observability.NewNopLogger())
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--cost", "4"})
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestPasswordCommand_PrintsHash(t *testing.T) {
	prompter := &scriptedPrompter{answers: []string{"hunter2", "hunter2"}}

	stdout, stderr, err := runPassword(t, prompter)
	require.NoError(t, err)

	hash := strings.TrimSpace(stdout)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 4, cost)

	assert.Equal(t, []string{"Enter password: ", "Confirm password: "}, prompter.labels)
	assert.Contains(t, stderr, "Enter password: ")
	assert.NotContains(t, stdout, "hunter2")
}

func TestPasswordCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		prompter *scriptedPrompter
		want     *contextutils.AppError
	}{
		{name: "mismatch", prompter: &scriptedPrompter{answers: []string{"a", "b"}}, want: contextutils.ErrValidationFailed},
		{name: "empty", prompter: &scriptedPrompter{answers: []string{""}}, want: contextutils.ErrMissingRequired},
		{name: "read failure", prompter: &scriptedPrompter{err: errors.New("not a terminal")}, want: contextutils.ErrInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runPassword(t, tt.prompter)
			require.Error(t, err)
			assert.True(t, contextutils.IsError(err, tt.want), err.Error())
			assert.Empty(t, stdout)
		})
	}
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Port = "8888"
	cfg.Server.SessionSecret = "super-secret-session-key"
	cfg.Server.Token = "abcdefghijkl"
	cfg.Chat.PowerAutomateFlows.FeedbackLogging.URL = "https://flow.example/invoke?sig=SIGNATURE"
	cfg.OpenTelemetry.Headers = map[string]string{"authorization": "Bearer 0123456789"}

	var stdout bytes.Buffer
	cmd := ConfigCommands(cfg, observability.NewNopLogger())
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"show"})
	require.NoError(t, cmd.Execute())

	var shown config.Config
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &shown))
	assert.Equal(t, "8888", shown.Server.Port)
	assert.Equal(t, "supe****************-key", shown.Server.SessionSecret)
	assert.Equal(t, "abcd****ijkl", shown.Server.Token)
	assert.Equal(t, "[EMPTY]", shown.Server.PasswordHash)
	assert.NotContains(t, stdout.String(), "SIGNATURE")
	assert.NotContains(t, stdout.String(), "0123456789")

	// The loaded configuration itself is untouched
	assert.Equal(t, "super-secret-session-key", cfg.Server.SessionSecret)
	assert.Equal(t, "Bearer 0123456789", cfg.OpenTelemetry.Headers["authorization"])
}

func TestConfigValidate(t *testing.T) {
	cfg := &config.Config{}

	var stdout bytes.Buffer
	cmd := ConfigCommands(cfg, observability.NewNopLogger())
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"validate"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrMissingRequired))

	cfg.Server.SessionSecret = "s"
	stdout.Reset()
	cmd = ConfigCommands(cfg, observability.NewNopLogger())
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"validate"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "configuration OK\n", stdout.String())
}
