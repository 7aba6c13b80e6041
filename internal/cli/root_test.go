package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "zkpy", cmd.Use)
	assert.Contains(t, cmd.Long, "term format")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "encode", "source", "prove", "verify", "history", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	modulusFlag := cmd.PersistentFlags().Lookup("modulus")
	require.NotNil(t, modulusFlag)
	assert.Equal(t, "bls12_381", modulusFlag.DefValue)

	levelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, levelFlag)
	assert.Equal(t, "warn", levelFlag.DefValue)
}

func TestSessionCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"prove", "verify"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		for _, flag := range []string{"inputs", "backend-bin", "workdir", "journal", "strict"} {
			assert.NotNil(t, sub.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}

	verify, _, _ := cmd.Find([]string{"verify"})
	assert.NotNil(t, verify.Flags().Lookup("proof"))
	prove, _, _ := cmd.Find([]string{"prove"})
	assert.NotNil(t, prove.Flags().Lookup("out"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "validate", circuitsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "--log-level", "loud", "validate", circuitsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestResolveModulus(t *testing.T) {
	m, err := (&RootOptions{Modulus: "97"}).resolveModulus()
	require.NoError(t, err)
	assert.Equal(t, "97", m.String())

	_, err = (&RootOptions{}).resolveModulus()
	require.NoError(t, err)

	_, err = (&RootOptions{Modulus: "not-a-curve"}).resolveModulus()
	assert.Error(t, err)
}

func TestLoggerLevel(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := (&RootOptions{LogLevel: "error"}).logger(buf)
	assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel())

	logger = (&RootOptions{LogLevel: "error", Verbose: true}).logger(buf)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger.Debug().Str("function", "f").Msg("compiled")
	assert.Contains(t, buf.String(), "compiled")
	assert.Contains(t, buf.String(), "function=f")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "x")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", errors.New("y"))))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("plain")))
}
