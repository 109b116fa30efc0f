package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "polcheck", cmd.Use)
	assert.Contains(t, cmd.Short, "compatibility")
	assert.Contains(t, cmd.Long, "freezes the utility policy")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"check", "freeze", "parse", "validate", "test"}

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
}

func TestCheckCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	checkCmd, _, err := cmd.Find([]string{"check"})
	require.NoError(t, err)

	privacyFlag := checkCmd.Flags().Lookup("privacy")
	require.NotNil(t, privacyFlag)
	assert.Equal(t, "p", privacyFlag.Shorthand)
	assert.Equal(t, "privacy.sparql", privacyFlag.DefValue)

	utilityFlag := checkCmd.Flags().Lookup("utility")
	require.NotNil(t, utilityFlag)
	assert.Equal(t, "u", utilityFlag.Shorthand)
	assert.Equal(t, "utility.sparql", utilityFlag.DefValue)

	evalFlag := checkCmd.Flags().Lookup("evaluator")
	require.NotNil(t, evalFlag)
	assert.Equal(t, "mangle", evalFlag.DefValue)

	for _, name := range []string{"db", "config", "parallelism", "max-domain", "max-search-nodes"} {
		assert.NotNil(t, checkCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestFreezeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	freezeCmd, _, err := cmd.Find([]string{"freeze"})
	require.NoError(t, err)

	evalFlag := freezeCmd.Flags().Lookup("evaluator")
	require.NotNil(t, evalFlag)
	assert.Equal(t, "mangle", evalFlag.DefValue)
	assert.NotNil(t, freezeCmd.Flags().Lookup("db"))
}

func TestParseCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	parseCmd, _, err := cmd.Find([]string{"parse"})
	require.NoError(t, err)

	prefixFlag := parseCmd.Flags().Lookup("prefix")
	require.NotNil(t, prefixFlag)
	assert.Equal(t, "PQ", prefixFlag.DefValue)

	joinsFlag := parseCmd.Flags().Lookup("joins")
	require.NotNil(t, joinsFlag)
	assert.Equal(t, "false", joinsFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)

	goldenFlag := testCmd.Flags().Lookup("golden")
	require.NotNil(t, goldenFlag)
	assert.Equal(t, "", goldenFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "parse", "query.sparql"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
