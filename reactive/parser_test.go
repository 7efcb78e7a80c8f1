package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

func TestParseSwapLogExtractsSideAndLamports(t *testing.T) {
	logs := []string{
		"Program log: Instruction: Buy",
		"Program log: amount_in=500000000",
	}
	side, lamports, ok := parseSwapLog(logs)
	require.True(t, ok)
	assert.Equal(t, domain.SideBuy, side)
	assert.Equal(t, int64(500000000), lamports)
}

func TestParseSwapLogSellKeyword(t *testing.T) {
	logs := []string{"Program log: user executed a Sell for 123456789 lamports"}
	side, lamports, ok := parseSwapLog(logs)
	require.True(t, ok)
	assert.Equal(t, domain.SideSell, side)
	assert.Equal(t, int64(123456789), lamports)
}

func TestParseSwapLogIgnoresNonSwapLogs(t *testing.T) {
	logs := []string{"Program log: Instruction: InitializeAccount", "Program data: abc123"}
	_, _, ok := parseSwapLog(logs)
	assert.False(t, ok)
}

func TestParseSwapLogIgnoresZeroAmount(t *testing.T) {
	logs := []string{"Program log: Buy amount=000000000"}
	_, _, ok := parseSwapLog(logs)
	assert.False(t, ok)
}

func TestParseSwapLogRequiresNineDigits(t *testing.T) {
	logs := []string{"Program log: Buy amount=5000"}
	_, _, ok := parseSwapLog(logs)
	assert.False(t, ok, "amounts shorter than 9 digits don't match the heuristic pattern")
}

func TestIsSelfTradeSolanaVerbatimMatch(t *testing.T) {
	logs := []string{"Program log: transfer from DevWa11etAddressXXXXXXXXXXXXXXXXXXXXXXXXXX"}
	assert.True(t, isSelfTrade(logs, "DevWa11etAddressXXXXXXXXXXXXXXXXXXXXXXXXXX", domain.ChainSolana))
}

func TestIsSelfTradeSolanaNoMatch(t *testing.T) {
	logs := []string{"Program log: transfer from SomeoneElse"}
	assert.False(t, isSelfTrade(logs, "DevWa11etAddressXXXXXXXXXXXXXXXXXXXXXXXXXX", domain.ChainSolana))
}

func TestIsSelfTradeEVMCaseInsensitiveChecksum(t *testing.T) {
	addr := "0x742d35cc6634c0532925a3b8d4c9db96c4b4d8b6"
	logs := []string{"log: from=0x742D35CC6634C0532925A3B8D4C9DB96C4B4D8B6"}
	assert.True(t, isSelfTrade(logs, addr, domain.ChainEVM))
}
