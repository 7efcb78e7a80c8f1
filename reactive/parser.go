package reactive

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

// logEvent is the JSON-RPC subscription notification carrying a monitored
// mint's program logs (Solana logsSubscribe shape).
type logEvent struct {
	Method string `json:"method"`
	Params struct {
		Subscription int `json:"subscription"`
		Result       struct {
			Value struct {
				Signature string   `json:"signature"`
				Err       any      `json:"err"`
				Logs      []string `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

type subscribeAck struct {
	ID     int `json:"id"`
	Result int `json:"result"`
}

// lamportsPattern is the source's documented heuristic (spec §9 Open
// Question: "the log-parser in the source falls back to 'any 9-digit number
// is lamports'"). It is heuristic by construction; reactive mode stays
// behind the feature gate in SPEC_FULL §12 specifically because of it.
var lamportsPattern = regexp.MustCompile(`\b\d{9,}\b`)

// parseSwapLog scans one transaction's program logs for a buy/sell keyword
// and a lamports figure of nine or more digits, per §4.11 step 1 ("Parse to
// extract (side, observedSolAmount). Ignore events where parsing yields 0
// SOL."). The keyword and the figure may sit on different log lines.
func parseSwapLog(logs []string) (side domain.Side, lamports int64, ok bool) {
	for _, line := range logs {
		lower := strings.ToLower(line)
		if side == "" {
			switch {
			case strings.Contains(lower, "buy"):
				side = domain.SideBuy
			case strings.Contains(lower, "sell"):
				side = domain.SideSell
			}
		}
		if lamports == 0 {
			if match := lamportsPattern.FindString(line); match != "" {
				if n, err := strconv.ParseInt(match, 10, 64); err == nil && n > 0 {
					lamports = n
				}
			}
		}
		if side != "" && lamports > 0 {
			return side, lamports, true
		}
	}
	return "", 0, false
}

// isSelfTrade implements §4.11 step 2 (self-trade suppression): ignore
// events whose authored signer matches the token's own ops wallet. For EVM
// chains the address is normalized through go-ethereum's checksum helpers
// before the substring match (go-ethereum is used purely as a string-shape
// validator here, per SPEC_FULL §11 — no chain RPC dial happens in this
// package); Solana addresses are base58 strings and compared verbatim.
func isSelfTrade(logs []string, opsAddress string, chain domain.ChainType) bool {
	needle := opsAddress
	if chain == domain.ChainEVM && common.IsHexAddress(opsAddress) {
		needle = strings.ToLower(common.HexToAddress(opsAddress).Hex())
	}
	for _, line := range logs {
		haystack := line
		if chain == domain.ChainEVM {
			haystack = strings.ToLower(line)
		}
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
