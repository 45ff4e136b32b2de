package providers

import (
	"fmt"
	"sort"
	"strings"
)

// SystemPrompt is the instruction shared by every adapter. The schema it
// demands is identical across providers; only the transport differs.
const SystemPrompt = `You are a professional cryptocurrency trading analyst. ` +
	`Analyze the provided market indicators and respond with ONLY a JSON object, no other text, in exactly this shape:
{
  "decision": "BUY" | "SELL" | "HOLD",
  "confidence": <number between 0.0 and 1.0>,
  "reasoning": "<one short paragraph explaining the decision>",
  "risk_level": "low" | "medium" | "high",
  "suggested_stop_loss": <price, optional>,
  "suggested_take_profit": <price, optional>
}`

// BuildUserPrompt renders the market snapshot into the user message.
// Indicators are sorted by name so the prompt for a given snapshot is
// deterministic across providers and retries.
func BuildUserPrompt(req *SignalRequest) string {
	keys := make([]string, 0, len(req.MarketData))
	for k := range req.MarketData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze %s on the %s timeframe.\n", req.Pair, req.Timeframe)
	fmt.Fprintf(&b, "Current price: %g\n\n", req.CurrentPrice)
	b.WriteString("Market indicators:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %g\n", k, req.MarketData[k])
	}
	b.WriteString("\nRespond with the JSON object only.")
	return b.String()
}

// HealthProbePrompt is the minimal one-token probe used by health checks.
const HealthProbePrompt = "ping"
