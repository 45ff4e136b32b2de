// Thalas Trader is a multi-LLM consensus engine for trading signals.
//
// Given a snapshot of market indicators for a trading pair, it queries
// several LLM providers in parallel, reconciles their answers by weighted
// voting and serves a single consensus BUY/SELL/HOLD decision over HTTP.
//
// Usage:
//
//	# Start the server with providers configured from the environment
//	ANTHROPIC_API_KEY=... OPENAI_API_KEY=... trader serve
//
//	# Start with a configuration file
//	trader serve --config /etc/thalas/trader.yaml
//
//	# Show version information
//	trader version
package main

func main() {
	Execute()
}
