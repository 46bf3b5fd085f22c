// Package model maps model identifiers to the provider that serves them
// and exposes pricing information for cost estimation.
//
// Models are plain string identifiers throughout the module. This package
// is the one place that knows which backend a given identifier belongs to:
//
//	switch model.ProviderOf("claude-sonnet-4-5") {
//	case model.ProviderAnthropic:
//	    // ...
//	}
//
// Pricing is keyed by identifier and returns USD per million tokens:
//
//	if p, ok := model.PricingFor("gpt-5.2"); ok {
//	    fmt.Printf("cost: $%.4f\n", p.Cost(resp.Usage))
//	}
package model
