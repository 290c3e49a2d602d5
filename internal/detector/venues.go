package detector

import "solana-copy-trader/internal/domain"

// Known trading program IDs.
const (
	PumpFunProgramID     = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	JupiterV6ProgramID   = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	RaydiumAMMProgramID  = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	RaydiumCLMMProgramID = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
)

// Mints treated as the native/stable side of a swap. Deltas in these never
// count as the token leg.
const (
	WSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

var nativeMints = map[string]bool{
	WSOLMint: true,
	USDCMint: true,
	USDTMint: true,
}

var venueByProgram = map[string]string{
	PumpFunProgramID:     domain.VenuePumpFun,
	JupiterV6ProgramID:   domain.VenueJupiter,
	RaydiumAMMProgramID:  domain.VenueRaydium,
	RaydiumCLMMProgramID: domain.VenueRaydium,
}

// classifyVenue returns the first known trading program referenced by the
// transaction's account keys. Pump.fun wins ties because its transactions
// often route through an aggregator as well.
func classifyVenue(accountKeys []string) string {
	venue := domain.VenueUnknown
	for _, key := range accountKeys {
		if v, ok := venueByProgram[key]; ok {
			if v == domain.VenuePumpFun {
				return v
			}
			if venue == domain.VenueUnknown {
				venue = v
			}
		}
	}
	return venue
}
