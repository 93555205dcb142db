package scenario

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainScenario is the domain prefix for scenario identity hashes.
// The version suffix enables future algorithm migration.
const DomainScenario = "qsis/scenario/v1"

// DomainPreset is the domain prefix for interactive preset hashes.
// Presets hash under their own domain so a preset and a scenario with
// identical parameters never collide.
const DomainPreset = "qsis/preset/v1"

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null separator prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
