package domain

// Tier is the visual severity of a certificate in an alert.
type Tier string

const (
	TierOK       Tier = "ok"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
	TierExpired  Tier = "expired"
)

// CriticalDays is the upper bound of the critical tier.
const CriticalDays = 7

// Classify maps days remaining onto a tier for the given alert threshold.
func Classify(days, threshold int) Tier {
	switch {
	case days < 0:
		return TierExpired
	case days <= CriticalDays:
		return TierCritical
	case days <= threshold:
		return TierWarning
	default:
		return TierOK
	}
}

// Qualifies reports whether a result is due an expiry alert.
func Qualifies(r CertificateResult, threshold int) bool {
	return r.OK() && r.DaysRemaining <= threshold
}
