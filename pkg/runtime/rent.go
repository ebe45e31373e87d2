package runtime

// accountStorageOverhead is the per-record storage overhead, in bytes,
// charged on top of the record data itself.
const accountStorageOverhead = 128

// Rent holds the parameters for the rent-exemption predicate. A record is
// exempt from reclamation when its backing balance covers the configured
// number of years of rent for its full storage footprint.
type Rent struct {
	// LamportsPerByteYear is the rent rate.
	LamportsPerByteYear uint64

	// ExemptionThreshold is the number of years of rent a balance must
	// cover to be exempt.
	ExemptionThreshold uint64
}

// DefaultRent returns the mainnet rent parameters.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: 3480,
		ExemptionThreshold:  2,
	}
}

// MinimumBalance returns the minimum backing balance for a record of the
// given data length to be exempt from reclamation.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	return (uint64(dataLen) + accountStorageOverhead) * r.LamportsPerByteYear * r.ExemptionThreshold
}

// IsExempt reports whether a record with the given backing balance and
// data length is exempt from reclamation.
func (r Rent) IsExempt(lamports uint64, dataLen int) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
