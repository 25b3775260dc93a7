package ledger

// Contract identity recorded at instantiation and checked on migration.
const (
	// ContractName identifies this ledger kind. Migration refuses any store
	// whose recorded name differs.
	ContractName = "claimledger"

	// ContractVersion is the version written by Instantiate and Migrate.
	ContractVersion = "0.1.0"
)

// LegacyTokenAddress is the fixed placeholder token reference that legacy
// withdrawals pay out from, regardless of configuration.
const LegacyTokenAddress Address = "token_address"
