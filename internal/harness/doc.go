// Package harness runs ledger conformance scenarios.
//
// A scenario is a YAML file that instantiates a ledger, applies a sequence
// of requests from named senders, and states what each step must return and
// what the ledger must look like at the end:
//
//	name: claim-once
//	description: A second claim from the same address is rejected
//	instantiate:
//	  admin: admin
//	  token_address: tok
//	  total_supply: 10000
//	  airdrop_amount: 100
//	steps:
//	  - sender: user1
//	    execute: {claim: {}}
//	    expect:
//	      transfers:
//	        - {contract: tok, recipient: user1, amount: 100}
//	  - sender: user1
//	    execute: {claim: {}}
//	    expect: {error: ALREADY_CLAIMED}
//	final:
//	  total_distributed: 100
//	  claimed: [user1]
//
// Every scenario runs against a fresh in-memory store with sequential
// operation IDs, so the same scenario always produces the same trace. The
// trace is rendered as canonical JSON and compared against golden files
// under testdata/golden.
package harness
