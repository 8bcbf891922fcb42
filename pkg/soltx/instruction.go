package soltx

import (
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
)

// ComputeBudgetProgramID is the native program that sets compute unit limit
// and price for a transaction.
var ComputeBudgetProgramID = solana.ComputeBudget

// AccountMeta describes an account referenced by an instruction.
type AccountMeta = solana.AccountMeta

// Instruction is a single program invocation.
type Instruction = solana.Instruction

// NewInstruction returns a program invocation over the given accounts.
func NewInstruction(
	programID PublicKey, data []byte, accounts ...*AccountMeta,
) Instruction {
	return solana.NewInstruction(programID, accounts, data)
}

// SetComputeUnitLimit returns the compute budget instruction capping the
// compute units the transaction may consume.
func SetComputeUnitLimit(units uint32) Instruction {
	return computebudget.NewSetComputeUnitLimitInstruction(units).Build()
}

// SetComputeUnitPrice returns the compute budget instruction setting the
// priority fee in micro-lamports per compute unit.
func SetComputeUnitPrice(microLamports uint64) Instruction {
	return computebudget.NewSetComputeUnitPriceInstruction(microLamports).Build()
}
