package entity

// SystemProgramID is the native system program account
const SystemProgramID = "11111111111111111111111111111111"

// Parsed system instruction types that move lamports into a new account
const (
	InstructionCreateAccount         = "createAccount"
	InstructionCreateAccountWithSeed = "createAccountWithSeed"
	InstructionTransfer              = "transfer"
)

// Signature represents one entry of an address's signature history
type Signature struct {
	Signature string `json:"signature"`
	BlockTime *int64 `json:"block_time,omitempty"`
	Err       any    `json:"err,omitempty"`
}

// Failed reports whether the transaction behind the signature errored on-chain
func (s Signature) Failed() bool {
	return s.Err != nil
}

// Timestamp returns the block time in unix seconds, or 0 if unknown
func (s Signature) Timestamp() int64 {
	if s.BlockTime == nil {
		return 0
	}
	return *s.BlockTime
}

// SignatureQuery paginates a signature listing. Before is exclusive and walks strictly older.
type SignatureQuery struct {
	Limit  int    `json:"limit"`
	Before string `json:"before,omitempty"`
}

// ParsedTransaction is the subset of a parsed ledger transaction the analysis needs
type ParsedTransaction struct {
	Signature    string        `json:"signature"`
	BlockTime    *int64        `json:"block_time,omitempty"`
	AccountKeys  []string      `json:"account_keys"`
	PreBalances  []uint64      `json:"pre_balances"`
	PostBalances []uint64      `json:"post_balances"`
	Instructions []Instruction `json:"instructions"`
}

// IndexOf returns the position of address in the account keys, or -1
func (tx *ParsedTransaction) IndexOf(address string) int {
	for i, key := range tx.AccountKeys {
		if key == address {
			return i
		}
	}
	return -1
}

// BalanceDelta returns post minus pre balance in lamports for account i.
// Missing balance entries count as zero.
func (tx *ParsedTransaction) BalanceDelta(i int) int64 {
	var pre, post uint64
	if i >= 0 && i < len(tx.PreBalances) {
		pre = tx.PreBalances[i]
	}
	if i >= 0 && i < len(tx.PostBalances) {
		post = tx.PostBalances[i]
	}
	return int64(post) - int64(pre)
}

// HasSystemInstruction reports whether any top-level instruction can move native value
func (tx *ParsedTransaction) HasSystemInstruction() bool {
	for _, ix := range tx.Instructions {
		if ix.IsSystem() {
			return true
		}
	}
	return false
}

// Instruction is a top-level instruction of a parsed transaction
type Instruction struct {
	ProgramID string                 `json:"program_id"`
	Program   string                 `json:"program,omitempty"`
	Parsed    *ParsedInstructionInfo `json:"parsed,omitempty"`
}

// ParsedInstructionInfo carries the decoded type and info of a system instruction
type ParsedInstructionInfo struct {
	Type string          `json:"type"`
	Info InstructionInfo `json:"info"`
}

// InstructionInfo holds the lamport-moving fields of a system instruction
type InstructionInfo struct {
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	NewAccount  string `json:"newAccount,omitempty"`
	Lamports    uint64 `json:"lamports,omitempty"`
}

// IsSystem reports whether the instruction belongs to the system program
func (ix Instruction) IsSystem() bool {
	return ix.Program == "system" || ix.ProgramID == SystemProgramID
}

// IsAccountCreation reports whether the instruction creates and funds a new account
func (ix Instruction) IsAccountCreation() bool {
	if ix.Parsed == nil {
		return false
	}
	return ix.Parsed.Type == InstructionCreateAccount || ix.Parsed.Type == InstructionCreateAccountWithSeed
}
