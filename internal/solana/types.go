package solana

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for
// getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// Transaction is a confirmed transaction with the metadata needed to
// reconstruct balance movements.
type Transaction struct {
	Signature string
	Slot      int64
	BlockTime int64
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// Failed reports whether the transaction errored on chain.
func (t *Transaction) Failed() bool {
	return t.Meta != nil && t.Meta.Err != nil
}

// TransactionMeta holds execution metadata: pre/post balances for every
// account referenced by the transaction.
type TransactionMeta struct {
	Err               interface{}
	Fee               uint64
	PreBalances       []int64 // lamports, indexed like AccountKeys
	PostBalances      []int64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	LogMessages       []string
	LoadedWritable    []string // loaded addresses for versioned transactions
	LoadedReadonly    []string
}

// TokenBalance is one token-account balance entry from transaction meta.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	Amount       int64 // base units
}

// TransactionMessage holds the static account list of a transaction.
type TransactionMessage struct {
	AccountKeys []string
	Signers     []string // account keys flagged as signers, fee payer first
}

// AllAccountKeys returns static keys plus loaded addresses, in RPC index
// order (static, writable, readonly).
func (t *Transaction) AllAccountKeys() []string {
	if t.Message == nil {
		return nil
	}
	keys := make([]string, 0, len(t.Message.AccountKeys))
	keys = append(keys, t.Message.AccountKeys...)
	if t.Meta != nil {
		keys = append(keys, t.Meta.LoadedWritable...)
		keys = append(keys, t.Meta.LoadedReadonly...)
	}
	return keys
}
