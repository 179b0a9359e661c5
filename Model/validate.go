package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/R3kki/scroogecoin/metrics"
)

// Reason classifies why a transaction was rejected.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformed
	ReasonMissingInput
	ReasonBadSignature
	ReasonDoubleClaim
	ReasonNegativeOutput
	ReasonConservation
	ReasonStorage
)

var reasonNames = map[Reason]string{
	ReasonNone:           "none",
	ReasonMalformed:      "malformed",
	ReasonMissingInput:   "missing_input",
	ReasonBadSignature:   "bad_signature",
	ReasonDoubleClaim:    "double_claim",
	ReasonNegativeOutput: "negative_output",
	ReasonConservation:   "value_conservation",
	ReasonStorage:        "storage",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

var (
	ErrMalformedTx       = errors.New("malformed transaction")
	ErrMissingInput      = errors.New("output no longer in pool")
	ErrBadSignature      = errors.New("invalid signature")
	ErrDoubleClaim       = errors.New("output claimed more than once")
	ErrNegativeOutput    = errors.New("negative output value")
	ErrValueConservation = errors.New("outputs exceed inputs")
	ErrStorage           = errors.New("pool update failed")
)

var reasonErrs = map[Reason]error{
	ReasonMalformed:      ErrMalformedTx,
	ReasonMissingInput:   ErrMissingInput,
	ReasonBadSignature:   ErrBadSignature,
	ReasonDoubleClaim:    ErrDoubleClaim,
	ReasonNegativeOutput: ErrNegativeOutput,
	ReasonConservation:   ErrValueConservation,
	ReasonStorage:        ErrStorage,
}

// ValidationError carries the reason and, where it applies, the offending
// input or output position (-1 otherwise).
type ValidationError struct {
	Reason Reason
	Index  int
	Detail string
}

func NewValidationError(reason Reason, index int, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: reason, Index: index, Detail: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	msg := e.Reason.String()
	if sentinel, ok := reasonErrs[e.Reason]; ok {
		msg = sentinel.Error()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return reasonErrs[e.Reason]
}

// ReasonOf extracts the rejection reason from err.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	for r, sentinel := range reasonErrs {
		if errors.Is(err, sentinel) {
			return r
		}
	}
	return ReasonMalformed
}

// IsValidTx reports whether tx can be applied to pool.
func IsValidTx(pool UTXOReader, tx *Transaction) bool {
	return ValidateTx(pool, tx) == nil
}

// ValidateTx returns nil if tx is valid against the current state of pool:
// well formed, every input unspent, every signature valid, no output claimed
// twice, no negative output and inputs covering outputs.
func ValidateTx(pool UTXOReader, tx *Transaction) error {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.TxValidateDuration, start)

	if pool == nil {
		return NewValidationError(ReasonMalformed, -1, "nil pool")
	}
	if err := CheckWellFormed(tx); err != nil {
		return err
	}
	if err := CheckInputsInPool(pool, tx); err != nil {
		return err
	}
	if err := CheckNoDoubleClaim(tx); err != nil {
		return err
	}
	if err := CheckSignatures(pool, tx); err != nil {
		return err
	}
	if err := CheckOutputsNonNegative(tx); err != nil {
		return err
	}
	return CheckValueConservation(pool, tx)
}

// CheckWellFormed rejects nil transactions and ones whose Txid does not match
// their content, since outputs are keyed by it.
func CheckWellFormed(tx *Transaction) error {
	if tx == nil {
		return NewValidationError(ReasonMalformed, -1, "nil transaction")
	}
	if tx.Txid != tx.ComputeTxID() {
		return NewValidationError(ReasonMalformed, -1, "txid %s does not match content", tx.Txid)
	}
	return nil
}

func CheckInputsInPool(pool UTXOReader, tx *Transaction) error {
	for i, in := range tx.Inputs {
		if !pool.Contains(in.UTXO()) {
			return NewValidationError(ReasonMissingInput, i, "%s", in.UTXO())
		}
	}
	return nil
}

func CheckNoDoubleClaim(tx *Transaction) error {
	claimed := make(map[UTXO]struct{}, len(tx.Inputs))
	for i, in := range tx.Inputs {
		u := in.UTXO()
		if _, seen := claimed[u]; seen {
			return NewValidationError(ReasonDoubleClaim, i, "%s", u)
		}
		claimed[u] = struct{}{}
	}
	return nil
}

// CheckSignatures verifies input i against the key of the output it spends,
// over RawDataToSign(i).
func CheckSignatures(pool UTXOReader, tx *Transaction) error {
	for i, in := range tx.Inputs {
		prevOut, ok := pool.Get(in.UTXO())
		if !ok {
			return NewValidationError(ReasonMissingInput, i, "%s", in.UTXO())
		}

		msg, err := tx.RawDataToSign(i)
		if err != nil {
			return NewValidationError(ReasonMalformed, i, "%v", err)
		}

		if !VerifySignature(prevOut.Address, msg, in.Signature) {
			return NewValidationError(ReasonBadSignature, i, "input spending %s", in.UTXO())
		}
	}
	return nil
}

func CheckOutputsNonNegative(tx *Transaction) error {
	for i, out := range tx.Outputs {
		if out.Value < 0 {
			return NewValidationError(ReasonNegativeOutput, i, "value %d", out.Value)
		}
	}
	return nil
}

// CheckValueConservation requires sum(inputs) >= sum(outputs). The surplus is
// an implicit fee that nobody collects.
func CheckValueConservation(pool UTXOReader, tx *Transaction) error {
	var inputSum, outputSum int64

	for i, in := range tx.Inputs {
		prevOut, ok := pool.Get(in.UTXO())
		if !ok {
			return NewValidationError(ReasonMissingInput, i, "%s", in.UTXO())
		}

		var overflow bool
		if inputSum, overflow = addInt64(inputSum, prevOut.Value); overflow {
			return NewValidationError(ReasonConservation, i, "input sum overflows")
		}
	}

	for i, out := range tx.Outputs {
		var overflow bool
		if outputSum, overflow = addInt64(outputSum, out.Value); overflow {
			return NewValidationError(ReasonConservation, i, "output sum overflows")
		}
	}

	if inputSum < outputSum {
		return NewValidationError(ReasonConservation, -1, "inputs %d < outputs %d", inputSum, outputSum)
	}
	return nil
}

func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, true
	}
	return a + b, false
}
