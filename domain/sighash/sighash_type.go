package sighash

import "fmt"

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint32

// Hash type bits from the end of a signature.
const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	// SigHashMask defines the number of bits of the hash type which is used
	// to identify which outputs are signed.
	SigHashMask = 0x1f
)

// StandardTypes lists the six defined sighash types.
var StandardTypes = []SigHashType{
	SigHashAll,
	SigHashNone,
	SigHashSingle,
	SigHashAll | SigHashAnyOneCanPay,
	SigHashNone | SigHashAnyOneCanPay,
	SigHashSingle | SigHashAnyOneCanPay,
}

// IsStandard returns whether t is one of the six defined sighash types.
func (t SigHashType) IsStandard() bool {
	for _, standardType := range StandardTypes {
		if t == standardType {
			return true
		}
	}
	return false
}

func (t SigHashType) isAnyOneCanPay() bool {
	return t&SigHashAnyOneCanPay == SigHashAnyOneCanPay
}

func (t SigHashType) isNone() bool {
	return t&SigHashMask == SigHashNone
}

func (t SigHashType) isSingle() bool {
	return t&SigHashMask == SigHashSingle
}

func (t SigHashType) String() string {
	var base string
	switch t & SigHashMask {
	case SigHashAll:
		base = "SIGHASH_ALL"
	case SigHashNone:
		base = "SIGHASH_NONE"
	case SigHashSingle:
		base = "SIGHASH_SINGLE"
	default:
		return fmt.Sprintf("SIGHASH_UNKNOWN(0x%02x)", uint32(t))
	}
	if t.isAnyOneCanPay() {
		return base + "|ANYONECANPAY"
	}
	return base
}
