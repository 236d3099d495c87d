package core

import (
	"crypto/ed25519"
	"fmt"
	"math/big"

	"github.com/near/borsh-go"
	"github.com/shopspring/decimal"
)

// maxU128 is 2^128, the smallest amount the wire cannot carry.
var maxU128 = new(big.Int).Lsh(big.NewInt(1), 128)

// The wire* types mirror the canonical binary schema field by field so that
// borsh-go can lay them out. Enum variants without payload are empty structs.

type wireTransaction struct {
	SignerID   string
	PublicKey  wirePublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [BlockHashLength]byte
	Actions    []wireAction
}

type wireSignedTransaction struct {
	Transaction wireTransaction
	Signature   wireSignature
}

type wireUnit struct{}

type wirePublicKey struct {
	Enum      borsh.Enum `borsh_enum:"true"`
	ED25519   wireED25519Key
	SECP256K1 wireSECP256K1Key
}

type wireED25519Key struct {
	Data [ed25519PublicKeyLength]byte
}

type wireSECP256K1Key struct {
	Data [secp256k1PublicKeyLength]byte
}

type wireSignature struct {
	Enum      borsh.Enum `borsh_enum:"true"`
	ED25519   wireED25519Signature
	SECP256K1 wireSECP256K1Signature
}

type wireED25519Signature struct {
	Data [ed25519.SignatureSize]byte
}

type wireSECP256K1Signature struct {
	Data [secp256k1SignatureLength]byte
}

type wireAction struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  wireUnit
	DeployContract wireDeployContract
	FunctionCall   wireFunctionCall
	Transfer       wireTransfer
	Stake          wireStake
	AddKey         wireAddKey
	DeleteKey      wireDeleteKey
	DeleteAccount  wireDeleteAccount
}

type wireDeployContract struct {
	Code []byte
}

type wireFunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    big.Int
}

type wireTransfer struct {
	Deposit big.Int
}

type wireStake struct {
	Stake     big.Int
	PublicKey wirePublicKey
}

type wireAddKey struct {
	PublicKey wirePublicKey
	AccessKey wireAccessKey
}

type wireAccessKey struct {
	Nonce      uint64
	Permission wirePermission
}

type wireDeleteKey struct {
	PublicKey wirePublicKey
}

type wireDeleteAccount struct {
	BeneficiaryID string
}

type wirePermission struct {
	Enum         borsh.Enum `borsh_enum:"true"`
	FunctionCall wireFunctionCallPermission
	FullAccess   wireUnit
}

type wireFunctionCallPermission struct {
	Allowance   wireOptionalU128
	ReceiverID  string
	MethodNames []string
}

// wireOptionalU128 is Option<u128>: tag 0 alone, or tag 1 and the value.
type wireOptionalU128 struct {
	Enum borsh.Enum `borsh_enum:"true"`
	None wireUnit
	Some wireU128
}

type wireU128 struct {
	Value big.Int
}

// ValidateAmount reports whether d can be carried as an on-chain u128 amount.
func ValidateAmount(d decimal.Decimal) error {
	_, err := toU128(d)
	return err
}

func toU128(d decimal.Decimal) (big.Int, error) {
	switch {
	case d.IsNegative():
		return big.Int{}, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d)
	case !d.IsInteger():
		return big.Int{}, fmt.Errorf("%w: %s is not a whole number", ErrInvalidAmount, d)
	}
	v := d.BigInt()
	if v.Cmp(maxU128) >= 0 {
		return big.Int{}, fmt.Errorf("%w: %s does not fit in 128 bits", ErrInvalidAmount, d)
	}
	return *v, nil
}

func fromU128(v big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(&v, 0)
}

func (pk PublicKey) wire() (wirePublicKey, error) {
	var w wirePublicKey
	if len(pk.Data) != pk.Type.publicKeyLength() {
		return w, fmt.Errorf("%w: %s key must be %d bytes, got %d",
			ErrInvalidPublicKey, pk.Type, pk.Type.publicKeyLength(), len(pk.Data))
	}
	switch pk.Type {
	case KeyTypeED25519:
		copy(w.ED25519.Data[:], pk.Data)
	case KeyTypeSECP256K1:
		copy(w.SECP256K1.Data[:], pk.Data)
	default:
		return w, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, pk.Type)
	}
	w.Enum = borsh.Enum(pk.Type)
	return w, nil
}

func (w wirePublicKey) publicKey() PublicKey {
	if KeyType(w.Enum) == KeyTypeSECP256K1 {
		return PublicKey{Type: KeyTypeSECP256K1, Data: append([]byte(nil), w.SECP256K1.Data[:]...)}
	}
	return PublicKey{Type: KeyTypeED25519, Data: append([]byte(nil), w.ED25519.Data[:]...)}
}

func (sig Signature) wire() (wireSignature, error) {
	var w wireSignature
	if len(sig.Data) != sig.Type.signatureLength() {
		return w, fmt.Errorf("%w: %s signature must be %d bytes, got %d",
			ErrInvalidEncoding, sig.Type, sig.Type.signatureLength(), len(sig.Data))
	}
	switch sig.Type {
	case KeyTypeED25519:
		copy(w.ED25519.Data[:], sig.Data)
	case KeyTypeSECP256K1:
		copy(w.SECP256K1.Data[:], sig.Data)
	default:
		return w, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, sig.Type)
	}
	w.Enum = borsh.Enum(sig.Type)
	return w, nil
}

func (w wireSignature) signature() Signature {
	if KeyType(w.Enum) == KeyTypeSECP256K1 {
		return Signature{Type: KeyTypeSECP256K1, Data: append([]byte(nil), w.SECP256K1.Data[:]...)}
	}
	return Signature{Type: KeyTypeED25519, Data: append([]byte(nil), w.ED25519.Data[:]...)}
}

func serialize(v interface{}) ([]byte, error) {
	data, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return data, nil
}

// deserialize decodes data as T and rejects input with bytes left over.
func deserialize[T any](data []byte) (T, error) {
	var out T
	if err := borsh.Deserialize(&out, data); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	// the layout is canonical, so the re-encoded length is what was consumed
	consumed, err := borsh.Serialize(out)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if extra := len(data) - len(consumed); extra != 0 {
		return out, fmt.Errorf("%w: %d trailing bytes", ErrInvalidEncoding, extra)
	}
	return out, nil
}
