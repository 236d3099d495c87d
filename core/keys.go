package core

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

// KeyType is the curve of a key, numbered as in the canonical encoding
type KeyType uint8

const (
	KeyTypeED25519   KeyType = 0
	KeyTypeSECP256K1 KeyType = 1
)

const (
	ed25519PublicKeyLength   = ed25519.PublicKeySize
	secp256k1PublicKeyLength = 64
	secp256k1SignatureLength = 65
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeED25519:
		return "ed25519"
	case KeyTypeSECP256K1:
		return "secp256k1"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseKeyType maps the textual curve prefix to a KeyType.
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(s) {
	case "ed25519":
		return KeyTypeED25519, nil
	case "secp256k1":
		return KeyTypeSECP256K1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, s)
	}
}

func (t KeyType) publicKeyLength() int {
	if t == KeyTypeSECP256K1 {
		return secp256k1PublicKeyLength
	}
	return ed25519PublicKeyLength
}

func (t KeyType) signatureLength() int {
	if t == KeyTypeSECP256K1 {
		return secp256k1SignatureLength
	}
	return ed25519.SignatureSize
}

// PublicKey is a curve-tagged public key. The zero value means "no key".
type PublicKey struct {
	Type KeyType
	Data []byte
}

// ParsePublicKey parses "<curve>:<base58>". A missing curve prefix means ed25519.
func ParsePublicKey(s string) (PublicKey, error) {
	curve, encoded := "ed25519", s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		curve, encoded = s[:i], s[i+1:]
	}
	keyType, err := ParseKeyType(curve)
	if err != nil {
		return PublicKey{}, err
	}
	data, err := base58.Decode(encoded)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(data) != keyType.publicKeyLength() {
		return PublicKey{}, fmt.Errorf("%w: %s key must be %d bytes, got %d",
			ErrInvalidPublicKey, keyType, keyType.publicKeyLength(), len(data))
	}
	return PublicKey{Type: keyType, Data: data}, nil
}

func (pk PublicKey) String() string {
	if pk.IsZero() {
		return ""
	}
	return pk.Type.String() + ":" + base58.Encode(pk.Data)
}

func (pk PublicKey) IsZero() bool {
	return len(pk.Data) == 0
}

func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.Type == other.Type && bytes.Equal(pk.Data, other.Data)
}

// Verify checks sig over message. For secp256k1 message must be a 32-byte digest.
func (pk PublicKey) Verify(message []byte, sig Signature) bool {
	if sig.Type != pk.Type {
		return false
	}
	switch pk.Type {
	case KeyTypeED25519:
		if len(pk.Data) != ed25519PublicKeyLength {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(pk.Data), message, sig.Data)
	case KeyTypeSECP256K1:
		if len(sig.Data) != secp256k1SignatureLength || len(message) != 32 {
			return false
		}
		uncompressed := append([]byte{0x04}, pk.Data...)
		return crypto.VerifySignature(uncompressed, message, sig.Data[:64])
	default:
		return false
	}
}

// Signature is a curve-tagged signature
type Signature struct {
	Type KeyType
	Data []byte
}

// KeyPair is a private key able to sign for its public key.
type KeyPair interface {
	PublicKey() PublicKey
	Sign(message []byte) (Signature, error)
	// String returns "<curve>:<base58 secret>", the form key stores persist.
	String() string
}

// GenerateKeyPair creates a fresh random key pair of the given type.
func GenerateKeyPair(keyType KeyType) (KeyPair, error) {
	switch keyType {
	case KeyTypeED25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
		}
		return ed25519KeyPair{secret: priv}, nil
	case KeyTypeSECP256K1:
		priv, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
		}
		return secp256k1KeyPair{secret: crypto.FromECDSA(priv)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, keyType)
	}
}

// ParseKeyPair parses the string produced by KeyPair.String.
func ParseKeyPair(s string) (KeyPair, error) {
	curve, encoded, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("%w: missing curve prefix", ErrInvalidKeyPair)
	}
	keyType, err := ParseKeyType(curve)
	if err != nil {
		return nil, err
	}
	secret, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyPair, err)
	}

	switch keyType {
	case KeyTypeED25519:
		if len(secret) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("%w: ed25519 secret must be %d bytes", ErrInvalidKeyPair, ed25519.PrivateKeySize)
		}
		return ed25519KeyPair{secret: ed25519.PrivateKey(secret)}, nil
	default:
		if _, err := crypto.ToECDSA(secret); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKeyPair, err)
		}
		return secp256k1KeyPair{secret: secret}, nil
	}
}

type ed25519KeyPair struct {
	secret ed25519.PrivateKey
}

func (kp ed25519KeyPair) PublicKey() PublicKey {
	pub := kp.secret.Public().(ed25519.PublicKey)
	return PublicKey{Type: KeyTypeED25519, Data: []byte(pub)}
}

func (kp ed25519KeyPair) Sign(message []byte) (Signature, error) {
	return Signature{Type: KeyTypeED25519, Data: ed25519.Sign(kp.secret, message)}, nil
}

func (kp ed25519KeyPair) String() string {
	return KeyTypeED25519.String() + ":" + base58.Encode(kp.secret)
}

type secp256k1KeyPair struct {
	secret []byte
}

func (kp secp256k1KeyPair) PublicKey() PublicKey {
	priv, err := crypto.ToECDSA(kp.secret)
	if err != nil {
		return PublicKey{}
	}
	// drop the 0x04 uncompressed-point prefix
	return PublicKey{Type: KeyTypeSECP256K1, Data: crypto.FromECDSAPub(&priv.PublicKey)[1:]}
}

// Sign signs a 32-byte digest.
func (kp secp256k1KeyPair) Sign(digest []byte) (Signature, error) {
	priv, err := crypto.ToECDSA(kp.secret)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrInvalidKeyPair, err)
	}
	sig, err := crypto.Sign(digest, priv)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to sign: %w", err)
	}
	return Signature{Type: KeyTypeSECP256K1, Data: sig}, nil
}

func (kp secp256k1KeyPair) String() string {
	return KeyTypeSECP256K1.String() + ":" + base58.Encode(kp.secret)
}
