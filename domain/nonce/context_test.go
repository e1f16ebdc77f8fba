package nonce_test

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/powlock/powlock/domain/nonce"
	"github.com/powlock/powlock/domain/scalarfield"
)

func TestSecp256k1Context(t *testing.T) {
	ctx, err := nonce.NewSecp256k1Context()
	if err != nil {
		t.Fatalf("NewSecp256k1Context: %+v", err)
	}
	n := ctx.Field.N()

	expectedR, _ := new(big.Int).SetString("3b78ce563f89a0ed9414f5aa28ad0d96d6795f9c63", 16)
	if ctx.R.Cmp(expectedR) != 0 {
		t.Fatalf("Expected r %x, instead found %x", expectedR, ctx.R)
	}
	expectedKPoint := append([]byte{0x02}, expectedR.FillBytes(make([]byte, 32))...)
	if !bytes.Equal(ctx.KPoint, expectedKPoint) {
		t.Fatalf("Expected K %x, instead found %x", expectedKPoint, ctx.KPoint)
	}

	expectedK := new(big.Int).Add(n, big.NewInt(1))
	expectedK.Rsh(expectedK, 1)
	if ctx.K.Cmp(expectedK) != 0 {
		t.Fatalf("Expected k (n+1)/2, instead found %x", ctx.K)
	}
	if ctx.KInverse.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("Expected 1/k = 2, instead found %x", ctx.KInverse)
	}

	expectedNHalf := new(big.Int).Rsh(n, 1)
	expectedNHalf.Add(expectedNHalf, big.NewInt(1))
	if ctx.NHalf.Cmp(expectedNHalf) != 0 {
		t.Fatalf("Expected nHalf %x, instead found %x", expectedNHalf, ctx.NHalf)
	}
}

func TestPublicKey(t *testing.T) {
	ctx, err := nonce.NewSecp256k1Context()
	if err != nil {
		t.Fatalf("NewSecp256k1Context: %+v", err)
	}
	publicKey, err := ctx.PublicKey(big.NewInt(1))
	if err != nil {
		t.Fatalf("PublicKey: %+v", err)
	}
	generator := "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	if hex.EncodeToString(publicKey) != generator {
		t.Fatalf("Expected 1·G = %s, instead found %x", generator, publicKey)
	}

	for i, invalid := range []*big.Int{big.NewInt(0), ctx.Field.N(), big.NewInt(-1)} {
		_, err := ctx.PublicKey(invalid)
		if err == nil {
			t.Fatalf("%d: Expected an error for private key %x", i, invalid)
		}
	}
}

func TestNewContextWithCustomPointMultiplier(t *testing.T) {
	field := scalarfield.New(big.NewInt(101))
	point := append([]byte{0x03}, bytes.Repeat([]byte{0}, 31)...)
	point = append(point, 42)
	ctx, err := nonce.NewContext(field, func(d *big.Int) ([]byte, error) {
		return point, nil
	})
	if err != nil {
		t.Fatalf("NewContext: %+v", err)
	}
	if ctx.K.Int64() != 51 {
		t.Fatalf("Expected k = 1/2 mod 101 = 51, instead found %d", ctx.K)
	}
	if ctx.R.Int64() != 42 {
		t.Fatalf("Expected r = 42, instead found %d", ctx.R)
	}
	if ctx.NHalf.Int64() != 51 {
		t.Fatalf("Expected nHalf = 51, instead found %d", ctx.NHalf)
	}

	_, err = nonce.NewContext(field, func(d *big.Int) ([]byte, error) {
		return append([]byte{0x02}, make([]byte, 32)...), nil
	})
	if err == nil {
		t.Fatalf("Expected an error for a nonce point with a zero x coordinate")
	}
}
