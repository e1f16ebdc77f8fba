package main

import (
	"fmt"

	"github.com/powlock/powlock/domain/nonce"
	"github.com/powlock/powlock/domain/powlock"
)

func address(conf *addressConfig) error {
	nonceContext, err := nonce.NewSecp256k1Context()
	if err != nil {
		return err
	}
	lockedAddress, err := powlock.Address(nonceContext, conf.Work, conf.NetParams())
	if err != nil {
		return err
	}
	fmt.Printf("Locking script address for work %d on %s:\n", conf.Work, conf.NetParams().Name)
	fmt.Println(lockedAddress.EncodeAddress())
	return nil
}
