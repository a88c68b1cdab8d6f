package mongodb

import (
	"errors"
	"fmt"

	"gopkg.in/mgo.v2"
)

// mongodb special errors
var (
	ErrItemNotFound   = errors.New("mgoError: Item not found")
	ErrItemIsDup      = errors.New("mgoError: Item is duplicate")
	ErrBridgeNotFound = errors.New("mgoError: Bridge is not found")
	ErrWalletNotFound = errors.New("mgoError: Pool wallet is not found")
)

func mgoError(err error) error {
	if err != nil {
		if errors.Is(err, mgo.ErrNotFound) {
			return ErrItemNotFound
		}
		if mgo.IsDup(err) {
			return ErrItemIsDup
		}
		return fmt.Errorf("mgoError: %w", err)
	}
	return nil
}
