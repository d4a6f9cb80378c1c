package state

import "moneymarket/native/credit"

var (
	creditMarketPrefix     = []byte("credit/market/")
	creditPositionPrefix   = []byte("credit/position/")
	creditCyclesPrefix     = []byte("credit/cycles/")
	creditObligationPrefix = []byte("credit/obligation/")
	creditMarkdownPrefix   = []byte("credit/markdown/")
	accountPrefix          = []byte("account/")
)

func marketKey(marketID string) []byte {
	return append(append([]byte{}, creditMarketPrefix...), marketID...)
}

func cyclesKey(marketID string) []byte {
	return append(append([]byte{}, creditCyclesPrefix...), marketID...)
}

func borrowerKey(prefix []byte, marketID string, borrower credit.Address) []byte {
	key := append(append([]byte{}, prefix...), marketID...)
	key = append(key, '/')
	return append(key, borrower[:]...)
}

func accountKey(addr credit.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr[:]...)
}
