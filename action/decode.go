package action

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

func decodeAs[T Action](payload map[string]interface{}) (Action, error) {
	var a T
	if err := mapstructure.Decode(payload, &a); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", a.Kind(), err)
	}
	return a, nil
}

// Decode builds the action variant named by kind from a generic payload,
// as decoded from a JSON request body.
func Decode(kind Kind, payload map[string]interface{}) (Action, error) {
	switch kind {
	case KindBid:
		return decodeAs[Bid](payload)
	case KindBuyStartItem:
		return decodeAs[BuyStartItem](payload)
	case KindSetSharePrice:
		return decodeAs[SetSharePrice](payload)
	case KindStartCompany:
		return decodeAs[StartCompany](payload)
	case KindBuyCertificate:
		return decodeAs[BuyCertificate](payload)
	case KindSellShares:
		return decodeAs[SellShares](payload)
	case KindLayTile:
		return decodeAs[LayTile](payload)
	case KindLayBaseToken:
		return decodeAs[LayBaseToken](payload)
	case KindSetRevenue:
		return decodeAs[SetRevenue](payload)
	case KindBuyTrain:
		return decodeAs[BuyTrain](payload)
	case KindDiscardTrain:
		return decodeAs[DiscardTrain](payload)
	case KindTakeLoans:
		return decodeAs[TakeLoans](payload)
	case KindRepayLoans:
		return decodeAs[RepayLoans](payload)
	case KindBuyTreasuryShares:
		return decodeAs[BuyTreasuryShares](payload)
	case KindSellTreasuryShares:
		return decodeAs[SellTreasuryShares](payload)
	case KindPass:
		return decodeAs[Pass](payload)
	case KindDone:
		return decodeAs[Done](payload)
	case KindSkip:
		return decodeAs[Skip](payload)
	}
	return nil, fmt.Errorf("unknown action kind %q", kind)
}
