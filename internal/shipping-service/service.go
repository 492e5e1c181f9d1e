package shippingservice

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
)

// Service builds shipment notices. It holds no state.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Ship reports every item with its total weight, in the order given.
func (Service) Ship(items []domain.CartItem) domain.ShipmentNotice {
	notice := domain.ShipmentNotice{
		Lines:            make([]domain.ShipmentLine, 0, len(items)),
		TotalWeightGrams: decimal.Zero,
	}

	for _, it := range items {
		w := it.Weight()
		notice.Lines = append(notice.Lines, domain.ShipmentLine{
			Name:        it.Name(),
			Quantity:    it.Quantity,
			WeightGrams: w,
		})
		notice.TotalWeightGrams = notice.TotalWeightGrams.Add(w)
	}

	return notice
}
