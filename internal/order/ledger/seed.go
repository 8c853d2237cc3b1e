package ledger

import (
	"time"

	"github.com/easymeds/platform/internal/domain"
)

// seed installs a couple of historical orders so the admin list is never
// empty on a fresh store.
func seed(s *Store) {
	base := time.Date(2026, time.July, 14, 9, 30, 0, 0, time.UTC)

	seeds := []*domain.Order{
		{
			ID: "ord_1784107800000_seed01",
			Customer: domain.Customer{
				Name:    "Hana Tesfaye",
				Email:   "hana.tesfaye@example.com",
				Phone:   "0911223344",
				Address: "Kazanchis, Addis Ababa",
			},
			TotalAmount:   420,
			DeliveryFee:   100,
			Status:        domain.OrderStatusDelivered,
			PaymentStatus: domain.PaymentStatusPaid,
			PaymentMethod: domain.PaymentMethodOnline,
			Items: []domain.OrderItem{
				{ItemID: "med_amoxicillin_250", ItemName: "Amoxicillin 250mg", Kind: domain.ItemKindProduct, Quantity: 2, UnitPrice: 160, LineTotal: 320},
			},
			CreatedAt: base,
			UpdatedAt: base.Add(48 * time.Hour),
		},
		{
			ID: "ord_1784194200000_seed02",
			Customer: domain.Customer{
				Name:    "Dawit Mekonnen",
				Email:   "dawit.m@example.com",
				Phone:   "0922334455",
				Address: "Piassa, Gondar",
			},
			TotalAmount:   700,
			DeliveryFee:   100,
			Status:        domain.OrderStatusProcessing,
			PaymentStatus: domain.PaymentStatusUnpaid,
			PaymentMethod: domain.PaymentMethodCOD,
			Items: []domain.OrderItem{
				{ItemID: "lab_lipid_panel", ItemName: "Lipid Panel", Kind: domain.ItemKindDiagnosticTest, Quantity: 1, UnitPrice: 450, LineTotal: 450},
				{ItemID: "med_vitamin_d3", ItemName: "Vitamin D3 1000IU", Kind: domain.ItemKindProduct, Quantity: 1, UnitPrice: 150, LineTotal: 150},
			},
			CreatedAt: base.Add(24 * time.Hour),
			UpdatedAt: base.Add(24 * time.Hour),
		},
	}

	for _, o := range seeds {
		s.orders[o.ID] = o
		s.index = append(s.index, o.ID)
	}
}
