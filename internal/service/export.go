package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Skotchmaster/gypsum_shop/internal/pricing"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
)

var csvHeader = []string{"ID", "Client", "Product", "Qty", "Status", "Payment status", "Date", "Total"}

// ExportCSV writes every order matching f, ignoring its paging.
func (s *OrderService) ExportCSV(ctx context.Context, w io.Writer, f repo.OrderFilter) error {
	if err := validateFilter(f); err != nil {
		return err
	}
	f.Offset, f.Limit = 0, 0

	_, orders, err := s.Repo.ListOrders(ctx, f)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range orders {
		o := &orders[i]
		row := []string{
			strconv.FormatUint(uint64(o.ID), 10),
			o.ClientName,
			o.Product.Name,
			strconv.FormatUint(uint64(o.Quantity), 10),
			string(o.Status),
			string(o.PaymentStatus),
			o.CreatedAt.Format("2006-01-02 15:04"),
			pricing.QuoteOrder(o).Amount(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
