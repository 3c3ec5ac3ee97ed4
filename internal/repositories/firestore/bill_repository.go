package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/kirana-pos/api/internal/domain"
	pfirestore "github.com/kirana-pos/api/internal/platform/firestore"
	"github.com/kirana-pos/api/internal/repositories"
)

const billsCollection = "bills"

type billDocument struct {
	Number    string         `firestore:"number"`
	StoreID   string         `firestore:"storeId"`
	CashierID string         `firestore:"cashierId"`
	Items     []billItemData `firestore:"items"`
	Total     int64          `firestore:"total"`
	CreatedAt time.Time      `firestore:"createdAt"`
}

type billItemData struct {
	ProductID string `firestore:"productId"`
	Code      string `firestore:"code"`
	Name      string `firestore:"name"`
	Quantity  int64  `firestore:"quantity"`
	UnitPrice int64  `firestore:"unitPrice"`
}

func newBillDocument(bill domain.Bill) billDocument {
	items := make([]billItemData, 0, len(bill.Items))
	for _, item := range bill.Items {
		items = append(items, billItemData{
			ProductID: item.ProductID,
			Code:      item.Code,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return billDocument{
		Number:    bill.Number,
		StoreID:   bill.StoreID,
		CashierID: bill.CashierID,
		Items:     items,
		Total:     bill.Total,
		CreatedAt: bill.CreatedAt.UTC(),
	}
}

func (d billDocument) toDomain(id string) domain.Bill {
	items := make([]domain.BillItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.BillItem{
			ProductID: item.ProductID,
			Code:      item.Code,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return domain.Bill{
		ID:        id,
		Number:    d.Number,
		StoreID:   d.StoreID,
		CashierID: d.CashierID,
		Items:     items,
		Total:     d.Total,
		CreatedAt: d.CreatedAt,
	}
}

// BillRepository implements repositories.BillRepository backed by Firestore.
type BillRepository struct {
	provider *pfirestore.Provider
	bills    *pfirestore.BaseRepository[billDocument]
}

// NewBillRepository constructs a Firestore-backed bill repository.
func NewBillRepository(provider *pfirestore.Provider) (*BillRepository, error) {
	if provider == nil {
		return nil, errors.New("bill repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[billDocument](provider, billsCollection, nil, nil)
	return &BillRepository{provider: provider, bills: base}, nil
}

// Insert persists a new bill document keyed by its id.
func (r *BillRepository) Insert(ctx context.Context, bill domain.Bill) error {
	if r == nil || r.provider == nil {
		return errors.New("bill repository not initialised")
	}
	if strings.TrimSpace(bill.ID) == "" {
		return errors.New("bill repository: bill id is required")
	}
	if strings.TrimSpace(bill.Number) == "" {
		return errors.New("bill repository: bill number is required")
	}

	_, err := r.bills.Set(ctx, bill.ID, newBillDocument(bill))
	return err
}

// FindByID fetches a single bill document.
func (r *BillRepository) FindByID(ctx context.Context, billID string) (domain.Bill, error) {
	if r == nil || r.provider == nil {
		return domain.Bill{}, errors.New("bill repository not initialised")
	}
	id := strings.TrimSpace(billID)
	if id == "" {
		return domain.Bill{}, errors.New("bill repository: bill id is required")
	}

	doc, err := r.bills.Get(ctx, id)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return domain.Bill{}, fmt.Errorf("%w: bill %s", repositories.ErrBillNotFound, id)
		}
		return domain.Bill{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}
