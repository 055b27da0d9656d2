package service

import (
	"errors"

	"sokoni/internal/domain"
	"sokoni/internal/models"
	"sokoni/internal/repository"
	"sokoni/pkg/location"

	"gorm.io/gorm"
)

var (
	ErrItemNotFound       = errors.New("ordered item not found")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidItemType    = errors.New("item type must be PRODUCT or SERVICE")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrOrderAlreadyPaid   = errors.New("order has already been paid")
)

type OrderService struct {
	orders   *repository.OrderRepository
	products *repository.ProductRepository
	services *repository.ServiceRepository
	users    *repository.UserRepository
}

func NewOrderService(orders *repository.OrderRepository, products *repository.ProductRepository, services *repository.ServiceRepository, users *repository.UserRepository) *OrderService {
	return &OrderService{orders: orders, products: products, services: services, users: users}
}

// Place creates an order with a server-computed total. Product stock is
// reserved in the same statement that checks it.
func (s *OrderService) Place(userID uint, itemType string, itemID uint, quantity int, lat, lng float64) (*models.Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var priceCents int64
	switch itemType {
	case domain.OrderItemProduct:
		p, err := s.products.GetByID(itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, err
		}
		if err := s.products.ReserveStock(itemID, quantity); err != nil {
			return nil, err
		}
		priceCents = p.PriceCents
	case domain.OrderItemService:
		sv, err := s.services.GetByID(itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, err
		}
		priceCents = sv.PriceCents
	default:
		return nil, ErrInvalidItemType
	}
	o := &models.Order{
		UserID:        userID,
		ItemType:      itemType,
		ItemID:        itemID,
		Quantity:      quantity,
		TotalCents:    priceCents * int64(quantity),
		Status:        domain.OrderStatusPlaced,
		PaymentStatus: domain.OrderPaymentUnpaid,
		Latitude:      lat,
		Longitude:     lng,
	}
	if err := s.orders.Create(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) MyOrders(userID uint) ([]models.Order, error) {
	return s.orders.ListByUser(userID)
}

func (s *OrderService) ListAll() ([]models.Order, error) {
	return s.orders.ListAll()
}

func (s *OrderService) SetStatus(orderID uint, status string) (*models.Order, error) {
	switch status {
	case domain.OrderStatusConfirmed, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
	default:
		return nil, ErrInvalidOrderStatus
	}
	o, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	o.Status = status
	if err := s.orders.Update(o); err != nil {
		return nil, err
	}
	return o, nil
}

// VerifyPayment marks an order PAID and debits the buyer's credit balance.
// The PAID mark is a conditional update so a double verification cannot
// debit twice; the debit itself is balance-guarded.
func (s *OrderService) VerifyPayment(orderID uint) (*models.Order, error) {
	o, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	won, err := s.orders.MarkPaid(orderID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrOrderAlreadyPaid
	}
	if err := s.users.DebitCredits(o.UserID, o.TotalCents); err != nil {
		// Undo the mark so the order can be verified again once the buyer
		// has enough credits.
		o.PaymentStatus = domain.OrderPaymentUnpaid
		if uerr := s.orders.Update(o); uerr != nil {
			return nil, uerr
		}
		return nil, err
	}
	o.PaymentStatus = domain.OrderPaymentPaid
	return o, nil
}

// Nearby returns unresolved orders within radiusKm of the given point,
// closest first. Used by admins dispatching deliveries.
func (s *OrderService) Nearby(lat, lng, radiusKm float64) ([]models.Order, error) {
	all, err := s.orders.ListAll()
	if err != nil {
		return nil, err
	}
	var near []models.Order
	for _, o := range all {
		if o.Status == domain.OrderStatusDelivered || o.Status == domain.OrderStatusCancelled {
			continue
		}
		if location.HaversineKm(lat, lng, o.Latitude, o.Longitude) <= radiusKm {
			near = append(near, o)
		}
	}
	return near, nil
}
