package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusVerified = "VERIFIED"
	PaymentStatusRejected = "REJECTED"
)

const (
	OrderStatusPlaced    = "PLACED"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	OrderPaymentUnpaid = "UNPAID"
	OrderPaymentPaid   = "PAID"
)

const (
	OrderItemProduct = "PRODUCT"
	OrderItemService = "SERVICE"
)
