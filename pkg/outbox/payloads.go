package outbox

// TransactionSettledEvent is published after a cart is settled.
type TransactionSettledEvent struct {
	TransactionID uint                    `json:"transactionId"`
	UserID        uint                    `json:"userId"`
	Total         string                  `json:"total"`
	Lines         []SettledLineAdjustment `json:"lines"`
}

// SettledLineAdjustment reports the stock consumed by one settled line.
type SettledLineAdjustment struct {
	ProductID uint   `json:"productId"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

// ProductDeletedEvent is published when an admin removes a product.
type ProductDeletedEvent struct {
	ProductID uint   `json:"productId"`
	Title     string `json:"title"`
}

// UserDeletedEvent is published when an admin removes an account.
type UserDeletedEvent struct {
	UserID              uint  `json:"userId"`
	DeletedTransactions int64 `json:"deletedTransactions"`
}
