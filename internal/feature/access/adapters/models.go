package adapters

import (
	"time"

	"bookstore_backend/internal/feature/access/domain/entity"
)

// BookModel is the GORM model for the books table. The catalog owns writes;
// this service reads title, author and file_path.
type BookModel struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Author      string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	Price       int64  `gorm:"not null;default:0"`
	FilePath    string `gorm:"size:1024"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM.
func (BookModel) TableName() string {
	return "books"
}

// ToEntity converts the GORM model to a domain entity.
func (m *BookModel) ToEntity() *entity.Book {
	return &entity.Book{
		ID:       m.ID,
		Title:    m.Title,
		Author:   m.Author,
		FilePath: m.FilePath,
	}
}

// OrderModel is the GORM model for the orders table, written by checkout.
type OrderModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Status    string `gorm:"size:32;not null;default:PAID"`
	Total     int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the GORM model for the order_items table.
// A row for (user's order, book) is the proof of purchase.
type OrderItemModel struct {
	ID       uint  `gorm:"primaryKey"`
	OrderID  uint  `gorm:"index;not null"`
	BookID   uint  `gorm:"index;not null"`
	Price    int64 `gorm:"not null;default:0"`
	Quantity int   `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM.
func (OrderItemModel) TableName() string {
	return "order_items"
}
