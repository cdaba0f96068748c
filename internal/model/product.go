package model

import "time"

// Rating bounds for a product.
const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 5
)

// Product represents a catalogue entry shown on the storefront.
type Product struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Price     string    `json:"price" db:"price"`
	Rating    int       `json:"rating" db:"rating"`
	Image     string    `json:"image" db:"image"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductInput is the request payload for creating a product.
type ProductInput struct {
	Name   string `json:"name"`
	Price  string `json:"price"`
	Rating *int   `json:"rating,omitempty"`
	Image  string `json:"image,omitempty"`
}

// ProductPatch is the request payload for a partial product update.
// A nil field is left untouched.
type ProductPatch struct {
	Name   *string `json:"name,omitempty"`
	Price  *string `json:"price,omitempty"`
	Rating *int    `json:"rating,omitempty"`
	Image  *string `json:"image,omitempty"`
}

// IsEmpty reports whether the patch carries no fields.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Rating == nil && p.Image == nil
}

// ClampRating forces a rating into [MinRating, MaxRating].
func ClampRating(rating int) int {
	if rating < MinRating {
		return MinRating
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}

// DefaultProducts returns the catalogue used to seed an empty store and as
// offline demo data on the storefront.
func DefaultProducts() []Product {
	return []Product{
		{
			Name:   "Custom Name Insulated Bottle",
			Price:  "Rs. 4,950",
			Rating: DefaultRating,
			Image:  "https://images.pexels.com/photos/3259629/pexels-photo-3259629.jpeg?auto=compress&cs=tinysrgb&w=800",
		},
		{
			Name:   "Executive Corporate Gift Set",
			Price:  "Rs. 12,500",
			Rating: DefaultRating,
			Image:  "https://images.pexels.com/photos/4065405/pexels-photo-4065405.jpeg?auto=compress&cs=tinysrgb&w=800",
		},
		{
			Name:   "Premium Desk Essentials Kit",
			Price:  "Rs. 9,900",
			Rating: DefaultRating,
			Image:  "https://images.pexels.com/photos/3787321/pexels-photo-3787321.jpeg?auto=compress&cs=tinysrgb&w=800",
		},
	}
}
