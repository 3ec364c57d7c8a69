package model

import "time"

// DefaultCountry is stored when a create request omits the country.
const DefaultCountry = "India"

// Address is a shipping address owned by a single user.
type Address struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Phone     string    `json:"phone" db:"phone"`
	Line1     string    `json:"line1" db:"line1"`
	Line2     *string   `json:"line2,omitempty" db:"line2"`
	City      string    `json:"city" db:"city"`
	State     string    `json:"state" db:"state"`
	Pincode   string    `json:"pincode" db:"pincode"`
	Country   string    `json:"country" db:"country"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateAddressRequest is the payload for adding an address.
type CreateAddressRequest struct {
	FullName  string  `json:"full_name" validate:"required,max=100"`
	Phone     string  `json:"phone" validate:"required,max=15"`
	Line1     string  `json:"line1" validate:"required,max=255"`
	Line2     *string `json:"line2,omitempty" validate:"omitempty,max=255"`
	City      string  `json:"city" validate:"required,max=100"`
	State     string  `json:"state" validate:"required,max=100"`
	Pincode   string  `json:"pincode" validate:"required,max=10"`
	Country   string  `json:"country,omitempty" validate:"omitempty,max=50"`
	IsDefault bool    `json:"is_default"`
}

// UpdateAddressRequest is a partial update; nil fields are left untouched.
type UpdateAddressRequest struct {
	FullName  *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=1,max=15"`
	Line1     *string `json:"line1,omitempty" validate:"omitempty,min=1,max=255"`
	Line2     *string `json:"line2,omitempty" validate:"omitempty,max=255"`
	City      *string `json:"city,omitempty" validate:"omitempty,min=1,max=100"`
	State     *string `json:"state,omitempty" validate:"omitempty,min=1,max=100"`
	Pincode   *string `json:"pincode,omitempty" validate:"omitempty,min=1,max=10"`
	Country   *string `json:"country,omitempty" validate:"omitempty,min=1,max=50"`
	IsDefault *bool   `json:"is_default,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r *UpdateAddressRequest) Empty() bool {
	return r.FullName == nil && r.Phone == nil && r.Line1 == nil && r.Line2 == nil &&
		r.City == nil && r.State == nil && r.Pincode == nil && r.Country == nil && r.IsDefault == nil
}

// Apply merges the non-nil fields into a. IsDefault is handled separately by the caller.
func (r *UpdateAddressRequest) Apply(a *Address) {
	if r.FullName != nil {
		a.FullName = *r.FullName
	}
	if r.Phone != nil {
		a.Phone = *r.Phone
	}
	if r.Line1 != nil {
		a.Line1 = *r.Line1
	}
	if r.Line2 != nil {
		a.Line2 = r.Line2
	}
	if r.City != nil {
		a.City = *r.City
	}
	if r.State != nil {
		a.State = *r.State
	}
	if r.Pincode != nil {
		a.Pincode = *r.Pincode
	}
	if r.Country != nil {
		a.Country = *r.Country
	}
}

// AddressListResponse wraps the address list.
type AddressListResponse struct {
	Addresses []Address `json:"addresses"`
}
