package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname"  validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Mobile    string `json:"mobile"`
	Password  string `json:"password"  validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerResponse struct {
	Status string       `json:"status"`
	User   userResponse `json:"user"`
}

type loginResponse struct {
	ID          string `json:"id"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Email       string `json:"email"`
	AccessToken string `json:"accessToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// --- Users ---

// Response-only types owned by the transport layer, so the JSON contract does
// not follow domain changes.
type userResponse struct {
	ID        string    `json:"id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile,omitempty"`
	Role      string    `json:"role"`
	IsBlocked bool      `json:"isBlocked"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type updateProfileRequest struct {
	Firstname *string `json:"firstname" validate:"omitempty,min=1"`
	Lastname  *string `json:"lastname"  validate:"omitempty,min=1"`
	Email     *string `json:"email"     validate:"omitempty,email"`
}

type blockResponse struct {
	User    userResponse `json:"user"`
	Message string       `json:"message"`
}

// --- Products ---

type createProductRequest struct {
	Title       string  `json:"title"       validate:"required,notblank"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price"       validate:"required,gt=0"`
	Quantity    int     `json:"quantity"    validate:"gte=0"`
	Category    string  `json:"category"    validate:"required"`
	Brand       string  `json:"brand"`
}

type updateProductRequest struct {
	Title       *string  `json:"title"       validate:"omitempty,notblank"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"       validate:"omitempty,gt=0"`
	Quantity    *int     `json:"quantity"    validate:"omitempty,gte=0"`
	Category    *string  `json:"category"    validate:"omitempty,min=1"`
	Brand       *string  `json:"brand"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type listProductsResponse struct {
	Data       []productResponse  `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}
