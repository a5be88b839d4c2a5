package handler

// ----- form DTOs -----
//
// Bodies of create and update calls for these resources are validated here
// before they reach the API; other resources are forwarded as sent.

type addressForm struct {
	ZipCode      string `json:"zipCode" validate:"required,len=8,numeric"`
	Street       string `json:"street" validate:"required,max=120"`
	Number       string `json:"number" validate:"required,max=10"`
	Complement   string `json:"complement,omitempty" validate:"max=60"`
	Neighborhood string `json:"neighborhood" validate:"required,max=60"`
	City         string `json:"city" validate:"required,max=60"`
	State        string `json:"state" validate:"required,len=2"`
}

type supplierForm struct {
	Name      string      `json:"name" validate:"required,max=120"`
	TradeName string      `json:"tradeName,omitempty" validate:"max=120"`
	Document  string      `json:"document" validate:"required,numeric,min=11,max=14"`
	Email     string      `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string      `json:"phone,omitempty" validate:"omitempty,numeric,min=10,max=11"`
	Address   addressForm `json:"address"`
}

type productForm struct {
	Code         string  `json:"code" validate:"required,max=20"`
	Description  string  `json:"description" validate:"required,max=120"`
	UnitID       int64   `json:"unitId" validate:"required,gt=0"`
	CategoryID   int64   `json:"categoryId" validate:"required,gt=0"`
	MinimumStock float64 `json:"minimumStock" validate:"gte=0"`
}

type costCenterForm struct {
	Code        string `json:"code" validate:"required,max=20"`
	Description string `json:"description" validate:"required,max=120"`
}

type requestItemForm struct {
	ProductID int64   `json:"productId" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
	Note      string  `json:"note,omitempty" validate:"max=255"`
}

type purchaseRequestForm struct {
	RequestTypeID int64             `json:"requestTypeId" validate:"required,gt=0"`
	CostCenterID  int64             `json:"costCenterId" validate:"required,gt=0"`
	NeededBy      string            `json:"neededBy" validate:"required,datetime=2006-01-02"`
	Justification string            `json:"justification" validate:"required,max=500"`
	Items         []requestItemForm `json:"items" validate:"min=1,dive"`
}

type stockRequestForm struct {
	RequestTypeID int64             `json:"requestTypeId" validate:"required,gt=0"`
	CostCenterID  int64             `json:"costCenterId" validate:"required,gt=0"`
	Note          string            `json:"note,omitempty" validate:"max=500"`
	Items         []requestItemForm `json:"items" validate:"min=1,dive"`
}

// forms returns an empty form for resources whose writes are validated.
var forms = map[string]func() any{
	"suppliers":         func() any { return &supplierForm{} },
	"products":          func() any { return &productForm{} },
	"cost-centers":      func() any { return &costCenterForm{} },
	"purchase-requests": func() any { return &purchaseRequestForm{} },
	"stock-requests":    func() any { return &stockRequestForm{} },
}
