package cart

type AddItemReq struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=-999,max=999"`
}

// SetDatesReq with both fields empty clears the dates.
type SetDatesReq struct {
	StartDate string `json:"start_date" validate:"required_with=EndDate"`
	EndDate   string `json:"end_date" validate:"required_with=StartDate"`
}
