package payment

type RecordPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required,oneof=cash card bank_transfer other"`
	Reference string  `json:"reference"`
	Deposit   bool    `json:"deposit"`
}
