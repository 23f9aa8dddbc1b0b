package request

type InitiatePaymentRequest struct {
	Method    string `json:"method" binding:"required,oneof=card 3ds"`
	CardToken string `json:"card_token,omitempty"`
	ReturnURL string `json:"return_url,omitempty"`
}

// PaymentCallbackRequest is the provider's webhook body. Field names follow
// the provider's wire format, not ours.
type PaymentCallbackRequest struct {
	TranRef      string                `json:"tran_ref" binding:"required"`
	CartID       string                `json:"cart_id"`
	CartAmount   string                `json:"cart_amount"`
	CartCurrency string                `json:"cart_currency"`
	Result       PaymentCallbackResult `json:"payment_result"`
}

type PaymentCallbackResult struct {
	ResponseStatus  string `json:"response_status"`
	ResponseCode    string `json:"response_code"`
	ResponseMessage string `json:"response_message"`
}
