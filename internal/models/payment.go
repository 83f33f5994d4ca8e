package models

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentSuccess   PaymentStatus = "SUCCESS"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Succeeded reports a settled payment. The backend uses both spellings.
func (s PaymentStatus) Succeeded() bool {
	return s == PaymentSuccess || s == PaymentCompleted
}

// Payment is a payment record.
type Payment struct {
	ID               int64         `json:"id"`
	User             *User         `json:"user,omitempty"`
	Project          *Project      `json:"project,omitempty"`
	Amount           int64         `json:"amount"`
	Status           PaymentStatus `json:"status"`
	VnpTransactionNo string        `json:"vnpTransactionNo,omitempty"`
	VnpBankCode      string        `json:"vnpBankCode,omitempty"`
	VnpPayDate       string        `json:"vnpPayDate,omitempty"`
	CreatedAt        string        `json:"createdAt,omitempty"`
	UpdatedAt        string        `json:"updatedAt,omitempty"`
}

// PaymentRequest initiates a payment for a project.
type PaymentRequest struct {
	ProjectID int64  `json:"projectId"`
	Amount    int64  `json:"amount"`
	ReturnURL string `json:"returnUrl,omitempty"`
}

// PaymentInitiation is the gateway redirect returned by payment creation.
type PaymentInitiation struct {
	Status     string `json:"status,omitempty"`
	Message    string `json:"message,omitempty"`
	PaymentURL string `json:"paymentUrl"`
}
