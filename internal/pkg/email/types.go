// internal/pkg/email/types.go
package email

import (
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
	EmailTypeOrderCancellation EmailType = "order_cancellation"
	EmailTypeOrderStatusUpdate EmailType = "order_status_update"
	EmailTypeAdminAlert        EmailType = "admin_alert"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	Type        EmailType `json:"type"`
}

// TemplateData contains common data for all email templates
type TemplateData struct {
	SiteName  string `json:"site_name"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Year      int    `json:"year"`
}

// OrderLine is a line item rendered in order emails
type OrderLine struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Total    string `json:"total"`
}

// OrderConfirmationData contains data for the order confirmation email
type OrderConfirmationData struct {
	TemplateData
	OrderNumber   string      `json:"order_number"`
	OrderDate     string      `json:"order_date"`
	OrderTotal    string      `json:"order_total"`
	PaymentMethod string      `json:"payment_method"`
	Items         []OrderLine `json:"items"`
}

// OrderCancellationData contains data for the cancellation email
type OrderCancellationData struct {
	TemplateData
	OrderNumber  string `json:"order_number"`
	Reason       string `json:"reason"`
	RefundAmount string `json:"refund_amount,omitempty"`
	RefundStatus string `json:"refund_status,omitempty"`
}

// OrderStatusUpdateData contains data for order status updates
type OrderStatusUpdateData struct {
	TemplateData
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	StatusMessage string `json:"status_message"`
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(siteName, userName, userEmail string) TemplateData {
	return TemplateData{
		SiteName:  siteName,
		UserName:  userName,
		UserEmail: userEmail,
		Year:      time.Now().Year(),
	}
}
