package email

import (
	"fmt"
	"strings"
)

// InvoiceDetails is what the default invoice email mentions.
type InvoiceDetails struct {
	Number   string
	FromName string
	ToName   string
	Total    string
	DueDate  string
}

// InvoiceSubject returns "Invoice {number} from {sender}".
func InvoiceSubject(d InvoiceDetails) string {
	return fmt.Sprintf("Invoice %s from %s", d.Number, d.FromName)
}

// InvoiceBody returns the default plain text cover letter.
func InvoiceBody(d InvoiceDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", d.ToName)
	fmt.Fprintf(&b, "Please find attached your invoice %s for the amount of %s.\n\n", d.Number, d.Total)
	fmt.Fprintf(&b, "Payment is due by %s.\n\n", d.DueDate)
	b.WriteString("Thank you for your business!\n\n")
	fmt.Fprintf(&b, "Best regards,\n%s", d.FromName)
	return b.String()
}
