package notify

import (
	"fmt"
	"net/url"
	"strings"

	"bellafatia-be/internal/order"
)

// WhatsApp builds the fire-and-forget order handoff for payment methods
// settled on delivery. The store crew receives the summary and confirms the
// order out of band.
type WhatsApp struct {
	number string
}

func NewWhatsApp(number string) *WhatsApp {
	return &WhatsApp{number: number}
}

// OrderHandoffURL renders the order summary and wraps it in a wa.me link.
func (wa *WhatsApp) OrderHandoffURL(o *order.Order) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", wa.number, url.QueryEscape(wa.Message(o)))
}

func (wa *WhatsApp) Message(o *order.Order) string {
	var b strings.Builder

	b.WriteString("*Novo Pedido da Bella Fatia*\n")
	fmt.Fprintf(&b, "*Nome*: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "*Telefone*: %s\n", o.Phone)
	fmt.Fprintf(&b, "*Endereço*: %s, %s", o.Address, o.Number)
	if o.Complement != "" {
		fmt.Fprintf(&b, ", %s", o.Complement)
	}
	fmt.Fprintf(&b, "\n%s\n", o.Neighborhood)

	b.WriteString("\n*Itens do Pedido*:\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "%dx %s - R$ %s\n", item.Quantity, item.ProductName, item.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: R$ %s\n", o.TotalPrice.StringFixed(2))

	fmt.Fprintf(&b, "\nForma de pagamento: %s", paymentLabel(o.PaymentMethod))
	if o.PaymentMethod == order.MethodCash && o.ChangeFor != nil {
		fmt.Fprintf(&b, "\nTroco para: R$ %s", o.ChangeFor.StringFixed(2))
	}

	if o.Notes != "" {
		fmt.Fprintf(&b, "\n\n*Observações*: %s", o.Notes)
	}

	return b.String()
}

func paymentLabel(m order.PaymentMethod) string {
	switch m {
	case order.MethodCash:
		return "Dinheiro"
	case order.MethodCard:
		return "Cartão (na entrega)"
	case order.MethodPix:
		return "PIX"
	default:
		return string(m)
	}
}
