package printing

import (
	"embed"
	"fmt"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// invoiceTemplatePath is the embedded invoice layout
const invoiceTemplatePath = "templates/invoice.html"

// LoadTemplateContent loads an embedded template file
func LoadTemplateContent(filePath string) (string, error) {
	content, err := templateFS.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %s: %w", filePath, err)
	}
	return string(content), nil
}

// Labels are the fixed captions printed on an invoice
type Labels struct {
	Heading        string
	Series         string
	Number         string
	Seller         string
	Buyer          string
	SellerCode     string
	BuyerCode      string
	VATCode        string
	Address        string
	Phone          string
	Email          string
	Website        string
	BankAccount    string
	LineNo         string
	Description    string
	Unit           string
	Quantity       string
	Price          string
	Amount         string
	GrandTotal     string
	PayUntil       string
	Notes          string
	IssuedBy       string
	ReceivedBy     string
	formatLongDate func(time.Time) string
}

var ltMonths = [...]string{
	"sausio", "vasario", "kovo", "balandžio", "gegužės", "birželio",
	"liepos", "rugpjūčio", "rugsėjo", "spalio", "lapkričio", "gruodžio",
}

var lithuanianLabels = Labels{
	Heading:     "Sąskaita faktūra",
	Series:      "Serija",
	Number:      "Nr.",
	Seller:      "Pardavėjo rekvizitai",
	Buyer:       "Pirkėjo rekvizitai",
	SellerCode:  "Įmonės kodas / IV pažyma",
	BuyerCode:   "Įmonės kodas / Asmens kodas",
	VATCode:     "PVM kodas",
	Address:     "Adresas",
	Phone:       "Telefonas",
	Email:       "El. paštas",
	Website:     "Svetainė",
	BankAccount: "A/s",
	LineNo:      "Eil. Nr.",
	Description: "Prekės ar paslaugos pavadinimas",
	Unit:        "Mato vnt.",
	Quantity:    "Kiekis",
	Price:       "Kaina",
	Amount:      "Suma",
	GrandTotal:  "Iš viso",
	PayUntil:    "Sąskaitą apmokėti iki",
	Notes:       "Papildoma informacija",
	IssuedBy:    "Sąskaitą išrašė",
	ReceivedBy:  "Sąskaitą priėmė",
	formatLongDate: func(t time.Time) string {
		return fmt.Sprintf("%d m. %s %02d d.", t.Year(), ltMonths[t.Month()-1], t.Day())
	},
}

var englishLabels = Labels{
	Heading:     "Invoice",
	Series:      "Series",
	Number:      "No.",
	Seller:      "Seller",
	Buyer:       "Buyer",
	SellerCode:  "Company code",
	BuyerCode:   "Company / personal code",
	VATCode:     "VAT code",
	Address:     "Address",
	Phone:       "Phone",
	Email:       "Email",
	Website:     "Website",
	BankAccount: "Account",
	LineNo:      "No.",
	Description: "Goods or services",
	Unit:        "Unit",
	Quantity:    "Quantity",
	Price:       "Price",
	Amount:      "Amount",
	GrandTotal:  "Total",
	PayUntil:    "Payment due",
	Notes:       "Additional information",
	IssuedBy:    "Issued by",
	ReceivedBy:  "Received by",
	formatLongDate: func(t time.Time) string {
		return t.Format("2 January 2006")
	},
}

// labelsFor picks captions by base language; anything but English prints in Lithuanian
func labelsFor(base string) Labels {
	if base == "en" {
		return englishLabels
	}
	return lithuanianLabels
}
