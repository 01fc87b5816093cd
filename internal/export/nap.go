// Package export renders the NRA monthly filing set: DEKLAR.TXT with the
// declaration cells plus POKUPKI.TXT and PRODAGBI.TXT with the purchase and
// sales journals. Each file carries one field per line as "NN-NN:value",
// CRLF-terminated and encoded in Windows-1251 as the submission portal
// requires.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/vankov/bgledger/internal/ledger"
)

// Files holds the three filing artifacts, already encoded.
type Files struct {
	Deklar   []byte `json:"-"`
	Pokupki  []byte `json:"-"`
	Prodagbi []byte `json:"-"`
}

// fieldWriter accumulates "code:value" lines with CRLF endings.
type fieldWriter struct {
	b strings.Builder
}

func (w *fieldWriter) put(code, value string) {
	w.b.WriteString(code)
	w.b.WriteByte(':')
	w.b.WriteString(value)
	w.b.WriteString("\r\n")
}

func (w *fieldWriter) amount(code string, d decimal.Decimal) {
	w.put(code, d.StringFixed(2))
}

func (w *fieldWriter) count(code string, n int) {
	w.put(code, strconv.Itoa(n))
}

func encodeWin1251(s string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(charmap.Windows1251.NewEncoder())
	out, _, err := transform.Bytes(enc, []byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode windows-1251: %w", err)
	}
	return out, nil
}

// CompanyVat resolves the VAT identification used in every record, falling
// back to the BG-prefixed EIK for companies without an explicit number.
func CompanyVat(c *ledger.Company) string {
	if c.VatNumber != "" {
		return c.VatNumber
	}
	return "BG" + c.Eik
}

// BuildFiles assembles the filing set for one return period. sales and
// purchases are the period's journal rows; the declaration cells come from
// the return itself.
func BuildFiles(c *ledger.Company, r *ledger.VatReturn, sales, purchases []ledger.VatDocumentSummary) (*Files, error) {
	vat := CompanyVat(c)

	deklar, err := encodeWin1251(deklarLines(c, r, vat))
	if err != nil {
		return nil, err
	}
	pokupki, err := encodeWin1251(journalLines("03", vat, r, purchases))
	if err != nil {
		return nil, err
	}
	prodagbi, err := encodeWin1251(journalLines("02", vat, r, sales))
	if err != nil {
		return nil, err
	}
	return &Files{Deklar: deklar, Pokupki: pokupki, Prodagbi: prodagbi}, nil
}

// deklarLines renders the declaration: identification and period in the
// 00-NN group, journal record counts, then the cells in ascending order.
func deklarLines(c *ledger.Company, r *ledger.VatReturn, vat string) string {
	var w fieldWriter
	w.put("00-01", vat)
	w.put("00-02", c.Name)
	w.put("00-03", r.PeriodLabel())
	w.count("00-05", r.SalesDocumentCount)
	w.count("00-06", r.PurchaseDocumentCount)

	w.amount("01-01", r.TotalSalesBase())
	w.amount("01-11", r.SalesBase20)
	w.amount("01-12", r.IcaBase)
	w.amount("01-13", r.SalesBase9)
	w.amount("01-14", r.SalesBase0Chapter3)
	w.amount("01-15", r.IcdBase)
	w.amount("01-16", r.ExportBase)
	w.amount("01-17", r.Art21ServicesBase)
	w.amount("01-18", r.Art69SuppliesBase)
	w.amount("01-19", r.ExemptBase)
	w.amount("01-20", r.TotalOutputVat())
	w.amount("01-21", r.SalesVat20)
	w.amount("01-22", r.IcaVat)
	w.amount("01-23", r.PersonalUseVat)
	w.amount("01-24", r.SalesVat9)

	w.amount("01-30", r.PurchasesNoCreditBase)
	w.amount("01-31", r.PurchasesFullCreditBase)
	w.amount("01-32", r.PurchasesPartialCreditBase)
	coef := r.Coefficient
	if coef.IsZero() {
		coef = decimal.NewFromInt(1)
	}
	w.amount("01-33", coef)
	w.amount("01-40", r.DeductibleVat())
	w.amount("01-41", r.PurchasesFullCreditVat)
	w.amount("01-42", r.PurchasesPartialCreditVat)
	w.amount("01-43", r.AnnualAdjustment)

	w.amount("01-50", r.VatToPay())
	w.amount("01-60", r.VatToRefund())
	return w.b.String()
}

// journalLines renders one field group per document. Sales rows use the 02
// prefix, purchase rows 03, matching the declaration's cell numbering: the
// base/VAT pair lands on -11/-21 for sales and -31/-41 for purchases.
func journalLines(prefix, vat string, r *ledger.VatReturn, docs []ledger.VatDocumentSummary) string {
	var w fieldWriter
	for i, d := range docs {
		w.put(prefix+"-00", vat)
		w.put(prefix+"-01", r.PeriodLabel())
		w.count(prefix+"-02", i+1)
		w.put(prefix+"-03", d.DocumentType)
		w.put(prefix+"-04", d.DocumentNumber)
		w.put(prefix+"-05", d.DocumentDate.Format("2006/01/02"))
		w.put(prefix+"-06", d.CounterpartVat)
		w.put(prefix+"-07", d.CounterpartName)
		w.put(prefix+"-08", d.Description)
		w.amount(prefix+"-09", d.NetAmount)
		w.amount(prefix+"-10", d.VatAmount)
		if prefix == "02" {
			w.amount(prefix+"-11", d.NetAmount)
			w.amount(prefix+"-21", d.VatAmount)
		} else {
			w.amount(prefix+"-31", d.NetAmount)
			w.amount(prefix+"-41", d.VatAmount)
		}
	}
	return w.b.String()
}
