package export

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vankov/bgledger/internal/ledger"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testCompany() *ledger.Company {
	return &ledger.Company{ID: 1, Name: "Тест ЕООД", Eik: "131234567", VatNumber: "BG131234567"}
}

func testReturn() *ledger.VatReturn {
	return &ledger.VatReturn{
		CompanyID: 1, Year: 2026, Month: 3, Status: ledger.VatReturnDraft,
		SalesBase20: dec("100.00"), SalesVat20: dec("20.00"),
		PurchasesFullCreditBase: dec("50.00"), PurchasesFullCreditVat: dec("10.00"),
		SalesDocumentCount: 1, PurchaseDocumentCount: 1,
	}
}

func testDocs() (sales, purchases []ledger.VatDocumentSummary) {
	sales = []ledger.VatDocumentSummary{{
		DocumentNumber:  "0000000101",
		DocumentDate:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DocumentType:    "01",
		CounterpartName: "Клиент ООД",
		CounterpartVat:  "BG200111222",
		Description:     "Продажба на стоки",
		NetAmount:       dec("100.00"),
		VatAmount:       dec("20.00"),
	}}
	purchases = []ledger.VatDocumentSummary{{
		DocumentNumber:  "0000000055",
		DocumentDate:    time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		DocumentType:    "03",
		CounterpartName: "Доставчик АД",
		CounterpartVat:  "BG300111222",
		Description:     "Доставка на материали",
		NetAmount:       dec("50.00"),
		VatAmount:       dec("10.00"),
	}}
	return sales, purchases
}

// fields parses an encoded file back into code→value pairs for assertions.
// Non-ASCII values stay in their Windows-1251 bytes, which is fine for the
// codes and amounts the tests look at.
func fields(t *testing.T, data []byte) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\r\n"), "\r\n") {
		code, value, ok := strings.Cut(line, ":")
		require.True(t, ok, "line %q lacks a code:value separator", line)
		out[code] = value
	}
	return out
}

func TestFileLayout(t *testing.T) {
	sales, purchases := testDocs()
	f, err := BuildFiles(testCompany(), testReturn(), sales, purchases)
	require.NoError(t, err)

	for _, data := range [][]byte{f.Deklar, f.Pokupki, f.Prodagbi} {
		s := string(data)
		assert.True(t, strings.HasSuffix(s, "\r\n"))
		assert.NotContains(t, strings.ReplaceAll(s, "\r\n", ""), "\n")
		for _, line := range strings.Split(strings.TrimRight(s, "\r\n"), "\r\n") {
			assert.Regexp(t, `^\d\d-\d\d:`, line)
		}
	}
}

func TestDeklarCells(t *testing.T) {
	sales, purchases := testDocs()
	f, err := BuildFiles(testCompany(), testReturn(), sales, purchases)
	require.NoError(t, err)

	d := fields(t, f.Deklar)
	assert.Equal(t, "BG131234567", d["00-01"])
	assert.Equal(t, "202603", d["00-03"])
	assert.Equal(t, "1", d["00-05"])
	assert.Equal(t, "1", d["00-06"])

	assert.Equal(t, "100.00", d["01-01"])
	assert.Equal(t, "100.00", d["01-11"])
	assert.Equal(t, "20.00", d["01-20"])
	assert.Equal(t, "20.00", d["01-21"])
	assert.Equal(t, "50.00", d["01-31"])
	assert.Equal(t, "10.00", d["01-41"])
	assert.Equal(t, "10.00", d["01-40"])
	assert.Equal(t, "1.00", d["01-33"]) // unset coefficient reports as 1
	assert.Equal(t, "10.00", d["01-50"])
	assert.Equal(t, "0.00", d["01-60"])
	assert.Equal(t, "0.00", d["01-12"])
}

func TestJournalRows(t *testing.T) {
	sales, purchases := testDocs()
	f, err := BuildFiles(testCompany(), testReturn(), sales, purchases)
	require.NoError(t, err)

	s := fields(t, f.Prodagbi)
	assert.Equal(t, "202603", s["02-01"])
	assert.Equal(t, "1", s["02-02"])
	assert.Equal(t, "01", s["02-03"])
	assert.Equal(t, "0000000101", s["02-04"])
	assert.Equal(t, "2026/03/10", s["02-05"])
	assert.Equal(t, "BG200111222", s["02-06"])
	assert.Equal(t, "100.00", s["02-09"])
	assert.Equal(t, "20.00", s["02-10"])
	assert.Equal(t, "100.00", s["02-11"])
	assert.Equal(t, "20.00", s["02-21"])

	p := fields(t, f.Pokupki)
	assert.Equal(t, "03", p["03-03"])
	assert.Equal(t, "0000000055", p["03-04"])
	assert.Equal(t, "2026/03/04", p["03-05"])
	assert.Equal(t, "50.00", p["03-31"])
	assert.Equal(t, "10.00", p["03-41"])
}

func TestCyrillicEncodedAsWindows1251(t *testing.T) {
	sales, purchases := testDocs()
	f, err := BuildFiles(testCompany(), testReturn(), sales, purchases)
	require.NoError(t, err)

	// "Тест" in Windows-1251: Т=0xD2 е=0xE5 с=0xF1 т=0xF2.
	assert.Contains(t, string(f.Deklar), "\xd2\xe5\xf1\xf2")
	assert.NotContains(t, string(f.Deklar), "Тест")
}

func TestCompanyVatFallback(t *testing.T) {
	c := &ledger.Company{Eik: "123456789"}
	assert.Equal(t, "BG123456789", CompanyVat(c))
	c.VatNumber = "BG999999999"
	assert.Equal(t, "BG999999999", CompanyVat(c))
}
