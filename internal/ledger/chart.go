package ledger

// AccountTemplate is a predefined entry in the Bulgarian national chart of
// accounts a new company is seeded with.
type AccountTemplate struct {
	Code            string       `json:"code"`
	Name            string       `json:"name"`
	Type            AccountType  `json:"type"`
	IsAnalytical    bool         `json:"is_analytical"`
	ParentCode      string       `json:"parent_code,omitempty"`
	IsVatApplicable bool         `json:"is_vat_applicable"`
	VatDirection    VatDirection `json:"vat_direction"`
}

// PredefinedAccounts is the standard chart seed. Synthetic (non-analytical)
// accounts group the sections; only analytical leaves accept postings.
var PredefinedAccounts = []AccountTemplate{
	// Дълготрайни активи
	{Code: "201", Name: "Дълготрайни материални активи", Type: TypeAsset},
	{Code: "203", Name: "Сгради", Type: TypeAsset, IsAnalytical: true, ParentCode: "201"},
	{Code: "204", Name: "Машини и оборудване", Type: TypeAsset, IsAnalytical: true, ParentCode: "201"},
	{Code: "207", Name: "Транспортни средства", Type: TypeAsset, IsAnalytical: true, ParentCode: "201"},
	{Code: "209", Name: "Други ДМА", Type: TypeAsset, IsAnalytical: true, ParentCode: "201"},

	// Материални запаси
	{Code: "302", Name: "Материали", Type: TypeAsset},
	{Code: "30201", Name: "Основни материали", Type: TypeAsset, IsAnalytical: true, ParentCode: "302"},
	{Code: "30202", Name: "Спомагателни материали", Type: TypeAsset, IsAnalytical: true, ParentCode: "302"},
	{Code: "303", Name: "Продукция", Type: TypeAsset},
	{Code: "30301", Name: "Готова продукция", Type: TypeAsset, IsAnalytical: true, ParentCode: "303"},
	{Code: "304", Name: "Стоки", Type: TypeAsset, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatInput},

	// Финансови средства и вземания
	{Code: "411", Name: "Клиенти", Type: TypeAsset, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatOutput},
	{Code: "501", Name: "Каса", Type: TypeAsset},
	{Code: "50101", Name: "Каса в лева", Type: TypeAsset, IsAnalytical: true, ParentCode: "501"},
	{Code: "50102", Name: "Каса във валута", Type: TypeAsset, IsAnalytical: true, ParentCode: "501"},
	{Code: "503", Name: "Разплащателни сметки", Type: TypeAsset},
	{Code: "50301", Name: "Разплащателна сметка в лева", Type: TypeAsset, IsAnalytical: true, ParentCode: "503"},
	{Code: "50302", Name: "Разплащателна сметка във валута", Type: TypeAsset, IsAnalytical: true, ParentCode: "503"},

	// Разчети
	{Code: "401", Name: "Доставчици", Type: TypeLiability, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatInput},
	{Code: "402", Name: "Доставчици по аванси", Type: TypeAsset, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatInput},
	{Code: "4531", Name: "Начислен ДДС на покупките", Type: TypeAsset, IsAnalytical: true},
	{Code: "4532", Name: "Начислен ДДС на продажбите", Type: TypeLiability, IsAnalytical: true},
	{Code: "4533", Name: "ДДС за внасяне", Type: TypeLiability, IsAnalytical: true},
	{Code: "4534", Name: "ДДС за възстановяване", Type: TypeAsset, IsAnalytical: true},

	// Собствен капитал
	{Code: "101", Name: "Основен капитал", Type: TypeEquity, IsAnalytical: true},
	{Code: "117", Name: "Резерви", Type: TypeEquity, IsAnalytical: true},
	{Code: "123", Name: "Печалба и загуба от минали години", Type: TypeEquity, IsAnalytical: true},
	{Code: "124", Name: "Текуща печалба/загуба", Type: TypeEquity, IsAnalytical: true},

	// Разходи
	{Code: "601", Name: "Разходи за материали", Type: TypeExpense, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatInput},
	{Code: "602", Name: "Разходи за външни услуги", Type: TypeExpense, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatInput},
	{Code: "603", Name: "Разходи за амортизации", Type: TypeExpense, IsAnalytical: true},
	{Code: "604", Name: "Разходи за заплати", Type: TypeExpense, IsAnalytical: true},
	{Code: "605", Name: "Разходи за социални осигуровки", Type: TypeExpense, IsAnalytical: true},
	{Code: "609", Name: "Други разходи", Type: TypeExpense, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatInput},
	{Code: "611", Name: "Разходи за лихви", Type: TypeExpense, IsAnalytical: true},
	{Code: "612", Name: "Разходи от валутни операции", Type: TypeExpense, IsAnalytical: true},

	// Приходи
	{Code: "701", Name: "Приходи от продажби на продукция", Type: TypeRevenue, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatOutput},
	{Code: "702", Name: "Приходи от продажби на стоки", Type: TypeRevenue, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatOutput},
	{Code: "703", Name: "Приходи от услуги", Type: TypeRevenue, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatOutput},
	{Code: "709", Name: "Други приходи", Type: TypeRevenue, IsAnalytical: true, IsVatApplicable: true, VatDirection: VatOutput},
	{Code: "711", Name: "Приходи от лихви", Type: TypeRevenue, IsAnalytical: true},
	{Code: "712", Name: "Приходи от валутни операции", Type: TypeRevenue, IsAnalytical: true},
}

// LookupTemplate finds a chart template by code.
func LookupTemplate(code string) *AccountTemplate {
	for i := range PredefinedAccounts {
		if PredefinedAccounts[i].Code == code {
			return &PredefinedAccounts[i]
		}
	}
	return nil
}
