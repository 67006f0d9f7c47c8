package importer

// amountMode determines how amount and type are read from a row.
type amountMode int

const (
	// amountTyped is an absolute amount next to an income/expense type column.
	amountTyped amountMode = iota
	// amountSigned is one signed column, negative meaning expense.
	amountSigned
	// amountSplit is a pair of debit and credit columns.
	amountSplit
)

// Profile describes a CSV column layout. Each column lists the header names it accepts,
// compared case-insensitively.
type Profile struct {
	Format     Format
	Date       []string
	Desc       []string
	AmountMode amountMode
	Amount     []string
	Type       []string
	Debit      []string
	Credit     []string

	// Optional columns, only read by the fintrack profile.
	Category  []string
	Recurring []string
	Pattern   []string
}

func (p Profile) required() [][]string {
	cols := [][]string{p.Date, p.Desc}

	switch p.AmountMode {
	case amountTyped:
		cols = append(cols, p.Amount, p.Type)
	case amountSigned:
		cols = append(cols, p.Amount)
	case amountSplit:
		cols = append(cols, p.Debit, p.Credit)
	}

	return cols
}

var (
	dateNames = []string{"date", "data", "data mov.", "booking date", "transaction date"}
	descNames = []string{"description", "descrição", "descricao", "memo", "details"}
)

// profiles are tried in order, more specific layouts first.
var profiles = []Profile{
	{
		Format:     FormatFintrack,
		Date:       []string{"date"},
		Desc:       []string{"description"},
		AmountMode: amountTyped,
		Amount:     []string{"amount"},
		Type:       []string{"type"},
		Category:   []string{"category_id"},
		Recurring:  []string{"is_recurring"},
		Pattern:    []string{"recurrence_pattern"},
	},
	{
		Format:     FormatSplit,
		Date:       dateNames,
		Desc:       descNames,
		AmountMode: amountSplit,
		Debit:      []string{"debit", "débito", "debito"},
		Credit:     []string{"credit", "crédito", "credito"},
	},
	{
		Format:     FormatStatement,
		Date:       dateNames,
		Desc:       descNames,
		AmountMode: amountSigned,
		Amount:     []string{"amount", "montante", "movimento", "value"},
	},
}

func profileFor(f Format) (Profile, bool) {
	for _, p := range profiles {
		if p.Format == f {
			return p, true
		}
	}

	return Profile{}, false
}
