package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/tables"
)

func toLines(text string) []models.TextLine {
	var out []models.TextLine
	for i, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, models.TextLine{Index: i, Content: l})
		}
	}
	return out
}

func sequentialIDs() Option {
	n := 0
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("txn-%d", n)
	})
}

const creditStatement = `ESTADO DE CUENTA
TARJETA DE CREDITO VISA
Las Condes 19/07/2025 Mercadopago *sociedad A2 89.990 89.990 01/01 sep-2025 89.990
S/I27/07/2025Compra falabella plaza vespucio T37.90537.90501/01sep-202537.905
06/08/2025Anulacion pago automatico abono T17.040-17.04001/01sep-2025-17.040
Providencia 31/09/2025 Fecha imposible en esta linea 12.000
Linea suficientemente larga pero sin transaccion 01/08`

func TestParseLinesCreditStatement(t *testing.T) {
	p := New(tables.Default(), WithYear(2025), sequentialIDs())
	txns, diag := p.ParseLines(toLines(creditStatement))

	if diag.Dialect != models.DialectCredit {
		t.Fatalf("dialect = %q, want %q", diag.Dialect, models.DialectCredit)
	}
	if len(txns) != 3 {
		t.Fatalf("got %d transactions, want 3: %+v", len(txns), txns)
	}

	tests := []struct {
		date     string
		desc     string
		location string
		amount   float64
		signed   float64
	}{
		{"2025-07-19", "Mercadopago *sociedad", "Las Condes", 89990, -89990},
		{"2025-07-27", "Compra falabella plaza vespucio", UnidentifiedLocation, 37905, -37905},
		{"2025-08-06", "Anulacion pago automatico abono", "", 17040, -17040},
	}
	for i, tt := range tests {
		got := txns[i]
		if got.Date.Format("2006-01-02") != tt.date {
			t.Errorf("txn %d date = %s, want %s", i, got.Date.Format("2006-01-02"), tt.date)
		}
		if got.Description != tt.desc {
			t.Errorf("txn %d description = %q, want %q", i, got.Description, tt.desc)
		}
		if got.Location != tt.location {
			t.Errorf("txn %d location = %q, want %q", i, got.Location, tt.location)
		}
		if got.Amount != tt.amount || got.SignedAmount != tt.signed {
			t.Errorf("txn %d amount = %v/%v, want %v/%v", i, got.Amount, got.SignedAmount, tt.amount, tt.signed)
		}
		if got.Type != models.TypeExpense {
			t.Errorf("txn %d type = %q, want expense", i, got.Type)
		}
		if got.ID != fmt.Sprintf("txn-%d", i+1) {
			t.Errorf("txn %d id = %q", i, got.ID)
		}
	}
	if !txns[2].IsReversal() || txns[2].NetExpense() != -17040 {
		t.Errorf("third transaction should be a reversal netting -17040 from expenses: %+v", txns[2])
	}
	if txns[0].IsReversal() || txns[0].NetExpense() != 89990 {
		t.Errorf("first transaction should be a plain expense: %+v", txns[0])
	}

	if diag.NoiseLines != 2 {
		t.Errorf("noise lines = %d, want 2", diag.NoiseLines)
	}
	if diag.Rejected[models.RejectInvalidRecord] != 1 {
		t.Errorf("invalid records = %d, want 1", diag.Rejected[models.RejectInvalidRecord])
	}
	if len(diag.Unmatched) != 1 || diag.Unmatched[0].DateFragment != "01/08" {
		t.Errorf("unmatched = %+v, want one line with fragment 01/08", diag.Unmatched)
	}
	if diag.GrammarHits[GrammarSpaced] != 1 || diag.GrammarHits[GrammarUnidentified] != 1 || diag.GrammarHits[GrammarReversal] != 1 {
		t.Errorf("grammar hits = %v", diag.GrammarHits)
	}
}

const ledgerStatement = `CARTOLA CUENTA CORRIENTE
SALDO INICIAL 1.284.567
15/07 SANTIAGO 1234567 TRANSFERENCIA A TERCEROS 50.0001.234.567
16/07 PROVIDENCIA 0000123 DEPOSITO SUELDO 1.500.0002.734.567
17/07 SANTIAGO 7654321 PAGO CUENTAS 2.0001.0001.000`

func TestParseLinesLedger(t *testing.T) {
	p := New(tables.Default(), WithYear(2025))
	txns, diag := p.ParseLines(toLines(ledgerStatement))

	if diag.Dialect != models.DialectLedger {
		t.Fatalf("dialect = %q, want %q", diag.Dialect, models.DialectLedger)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2: %+v", len(txns), txns)
	}

	if txns[0].Type != models.TypeExpense || txns[0].Amount != 50000 || txns[0].SignedAmount != -50000 {
		t.Errorf("transfer = %+v, want expense of 50000", txns[0])
	}
	if txns[0].Location != "SANTIAGO" {
		t.Errorf("location = %q, want SANTIAGO", txns[0].Location)
	}
	if want := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC); !txns[0].Date.Equal(want) {
		t.Errorf("date = %v, want %v", txns[0].Date, want)
	}
	if txns[1].Type != models.TypeIncome || txns[1].Amount != 1500000 || txns[1].SignedAmount != 1500000 {
		t.Errorf("salary = %+v, want income of 1500000", txns[1])
	}
	if diag.Rejected[models.RejectAmbiguousAmount] != 1 {
		t.Errorf("ambiguous = %d, want 1", diag.Rejected[models.RejectAmbiguousAmount])
	}
}

func TestDialectTieGoesToCredit(t *testing.T) {
	d, score := DetectDialect("nothing to see here", tables.Default())
	if d != models.DialectCredit || score.Credit != 0 || score.Ledger != 0 {
		t.Errorf("got %q %+v, want credit with zero scores", d, score)
	}
}

func TestClassifyLine(t *testing.T) {
	tbl := tables.Default()
	tests := []struct {
		line    string
		dialect models.Dialect
		want    models.LineClass
	}{
		{"ESTADO DE CUENTA", models.DialectCredit, models.LineNoise},
		{"Short line", models.DialectCredit, models.LineNoise},
		{"15/07 GIRO 20.000 1.000", models.DialectLedger, models.LineCandidate},
		{"15/07 GIRO 20.000 1.000", models.DialectCredit, models.LineNoise},
		{"Nombre del titular: JUAN PEREZ GONZALEZ", models.DialectCredit, models.LineNoise},
		{"Las Condes 19/07/2025 Mercadopago *sociedad A2 89.990 89.990 01/01 sep-2025 89.990", models.DialectCredit, models.LineCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := ClassifyLine(models.TextLine{Content: tt.line}, tt.dialect, tbl)
			if got.Class != tt.want {
				t.Errorf("class = %q, want %q", got.Class, tt.want)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	p := New(tables.Default(), WithYear(2025))
	line := "Las Condes 19/07/2025 Mercadopago *sociedad A2 89.990 89.990 01/01 sep-2025 89.990"
	txns, _ := p.ParseLines(toLines(line + "\n" + line + "\n" +
		"Las Condes 20/07/2025 Mercadopago *sociedad A2 89.990 89.990 01/01 sep-2025 89.990"))
	if len(txns) != 3 {
		t.Fatalf("got %d parsed transactions, want 3", len(txns))
	}

	once, dropped := Dedupe(txns)
	if len(once) != 2 || dropped != 1 {
		t.Fatalf("got %d kept, %d dropped; want 2, 1", len(once), dropped)
	}
	if once[0].ID != txns[0].ID {
		t.Error("first occurrence should be kept")
	}

	twice, dropped := Dedupe(once)
	if len(twice) != len(once) || dropped != 0 {
		t.Errorf("second pass changed the set: %d -> %d", len(once), len(twice))
	}
}

func TestDedupeKeepsReversal(t *testing.T) {
	date := time.Date(2025, 8, 6, 0, 0, 0, 0, time.UTC)
	purchase := models.Transaction{ID: "a", Date: date, Description: "Pago automatico", Amount: 17040, SignedAmount: -17040, Type: models.TypeExpense}
	reversal := purchase
	reversal.ID, reversal.Reversal = "b", true

	out, dropped := Dedupe([]models.Transaction{purchase, reversal, reversal})
	if len(out) != 2 || dropped != 1 {
		t.Fatalf("got %d kept, %d dropped; want 2, 1", len(out), dropped)
	}
	if out[0].ID != "a" || out[1].ID != "b" {
		t.Errorf("kept %q, %q; want purchase then reversal", out[0].ID, out[1].ID)
	}
}

func TestParseRows(t *testing.T) {
	row := func(kv ...string) models.Row {
		var r models.Row
		for i := 0; i+1 < len(kv); i += 2 {
			r = append(r, models.Field{Name: kv[i], Value: kv[i+1]})
		}
		return r
	}

	rows := []models.Row{
		row("Fecha", "19/07/2025", "Descripción", "Supermercado Lider", "Monto", "-45.990"),
		row("Date", "2025-07-20", "Memo", "Salary July", "Amount", "1500000.50"),
		row("Fecha", "21-07-2025", "Glosa", "Netflix", "Cargo", "9.990", "Abono", ""),
		row("Fecha", "22/07/2025", "Glosa", "Reembolso", "Cargo", "", "Abono", "5.000"),
		row("Fecha", "31/02/2025", "Glosa", "Fecha invalida", "Monto", "1.000"),
		row("Fecha", "23/07/2025", "Glosa", "Sin monto", "Monto", "0"),
		row("Fecha", "24/07/2025", "Glosa", "Monto no numerico", "Monto", "NaN"),
		row("Fecha", "25/07/2025", "Glosa", "Cargo infinito", "Cargo", "Inf", "Abono", "-Infinity"),
	}

	p := New(tables.Default(), WithYear(2025))
	txns, diag := p.ParseRows(rows)

	if diag.Dialect != models.DialectRows {
		t.Errorf("dialect = %q, want rows", diag.Dialect)
	}
	if diag.Rejected[models.RejectInvalidRecord] != 4 {
		t.Errorf("invalid rows = %d, want 4", diag.Rejected[models.RejectInvalidRecord])
	}

	want := []struct {
		desc   string
		amount float64
		typ    models.TransactionType
	}{
		{"Supermercado Lider", 45990, models.TypeExpense},
		{"Salary July", 1500000.50, models.TypeIncome},
		{"Netflix", 9990, models.TypeExpense},
		{"Reembolso", 5000, models.TypeIncome},
	}
	if len(txns) != len(want) {
		t.Fatalf("got %d transactions, want %d: %+v", len(txns), len(want), txns)
	}
	for i, w := range want {
		if txns[i].Description != w.desc || txns[i].Amount != w.amount || txns[i].Type != w.typ {
			t.Errorf("txn %d = %+v, want %+v", i, txns[i], w)
		}
	}
}

func TestSplitLines(t *testing.T) {
	text := "ESTADO DE CUENTA\r\n\r\n  Las Condes 19/07/2025 Compra  \n\fpagina 2\n"
	got := SplitLines(text)
	want := []models.TextLine{
		{Index: 0, Content: "ESTADO DE CUENTA"},
		{Index: 2, Content: "Las Condes 19/07/2025 Compra"},
		{Index: 4, Content: "pagina 2"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if SplitLines("  \n\t\n") != nil {
		t.Error("blank text should yield no lines")
	}
}
